package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/authify/authgate/core"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// firebaseIssuerPrefix is followed by the project id in the iss claim of
// Firebase ID tokens.
const firebaseIssuerPrefix = "https://securetoken.google.com/"

// WithKeyCache sets where signing keys are looked up.
// This is a required option.
func WithKeyCache(keys KeyCache) Option {
	return func(v *Validator) error {
		if keys == nil {
			return errors.New("key cache cannot be nil")
		}
		v.keys = keys
		return nil
	}
}

// WithIssuer sets the expected issuer claim (iss).
// This is a required option unless ForFirebaseProject is used.
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuerURL); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithAudience sets the audience (aud) a credential must be issued for.
// This is a required option unless ForFirebaseProject is used.
func WithAudience(audience string) Option {
	return func(v *Validator) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audience = audience
		return nil
	}
}

// ForFirebaseProject sets the audience to projectID and the issuer to
// https://securetoken.google.com/<projectID>, which is what Firebase ID
// tokens carry.
func ForFirebaseProject(projectID string) Option {
	return func(v *Validator) error {
		if projectID == "" {
			return errors.New("project id cannot be empty")
		}
		v.audience = projectID
		v.issuer = firebaseIssuerPrefix + projectID
		return nil
	}
}

// WithAllowedClockSkew sets the allowed clock skew for time-based claims.
//
// exp may lie up to skew in the past; iat and auth_time may lie up to skew
// in the future. If not set, the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithClock overrides the current time used for claim checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
