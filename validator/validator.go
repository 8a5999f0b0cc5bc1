package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/authify/authgate/core"
	"github.com/authify/authgate/jwks"
)

// SignatureAlgorithm is the only algorithm credentials may be signed with.
const SignatureAlgorithm = jwa.RS256

// KeyCache resolves signing keys by key id. *jwks.Cache implements it.
type KeyCache interface {
	Lookup(kid string) (jwks.SigningKey, bool)
	Refresh(ctx context.Context) error
}

// Validator verifies RS256 credentials against a KeyCache and a fixed
// audience and issuer. It is immutable after New and safe for concurrent use.
type Validator struct {
	keys             KeyCache      // Required.
	issuer           string        // Required.
	audience         string        // Required.
	allowedClockSkew time.Duration // Optional.
	logger           core.Logger   // Optional.
	now              func() time.Time
}

// New sets up a new Validator with the passed options.
//
// Required options:
//   - WithKeyCache: where signing keys are looked up
//   - WithIssuer and WithAudience, or ForFirebaseProject
//
// Optional options:
//   - WithAllowedClockSkew: tolerance for exp, iat and auth_time (default: 0)
//   - WithLogger
//   - WithClock
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		now: time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := v.validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) validate() error {
	if v.keys == nil {
		return errors.New("key cache is required (use WithKeyCache)")
	}
	if v.issuer == "" {
		return errors.New("issuer is required (use WithIssuer or ForFirebaseProject)")
	}
	if v.audience == "" {
		return errors.New("audience is required (use WithAudience or ForFirebaseProject)")
	}
	return nil
}

// ValidateToken verifies tokenString and returns the identity it carries.
//
// Every failure is a *core.ValidationError. Checks run in this order and the
// first failing one decides the code: structure, key id, key lookup (with one
// refresh on a miss), signature, then claims.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*core.Identity, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		return nil, core.NewValidationError(core.ErrorCodeCredentialMalformed, "credential is not a compact JWS", err)
	}

	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return nil, core.NewValidationError(core.ErrorCodeCredentialMalformed, "could not parse the credential", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, core.NewValidationError(core.ErrorCodeCredentialMalformed,
			fmt.Sprintf("expected one signature, got %d", len(sigs)), nil)
	}

	headers := sigs[0].ProtectedHeaders()
	if alg := headers.Algorithm(); alg != SignatureAlgorithm {
		return nil, core.NewValidationError(core.ErrorCodeCredentialMalformed,
			fmt.Sprintf("expected %q signing algorithm but credential specified %q", SignatureAlgorithm, alg), nil)
	}

	kid := headers.KeyID()
	if kid == "" {
		return nil, core.NewValidationError(core.ErrorCodeMissingKeyID, "credential header has no kid", nil)
	}

	key, err := v.signingKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(tokenString), jws.WithKey(SignatureAlgorithm, key.Key))
	if err != nil {
		return nil, core.NewValidationError(core.ErrorCodeSignatureInvalid, "signature verification failed", err)
	}

	tok, err := parseClaims(payload)
	if err != nil {
		return nil, core.NewValidationError(core.ErrorCodeCredentialMalformed, "could not decode credential claims", err)
	}

	if err := v.validateClaims(tok); err != nil {
		return nil, err
	}

	return &core.Identity{
		UID:   tok.Subject(),
		Email: emailOf(tok),
	}, nil
}

// signingKey looks kid up, refreshing the cache once on a miss. A refresh
// that fails or is throttled still gets its one re-lookup.
func (v *Validator) signingKey(ctx context.Context, kid string) (jwks.SigningKey, error) {
	if key, ok := v.keys.Lookup(kid); ok {
		return key, nil
	}

	refreshErr := v.keys.Refresh(ctx)
	if refreshErr != nil && v.logger != nil {
		v.logger.Debug("key refresh on unknown kid did not complete", "kid", kid, "error", refreshErr)
	}

	if key, ok := v.keys.Lookup(kid); ok {
		return key, nil
	}

	return jwks.SigningKey{}, core.NewValidationError(core.ErrorCodeUnknownKey,
		fmt.Sprintf("no signing key with id %q", kid), refreshErr)
}

// validateClaims maps jwt validation failures onto the rejection codes: an
// expired credential is Expired, a missing exp or iat is Malformed and
// everything else is a ClaimMismatch.
func (v *Validator) validateClaims(tok jwt.Token) error {
	err := jwt.Validate(tok, v.claimValidators()...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired()):
		return core.NewValidationError(core.ErrorCodeExpired,
			fmt.Sprintf("credential expired at %s", tok.Expiration().UTC().Format(time.RFC3339)), err)
	case errors.Is(err, jwt.ErrRequiredClaim()):
		return core.NewValidationError(core.ErrorCodeCredentialMalformed, "credential lacks a required claim", err)
	default:
		return core.NewValidationError(core.ErrorCodeClaimMismatch, "credential claims rejected", err)
	}
}
