package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// maxSubjectLength is the longest uid the identity provider issues.
	maxSubjectLength = 128

	emailKey    = "email"
	authTimeKey = "auth_time"
)

var (
	errSubject        = fmt.Errorf(`"sub" must be 1 to %d characters`, maxSubjectLength)
	errAuthTime       = errors.New(`"auth_time" not satisfied`)
	errAuthTimeFormat = errors.New(`"auth_time" must be a number`)
)

// parseClaims decodes a payload whose signature jws.Verify has already
// checked. Validation happens separately in validateClaims.
func parseClaims(payload []byte) (jwt.Token, error) {
	return jwt.Parse(payload, jwt.WithVerify(false), jwt.WithValidate(false))
}

// claimValidators lists the checks in the order they are reported: who the
// credential is for, then whether it is complete, then whether it is current.
func (v *Validator) claimValidators() []jwt.ValidateOption {
	return []jwt.ValidateOption{
		jwt.WithResetValidators(true),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.allowedClockSkew),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithValidator(jwt.ValidatorFunc(validSubject)),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.IssuedAtKey),
		jwt.WithValidator(jwt.ValidatorFunc(expirationSet)),
		jwt.WithValidator(jwt.IsExpirationValid()),
		jwt.WithValidator(jwt.IsIssuedAtValid()),
		jwt.WithValidator(jwt.IsNbfValid()),
		jwt.WithValidator(jwt.ValidatorFunc(validAuthTime)),
	}
}

func validSubject(_ context.Context, tok jwt.Token) jwt.ValidationError {
	if sub := tok.Subject(); sub == "" || len(sub) > maxSubjectLength {
		return jwt.NewValidationError(errSubject)
	}
	return nil
}

// expirationSet treats exp=0 as expired; jwt.IsExpirationValid skips it.
func expirationSet(_ context.Context, tok jwt.Token) jwt.ValidationError {
	if tok.Expiration().Unix() == 0 {
		return jwt.ErrTokenExpired()
	}
	return nil
}

// validAuthTime rejects an auth_time in the future. The claim is optional.
func validAuthTime(ctx context.Context, tok jwt.Token) jwt.ValidationError {
	raw, ok := tok.Get(authTimeKey)
	if !ok {
		return nil
	}

	var seconds float64
	switch x := raw.(type) {
	case float64:
		seconds = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return jwt.NewValidationError(errAuthTimeFormat)
		}
		seconds = f
	default:
		return jwt.NewValidationError(errAuthTimeFormat)
	}

	now := jwt.ValidationCtxClock(ctx).Now()
	skew := jwt.ValidationCtxSkew(ctx)
	if time.Unix(int64(seconds), 0).After(now.Add(skew)) {
		return jwt.NewValidationError(errAuthTime)
	}
	return nil
}

func emailOf(tok jwt.Token) string {
	email, _ := tok.PrivateClaims()[emailKey].(string)
	return email
}
