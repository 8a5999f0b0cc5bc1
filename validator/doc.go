/*
Package validator verifies RS256 bearer credentials using lestrrat-go/jwx.

A credential passes when all of the following hold, checked in order:

 1. It is a compact JWS of three segments signed with RS256.
 2. Its header names a key id.
 3. The key id resolves in the KeyCache, after at most one refresh.
 4. The signature verifies with that key.
 5. aud contains the expected audience and iss equals the expected issuer.
 6. sub is non-empty and at most 128 characters.
 7. exp is after now minus the allowed clock skew.
 8. iat and, when present, auth_time are not after now plus the skew.

The first failing check decides the error. Every error is a
*core.ValidationError; use errors.Is with the core sentinels to tell them
apart:

	id, err := v.ValidateToken(ctx, token)
	switch {
	case errors.Is(err, core.ErrExpired):
	    // ask the client to refresh its token
	case err != nil:
	    // any other rejection
	}

# Usage

	v, err := validator.New(
	    validator.WithKeyCache(cache),
	    validator.ForFirebaseProject("my-project"),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

On success ValidateToken returns a *core.Identity holding sub as UID and the
email claim when present.

# Thread Safety

The Validator is immutable after creation and safe for concurrent use.
*/
package validator
