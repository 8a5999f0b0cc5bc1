package authgate

import (
	"net/http"
	"strings"

	"github.com/authify/authgate/core"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. A request that carries no credential at all
// yields an empty token and a nil error; the gate then reports it as
// missing. An error means a credential was offered in the wrong form.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor is a TokenExtractor that takes a request
// and extracts the token from the Authorization header.
//
// The scheme must be Bearer (any case) followed by exactly one token. Any
// other scheme is reported as a missing credential.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return ParseBearer(r.Header.Get("Authorization"))
}

// ParseBearer extracts the token from an Authorization header value.
// It is shared with the gRPC adapter, which reads the same value from
// metadata.
func ParseBearer(authHeader string) (string, error) {
	if authHeader == "" {
		return "", nil
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 || !strings.EqualFold(authHeaderParts[0], "bearer") {
		return "", core.NewValidationError(core.ErrorCodeCredentialMissing,
			"Authorization header format must be Bearer {token}", nil)
	}

	return authHeaderParts[1], nil
}
