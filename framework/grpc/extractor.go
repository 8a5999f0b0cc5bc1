package authgrpc

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/authify/authgate"
)

// TokenExtractor reads a credential from an incoming call's context.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor reads a Bearer token from the "authorization"
// metadata field, with the same rules as the HTTP Authorization header.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return "", nil
	}

	return authgate.ParseBearer(values[0])
}
