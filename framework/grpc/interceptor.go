// Package authgrpc runs the authgate credential check as gRPC server
// interceptors.
package authgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/authify/authgate/core"
)

const unauthenticatedMessage = "invalid or missing credentials"

// Interceptor authenticates gRPC calls.
type Interceptor struct {
	core             *core.Core
	tokenExtractor   TokenExtractor
	exclusionChecker func(method string) bool
}

// New creates a new Interceptor with the given options.
func New(c *core.Core, opts ...Option) *Interceptor {
	i := &Interceptor{
		core:           c,
		tokenExtractor: MetadataTokenExtractor,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// UnaryServerInterceptor is shorthand for New(c, opts...).UnaryServerInterceptor().
func UnaryServerInterceptor(c *core.Core, opts ...Option) grpc.UnaryServerInterceptor {
	return New(c, opts...).UnaryServerInterceptor()
}

// StreamServerInterceptor is shorthand for New(c, opts...).StreamServerInterceptor().
func StreamServerInterceptor(c *core.Core, opts ...Option) grpc.StreamServerInterceptor {
	return New(c, opts...).StreamServerInterceptor()
}

// authenticate returns ctx with the caller's identity attached, or a
// status error.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		return ctx, nil
	}

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		return nil, toStatus(i.core.Reject(ctx, err))
	}

	id, err := i.core.CheckToken(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return core.WithIdentity(ctx, id), nil
}

// toStatus hides the rejection reason behind codes.Unauthenticated.
func toStatus(err error) error {
	if errors.Is(err, core.ErrUnauthenticated) {
		return status.Error(codes.Unauthenticated, unauthenticatedMessage)
	}
	return status.Error(codes.Internal, "credential check failed")
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
