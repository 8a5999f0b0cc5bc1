package authgrpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/authify/authgate/core"
)

const validToken = "validToken123"

type mockValidator struct{}

func (mockValidator) ValidateToken(_ context.Context, token string) (*core.Identity, error) {
	if token != validToken {
		return nil, core.NewValidationError(core.ErrorCodeSignatureInvalid, "invalid token", nil)
	}
	return &core.Identity{UID: "user123"}, nil
}

func newCore(t *testing.T) *core.Core {
	t.Helper()
	c, err := core.New(core.WithValidator(mockValidator{}))
	require.NoError(t, err)
	return c
}

type interceptorCase struct {
	name             string
	authorization    string
	options          []Option
	method           string
	expectErr        bool
	expectedIdentity bool
}

var interceptorCases = []interceptorCase{
	{
		name:             "valid token",
		authorization:    "Bearer " + validToken,
		expectedIdentity: true,
	},
	{
		name:          "invalid token",
		authorization: "Bearer invalidToken456",
		expectErr:     true,
	},
	{
		name:      "missing token",
		expectErr: true,
	},
	{
		name:          "wrong scheme",
		authorization: "Basic " + validToken,
		expectErr:     true,
	},
	{
		name:    "excluded method",
		method:  "/test.service/ExcludedMethod",
		options: []Option{WithExcludedMethods([]string{"/test.service/ExcludedMethod"})},
	},
	{
		name: "custom token extractor",
		options: []Option{WithTokenExtractor(func(context.Context) (string, error) {
			return validToken, nil
		})},
		expectedIdentity: true,
	},
}

func incomingContext(authorization string) context.Context {
	ctx := context.Background()
	if authorization != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", authorization))
	}
	return ctx
}

func methodName(tc interceptorCase) string {
	if tc.method != "" {
		return tc.method
	}
	return "/test.service/TestMethod"
}

func assertOutcome(t *testing.T, tc interceptorCase, err error, handlerCalled bool, resultCtx context.Context) {
	t.Helper()
	if tc.expectErr {
		require.Error(t, err)
		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, codes.Unauthenticated, st.Code())
		assert.Equal(t, unauthenticatedMessage, st.Message())
		assert.False(t, handlerCalled)
		return
	}

	require.NoError(t, err)
	assert.True(t, handlerCalled)
	id, idErr := core.GetIdentity(resultCtx)
	if tc.expectedIdentity {
		require.NoError(t, idErr)
		assert.Equal(t, "user123", id.UID)
	} else {
		assert.ErrorIs(t, idErr, core.ErrIdentityNotFound)
	}
}

func TestUnaryInterceptor(t *testing.T) {
	for _, tc := range interceptorCases {
		t.Run(tc.name, func(t *testing.T) {
			unary := UnaryServerInterceptor(newCore(t), tc.options...)

			var handlerCalled bool
			var resultCtx context.Context
			handler := func(ctx context.Context, _ any) (any, error) {
				handlerCalled = true
				resultCtx = ctx
				return "response", nil
			}

			resp, err := unary(incomingContext(tc.authorization), "request",
				&grpc.UnaryServerInfo{FullMethod: methodName(tc)}, handler)

			assertOutcome(t, tc, err, handlerCalled, resultCtx)
			if !tc.expectErr {
				assert.Equal(t, "response", resp)
			}
		})
	}
}

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func TestStreamInterceptor(t *testing.T) {
	for _, tc := range interceptorCases {
		t.Run(tc.name, func(t *testing.T) {
			stream := StreamServerInterceptor(newCore(t), tc.options...)

			var handlerCalled bool
			var resultCtx context.Context
			handler := func(_ any, ss grpc.ServerStream) error {
				handlerCalled = true
				resultCtx = ss.Context()
				return nil
			}

			err := stream(nil, &mockServerStream{ctx: incomingContext(tc.authorization)},
				&grpc.StreamServerInfo{FullMethod: methodName(tc)}, handler)

			assertOutcome(t, tc, err, handlerCalled, resultCtx)
		})
	}
}

func TestToStatus(t *testing.T) {
	st, _ := status.FromError(toStatus(assert.AnError))
	assert.Equal(t, codes.Internal, st.Code())
}
