// Package core provides the transport-agnostic credential check shared by the
// net/http gate and the gin, echo and gRPC adapters.
package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Validator verifies a raw credential and returns the caller's identity.
// *validator.Validator implements it.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (*Identity, error)
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics records verification outcomes. The outcome is "success" or one of
// the ErrorCode* values.
type Metrics interface {
	ObserveVerification(outcome string, duration time.Duration)
}

// Core wraps a Validator with logging, metrics and tracing. It holds no
// per-request state and is safe for concurrent use.
type Core struct {
	validator Validator
	logger    Logger
	metrics   Metrics
	tracer    trace.Tracer
}

// CheckToken verifies token and returns the identity it carries.
//
// An empty token yields a ValidationError with ErrorCodeCredentialMissing.
// Every failure is a *ValidationError matching ErrUnauthenticated.
func (c *Core) CheckToken(ctx context.Context, token string) (*Identity, error) {
	ctx, span := c.tracer.Start(ctx, "authgate.check_token")
	defer span.End()

	start := time.Now()

	var (
		id  *Identity
		err error
	)
	if token == "" {
		err = NewValidationError(ErrorCodeCredentialMissing, "no credential presented", nil)
	} else {
		id, err = c.validator.ValidateToken(ctx, token)
	}
	duration := time.Since(start)

	if err != nil {
		c.recordFailure(span, err, duration)
		return nil, err
	}

	span.SetAttributes(attribute.String("authgate.outcome", "success"))
	if c.metrics != nil {
		c.metrics.ObserveVerification("success", duration)
	}
	if c.logger != nil {
		c.logger.Debug("credential verified", "uid", id.UID, "duration", duration)
	}

	return id, nil
}

// Reject records a failure found before verification started, such as an
// Authorization header with the wrong scheme, and returns err unchanged.
func (c *Core) Reject(ctx context.Context, err error) error {
	_, span := c.tracer.Start(ctx, "authgate.check_token")
	defer span.End()

	c.recordFailure(span, err, 0)
	return err
}

func (c *Core) recordFailure(span trace.Span, err error, duration time.Duration) {
	code := ErrorCode(err)
	span.SetAttributes(attribute.String("authgate.outcome", code))
	span.SetStatus(codes.Error, code)
	if c.metrics != nil {
		c.metrics.ObserveVerification(code, duration)
	}
	if c.logger != nil {
		c.logger.Warn("credential rejected", "code", code, "error", err, "duration", duration)
	}
}
