package authgate

import (
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/authify/authgate/core"
)

// Option configures the Gate.
// Returns error for validation failures.
type Option func(*Gate) error

// WithValidator sets the validator that verifies credentials (REQUIRED).
// *validator.Validator satisfies core.Validator.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeyCache(cache),
//	    validator.ForFirebaseProject("my-project"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gate, err := authgate.New(authgate.WithValidator(v))
func WithValidator(v core.Validator) Option {
	return func(g *Gate) error {
		if v == nil {
			return ErrValidatorNil
		}
		g.validator = v
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests need a credential.
// Turn it off when the Gate sits in front of a CORS handler.
//
// Default: true (OPTIONS requests are validated)
func WithValidateOnOptions(value bool) Option {
	return func(g *Gate) error {
		g.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request is rejected.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(g *Gate) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		g.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the credential from the
// request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(g *Gate) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		g.tokenExtractor = e
		return nil
	}
}

// WithLogger sets an optional logger for the Gate and its core.
func WithLogger(logger Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			return ErrLoggerNil
		}
		g.logger = logger
		return nil
	}
}

// WithMetrics records each verification outcome. *PrometheusMetrics
// satisfies core.Metrics.
func WithMetrics(metrics core.Metrics) Option {
	return func(g *Gate) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		g.metrics = metrics
		return nil
	}
}

// WithTracer overrides the OpenTelemetry tracer used for verification spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Gate) error {
		if tracer == nil {
			return ErrTracerNil
		}
		g.tracer = tracer
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrValidatorNil      = errors.New("validator cannot be nil (use WithValidator)")
	ErrErrorHandlerNil   = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil = errors.New("tokenExtractor cannot be nil")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
)
