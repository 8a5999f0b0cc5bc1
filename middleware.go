package authgate

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/authify/authgate/core"
)

// Gate authenticates requests on protected routes. Requests without a valid
// credential never reach the next handler.
type Gate struct {
	core              *core.Core
	errorHandler      ErrorHandler
	tokenExtractor    TokenExtractor
	validateOnOptions bool
	logger            Logger

	// Temporary fields used during construction
	validator core.Validator
	metrics   core.Metrics
	tracer    trace.Tracer
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New constructs a new Gate instance with the supplied options.
//
// Example:
//
//	gate, err := authgate.New(
//	    authgate.WithValidator(v),
//	    authgate.WithLogger(authgate.NewLogrusLogger(log)),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create gate: %v", err)
//	}
//	mux.Handle("/api/", gate.Handler(api))
func New(opts ...Option) (*Gate, error) {
	g := &Gate{
		validateOnOptions: true,
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if g.validator == nil {
		return nil, fmt.Errorf("invalid gate configuration: %w", ErrValidatorNil)
	}

	g.applyDefaults()

	if err := g.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return g, nil
}

func (g *Gate) createCore() error {
	coreOpts := []core.Option{core.WithValidator(g.validator)}
	if g.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(g.logger))
	}
	if g.metrics != nil {
		coreOpts = append(coreOpts, core.WithMetrics(g.metrics))
	}
	if g.tracer != nil {
		coreOpts = append(coreOpts, core.WithTracer(g.tracer))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	g.core = c
	return nil
}

func (g *Gate) applyDefaults() {
	if g.errorHandler == nil {
		g.errorHandler = DefaultErrorHandler
	}
	if g.tokenExtractor == nil {
		g.tokenExtractor = AuthHeaderTokenExtractor
	}
}

// Core returns the transport-agnostic check the Gate runs, for use with the
// gin, echo and gRPC adapters.
func (g *Gate) Core() *core.Core {
	return g.core
}

// GetIdentity returns the identity the Gate attached to ctx.
//
// Example:
//
//	id, err := authgate.GetIdentity(r.Context())
//	if err != nil {
//	    http.Error(w, "no identity", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(id.UID)
func GetIdentity(ctx context.Context) (*core.Identity, error) {
	return core.GetIdentity(ctx)
}

// MustGetIdentity returns the identity the Gate attached to ctx or panics.
// Use only in handlers mounted behind the Gate.
func MustGetIdentity(ctx context.Context) *core.Identity {
	id, err := core.GetIdentity(ctx)
	if err != nil {
		panic(err)
	}
	return id
}

// HasIdentity checks if an identity exists in the context.
func HasIdentity(ctx context.Context) bool {
	return core.HasIdentity(ctx)
}

// Handler is the main Gate function. It is passed a http.Handler which
// will be called only when the request carries a valid credential.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight requests carry no credentials.
		if !g.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := g.tokenExtractor(r)
		if err != nil {
			g.errorHandler(w, r, g.core.Reject(r.Context(), err))
			return
		}

		id, err := g.core.CheckToken(r.Context(), token)
		if err != nil {
			if g.logger != nil {
				g.logger.Debug("request rejected",
					"method", r.Method,
					"path", r.URL.Path)
			}
			g.errorHandler(w, r, err)
			return
		}

		r = r.Clone(core.WithIdentity(r.Context(), id))
		next.ServeHTTP(w, r)
	})
}
