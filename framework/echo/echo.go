// Package authecho runs the authgate credential check as echo middleware.
package authecho

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authify/authgate"
	"github.com/authify/authgate/core"
)

// IdentityKey is the echo context key the identity is stored under.
const IdentityKey = "authgate.identity"

var ErrMissingIdentity = errors.New("no identity found in echo context")

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler   func(echo.Context, error) error
	tokenExtractor authgate.TokenExtractor
}

// New creates echo middleware that verifies the request's credential with c.
func New(c *core.Core, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler:   defaultEchoErrorHandler,
		tokenExtractor: authgate.AuthHeaderTokenExtractor,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			req := ec.Request()

			token, err := config.tokenExtractor(req)
			if err != nil {
				return config.errorHandler(ec, c.Reject(req.Context(), err))
			}

			id, err := c.CheckToken(req.Context(), token)
			if err != nil {
				return config.errorHandler(ec, err)
			}

			ec.SetRequest(req.WithContext(core.WithIdentity(req.Context(), id)))
			ec.Set(IdentityKey, id)
			return next(ec)
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status, body := authgate.ErrorResponse(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	return c.JSON(status, body)
}

// GetIdentity returns the identity stored by the middleware.
func GetIdentity(c echo.Context) (*core.Identity, error) {
	id, ok := c.Get(IdentityKey).(*core.Identity)
	if !ok || id == nil {
		return nil, ErrMissingIdentity
	}
	return id, nil
}
