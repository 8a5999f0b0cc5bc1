package authecho

import (
	"github.com/labstack/echo/v4"

	"github.com/authify/authgate"
)

// Option configures the echo middleware.
type Option func(*echoMiddlewareConfig)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) {
		if handler != nil {
			config.errorHandler = handler
		}
	}
}

// WithTokenExtractor sets how the credential is read from the request.
func WithTokenExtractor(extractor authgate.TokenExtractor) Option {
	return func(config *echoMiddlewareConfig) {
		if extractor != nil {
			config.tokenExtractor = extractor
		}
	}
}
