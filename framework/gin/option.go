package authgin

import (
	"github.com/gin-gonic/gin"

	"github.com/authify/authgate"
)

// Option defines a functional option for configuring the middleware
type Option func(*ginMiddlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware.
// The request is aborted after it returns.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *ginMiddlewareConfig) {
		if handler != nil {
			config.errorHandler = handler
		}
	}
}

// WithTokenExtractor sets how the credential is read from the request.
func WithTokenExtractor(extractor authgate.TokenExtractor) Option {
	return func(config *ginMiddlewareConfig) {
		if extractor != nil {
			config.tokenExtractor = extractor
		}
	}
}
