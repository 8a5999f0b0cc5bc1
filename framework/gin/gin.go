// Package authgin runs the authgate credential check as gin middleware.
package authgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authify/authgate"
	"github.com/authify/authgate/core"
)

// IdentityKey is the gin context key the identity is stored under.
const IdentityKey = "authgate.identity"

var ErrMissingIdentity = errors.New("no identity found in gin context")

type ginMiddlewareConfig struct {
	errorHandler   func(*gin.Context, error)
	tokenExtractor authgate.TokenExtractor
}

// New creates gin middleware that verifies the request's credential with c.
// On success the identity is stored both in the gin context (IdentityKey)
// and in the request context, so authgate.GetIdentity works as well.
func New(c *core.Core, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler:   defaultGinErrorHandler,
		tokenExtractor: authgate.AuthHeaderTokenExtractor,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(ctx *gin.Context) {
		token, err := config.tokenExtractor(ctx.Request)
		if err != nil {
			config.errorHandler(ctx, c.Reject(ctx.Request.Context(), err))
			ctx.Abort()
			return
		}

		id, err := c.CheckToken(ctx.Request.Context(), token)
		if err != nil {
			config.errorHandler(ctx, err)
			ctx.Abort()
			return
		}

		ctx.Request = ctx.Request.WithContext(core.WithIdentity(ctx.Request.Context(), id))
		ctx.Set(IdentityKey, id)
		ctx.Next()
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	status, body := authgate.ErrorResponse(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
	}
	c.AbortWithStatusJSON(status, body)
}

// GetIdentity returns the identity stored by the middleware.
func GetIdentity(c *gin.Context) (*core.Identity, error) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, ErrMissingIdentity
	}
	id, ok := v.(*core.Identity)
	if !ok || id == nil {
		return nil, ErrMissingIdentity
	}
	return id, nil
}
