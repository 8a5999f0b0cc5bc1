package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authify/authgate"
	authgin "github.com/authify/authgate/framework/gin"
)

const banner = "authgate: bearer credential verification for the posting API"

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func bannerHandler(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

// meHandler answers with the identity of the caller.
func meHandler(c *gin.Context) {
	id, err := authgin.GetIdentity(c)
	if err != nil {
		status, body := authgate.ErrorResponse(err)
		c.AbortWithStatusJSON(status, body)
		return
	}
	c.JSON(http.StatusOK, id)
}
