package middlewares

import (
	"net/http"

	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

// RequireSession rejects anonymous callers before they reach admin handlers.
// Whether the session is an admin is decided by the service on every call.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionFrom(c) == nil {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
