package middlewares

import (
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuditLogger records who touched which reservation and the outcome.
func AdminAuditLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"reservation_id": c.Param("id"),
			"status":         c.Writer.Status(),
		}
		if session := SessionFrom(c); session != nil {
			fields["user_id"] = session.UserID
			fields["email"] = session.Email
		}

		if c.Writer.Status() < 400 {
			utils.InfoLogger.WithFields(fields).Info("admin action")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("admin action rejected")
		}
	}
}
