package middleware

import (
	"net/http"
	"strings"

	"agendia/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceAuthMiddleware authenticates the calling service (the conversation
// orchestrator) via a Bearer JWT. The chat endpoint is never exposed to end
// users directly.
func ServiceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		subject, err := utils.ExtractSubjectFromToken(tokenString)
		if err != nil {
			logger.Warn("ServiceAuth: token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			c.Abort()
			return
		}

		c.Set("caller", subject)
		c.Next()
	}
}
