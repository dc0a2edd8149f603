// File: handlers/health.go
package handlers

import (
	"net/http"

	"agendia/config"
	"agendia/services/resilience"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports service liveness plus the state of the upstream
// circuit breakers so operators see degradation before users do.
type HealthHandler struct {
	Breakers []*resilience.Breaker
}

func NewHealthHandler(breakers ...*resilience.Breaker) *HealthHandler {
	return &HealthHandler{Breakers: breakers}
}

func (h *HealthHandler) HandleHealth(c *gin.Context) {
	issues := []string{}

	if config.AppConfig.GeminiAPIKey == "" {
		issues = append(issues, "gemini_api_key_missing")
	}
	for _, b := range h.Breakers {
		if b.AnyOpen() {
			issues = append(issues, b.Name()+"_api_degraded")
		}
	}

	status := "ok"
	code := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "agent": "citas", "issues": issues})
}
