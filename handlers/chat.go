// File: handlers/chat.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"agendia/config"
	"agendia/models"
	"agendia/services/agent"
	"agendia/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 4096

// ChatHandler exposes the conversational agent over HTTP.
type ChatHandler struct {
	Agent agent.Service
}

func NewChatHandler(svc agent.Service) *ChatHandler {
	return &ChatHandler{Agent: svc}
}

// HandleChat processes one conversational turn. Agent-level failures come
// back as a normal reply so the calling gateway can always show the user
// something; only malformed requests get a non-200 status.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Chat: invalid request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	if len(req.Message) > maxMessageLength {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", fmt.Sprintf("message exceeds %d characters", maxMessageLength))
		return
	}
	if req.SessionID < 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", "session_id must be a non-negative integer")
		return
	}

	requestID := uuid.New().String()
	timeout := config.ChatTimeout()

	logger.Info("Chat: message received",
		zap.String("requestID", requestID),
		zap.Int("sessionID", req.SessionID),
		zap.Int("tenantID", req.Context.TenantID),
		zap.Int("length", len(req.Message)))

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	type outcome struct {
		reply string
		url   string
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		reply, url, err := h.Agent.ProcessMessage(ctx, req.Message, req.SessionID, req.Context)
		done <- outcome{reply: reply, url: url, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Error("Chat: processing timed out",
			zap.String("requestID", requestID),
			zap.Int("sessionID", req.SessionID),
			zap.Duration("timeout", timeout))
		c.JSON(http.StatusOK, models.ChatResponse{
			Reply:     fmt.Sprintf("La solicitud tardó más de %.0fs. Por favor, intenta de nuevo.", timeout.Seconds()),
			SessionID: req.SessionID,
		})
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				c.JSON(http.StatusOK, models.ChatResponse{
					Reply:     fmt.Sprintf("La solicitud tardó más de %.0fs. Por favor, intenta de nuevo.", timeout.Seconds()),
					SessionID: req.SessionID,
				})
				return
			}
			logger.Error("Chat: processing failed",
				zap.String("requestID", requestID),
				zap.Int("sessionID", req.SessionID), zap.Error(out.err))
			c.JSON(http.StatusOK, models.ChatResponse{
				Reply:     "Error procesando mensaje: " + out.err.Error(),
				SessionID: req.SessionID,
			})
			return
		}
		logger.Info("Chat: reply generated",
			zap.String("requestID", requestID),
			zap.Int("sessionID", req.SessionID),
			zap.Int("length", len(out.reply)))
		c.JSON(http.StatusOK, models.ChatResponse{
			Reply:     out.reply,
			URL:       out.url,
			SessionID: req.SessionID,
		})
	}
}
