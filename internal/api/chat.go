package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"darkchat/internal/chat"
)

const chatStreamTimeout = 2 * time.Minute

type chatRequest struct {
	SessionID int64  `json:"session_id"`
	Message   string `json:"message"`
}

// chatStream runs one completion over SSE. Each provider chunk is framed as
// data: {"content": ...}; the stream ends with data: [DONE]. Failures after
// the response has committed to stream mode are forwarded as a single
// data: {"error": ...} frame followed by stream close.
func (h *Handler) chatStream(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	// Ownership is checked before committing to stream mode so an unknown or
	// foreign session is still a plain 404.
	if _, err := h.store.GetSession(c.Request.Context(), userID, req.SessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendJSON := func(payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// The request context is canceled when the client disconnects, which
	// propagates through the pipeline to the provider stream.
	ctx, cancel := context.WithTimeout(c.Request.Context(), chatStreamTimeout)
	defer cancel()

	_, err := h.chat.Respond(ctx, userID, req.SessionID, req.Message, func(chunk string) error {
		return sendJSON(gin.H{"content": chunk})
	})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, chat.ErrSessionNotFound) {
			msg = "session not found"
		}
		_ = sendJSON(gin.H{"error": msg})
		return
	}

	if _, err := fmt.Fprint(c.Writer, "data: [DONE]\n\n"); err != nil {
		return
	}
	flusher.Flush()
}
