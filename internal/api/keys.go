package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"darkchat/internal/models"
)

type createKeyRequest struct {
	Name    string `json:"name"`
	Service string `json:"service"`
}

// createAPIKey mints a new key. The plaintext value is only returned here;
// listings are masked.
func (h *Handler) createAPIKey(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Service) == "" {
		req.Service = "default"
	}
	key, err := h.store.CreateAPIKey(c.Request.Context(), userID, req.Name, req.Service)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h *Handler) listAPIKeys(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	keys, err := h.store.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if keys == nil {
		keys = make([]models.APIKey, 0)
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (h *Handler) deleteAPIKey(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	keyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteAPIKey(c.Request.Context(), userID, keyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "api key not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
