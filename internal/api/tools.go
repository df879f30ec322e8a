package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"darkchat/internal/tools"
)

func (h *Handler) listTools(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": h.registry.List()})
}

func (h *Handler) toolFunctions(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"functions": h.registry.Functions()})
}

type executeToolRequest struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// executeTool invokes a registered tool. Lookup, validation, and execution
// failures are all reported through the envelope, not the HTTP status.
func (h *Handler) executeTool(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req executeToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Parameters == nil {
		req.Parameters = make(map[string]any)
	}

	ctx := tools.WithCaller(c.Request.Context(), userID)
	if h.fileBase != "" {
		ctx = tools.WithUploadDir(ctx, filepath.Join(h.fileBase, strconv.FormatInt(userID, 10)))
	}
	c.JSON(http.StatusOK, h.registry.Invoke(ctx, req.Name, req.Parameters))
}
