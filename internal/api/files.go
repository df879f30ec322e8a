package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"darkchat/internal/models"
)

const maxUploadBytes = 10 << 20 // 10 MB

// uploadFile stores a blob under <userID>/<timestamp>-<originalName> and
// persists its metadata.
func (h *Handler) uploadFile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_ = f.Close()
	contentType := http.DetectContentType(buf[:n])

	original := filepath.Base(file.Filename)
	finalName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), original)
	destDir := filepath.Join(h.fileBase, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create directory failed"})
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(destDir, finalName)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	blobKey := fmt.Sprintf("%d/%s", userID, finalName)
	record, err := h.store.RecordFile(c.Request.Context(), models.File{
		UserID:    userID,
		Filename:  original,
		Path:      blobKey,
		Size:      file.Size,
		MimeType:  contentType,
		PublicURL: "/uploads/" + blobKey,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "file": record})
}

func (h *Handler) listFiles(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	files, err := h.store.ListFiles(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if files == nil {
		files = make([]models.File, 0)
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) deleteFile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.store.GetFile(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Blob removal is best-effort; the metadata row is the source of truth.
	if h.fileBase != "" {
		_ = os.Remove(filepath.Join(h.fileBase, filepath.FromSlash(record.Path)))
	}
	c.Status(http.StatusNoContent)
}
