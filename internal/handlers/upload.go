package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"govhub/internal/logger"
	"govhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadHandler 文件上传，转存到外部对象存储
type UploadHandler struct {
	store    *services.BlobStore
	maxBytes int64
}

func NewUploadHandler(store *services.BlobStore, maxBytes int64) *UploadHandler {
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

func allowedUploadType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}

// Upload POST /api/upload-blob
func (h *UploadHandler) Upload(c *gin.Context) {
	if !h.store.Enabled() {
		respondError(c, services.ErrBlobStoreDisabled)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadType(contentType) {
		badRequest(c, "Only images and PDF files are allowed")
		return
	}
	if header.Size > h.maxBytes {
		badRequest(c, fmt.Sprintf("File must be smaller than %d MB", h.maxBytes/(1024*1024)))
		return
	}

	result, err := h.store.Put(c.Request.Context(), services.BlobPathname(header.Filename), contentType, file)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  currentUser(c).ID,
		"pathname": result.Pathname,
		"size":     header.Size,
	}).Info("file uploaded")
	c.JSON(http.StatusOK, result)
}

// Delete DELETE /api/upload-blob
func (h *UploadHandler) Delete(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		badRequest(c, "URL is required")
		return
	}
	if err := h.store.Delete(c.Request.Context(), req.URL); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
