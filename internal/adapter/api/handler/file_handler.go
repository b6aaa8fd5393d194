package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/service"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/response"
)

const defaultMaxUploadSize = 25 * 1024 * 1024

type FileHandler struct {
	storage     service.AttachmentStorage
	maxFileSize int64
}

var fileHandler *FileHandler

func NewFileHandler(storage service.AttachmentStorage) *FileHandler {
	return &FileHandler{
		storage:     storage,
		maxFileSize: defaultMaxUploadSize,
	}
}

func SetupFileHandler(storage service.AttachmentStorage) {
	fileHandler = NewFileHandler(storage)
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

type uploadResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	MimeKind string `json:"mime_kind"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
}

// UploadFile stores a chat attachment and returns the descriptor a client
// passes back in a send-message request.
func (h *FileHandler) UploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	logger.Debug("Received file: %s, size: %d bytes", file.Filename, file.Size)

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	// The declared Content-Type is whatever the browser guessed; sniff instead.
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return response.Error(c, errors.BadRequest("Unable to read file", err))
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return response.Error(c, errors.Internal("Failed to rewind uploaded file", err))
	}

	me := middleware.CurrentUser(c)
	url, err := h.storage.UploadFile(c.Request().Context(), src, mtype.String(), "chat/"+me.String())
	if err != nil {
		logger.Error("Upload failed for %s: %v", me, err)
		return response.Error(c, errors.Upstream("Failed to store file", err))
	}

	name := filepath.Base(file.Filename)
	return response.Created(c, uploadResponse{
		URL:      url,
		MimeType: mtype.String(),
		MimeKind: string(normalize.ClassifyMedia(mtype.String(), url)),
		Name:     name,
		Size:     file.Size,
	})
}

type deleteUploadRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// DeleteUpload discards an attachment the user uploaded but never sent.
// Only files under the caller's own folder can be removed.
func (h *FileHandler) DeleteUpload(c echo.Context) error {
	var req deleteUploadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	me := middleware.CurrentUser(c)
	if !strings.Contains(req.URL, "/chat/"+me.String()+"/") {
		return response.Error(c, errors.Forbidden("You can only delete your own uploads", nil))
	}

	if err := h.storage.DeleteFile(c.Request().Context(), req.URL); err != nil {
		logger.Warn("Delete of %s failed: %v", req.URL, err)
		return response.Error(c, errors.BadRequest("Unable to delete file", err))
	}
	return c.NoContent(http.StatusNoContent)
}
