package ginserver

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
	"gigchat/internal/infra/storage/s3"
)

// AttachmentHandler accepts one multipart file per request and exchanges
// it for a durable URL + MIME type.
type AttachmentHandler struct {
	Store  s3.BlobStore
	Logger *slog.Logger
}

// Upload enforces the attachment size ceiling, stores the bytes and
// responds with the stored attachment descriptor.
func (h AttachmentHandler) Upload(c *gin.Context) {
	// Hard-stop oversized bodies before buffering the part.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, chat.MaxAttachmentSize+(1<<20))

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > chat.MaxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 5 MiB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logError("open upload failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read file"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		h.logError("read upload failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read file"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := "attachments/" + uuid.NewString() + filepath.Ext(file.Filename)
	url, err := h.Store.Upload(c.Request.Context(), key, bytes.NewReader(data), contentType)
	if err != nil {
		h.logError("store attachment failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store file"})
		return
	}
	c.JSON(http.StatusCreated, dto.Attachment{URL: url, MIMEType: contentType})
}

func (h AttachmentHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}
