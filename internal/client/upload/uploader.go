package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

// MaxAttachmentSize is the fixed per-file ceiling. Oversized files are
// rejected locally, before any network round-trip.
const MaxAttachmentSize = chat.MaxAttachmentSize

var (
	// ErrAttachmentTooLarge is returned for files over MaxAttachmentSize.
	ErrAttachmentTooLarge = errors.New("upload: attachment exceeds 5 MiB limit")
	// ErrUploadFailed wraps any transport or server failure. Not retried.
	ErrUploadFailed = errors.New("upload: request failed")
)

// Uploader exchanges one local file for a durable URL + MIME type via the
// attachment endpoint. Concurrent uploads are independent.
type Uploader struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New builds an uploader against the collaborator's attachment endpoint,
// e.g. "http://host:8080/api/v1/attachments".
func New(endpoint string, client *http.Client, logger *slog.Logger) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{endpoint: endpoint, client: client, logger: logger}
}

// Upload validates the file size, posts the content as a multipart body
// and returns the stored attachment. Size must be the actual byte count
// of reader's content.
func (u *Uploader) Upload(ctx context.Context, filename string, size int64, reader io.Reader) (chat.Attachment, error) {
	if size > MaxAttachmentSize {
		return chat.Attachment{}, ErrAttachmentTooLarge
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := createFilePart(writer, filename)
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, io.LimitReader(reader, MaxAttachmentSize+1)); err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := u.client.Do(req)
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return chat.Attachment{}, fmt.Errorf("%w: status %d", ErrUploadFailed, res.StatusCode)
	}

	var wire dto.Attachment
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return chat.Attachment{}, fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if u.logger != nil {
		u.logger.Info("attachment uploaded", "filename", filename, "url", wire.URL, "mime_type", wire.MIMEType)
	}
	return chat.Attachment{URL: wire.URL, MIMEType: wire.MIMEType}, nil
}

// createFilePart opens the multipart section carrying the file. The part
// content type comes from the filename extension so the server can store
// a usable MIME type instead of application/octet-stream.
func createFilePart(writer *multipart.Writer, filename string) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, `"`, `\"`)))
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return writer.CreatePart(header)
}
