package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/app/dto"
)

func TestUploadRejectsOversizedFileLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	u := New(srv.URL, srv.Client(), nil)
	_, err := u.Upload(context.Background(), "big.bin", MaxAttachmentSize+1, bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrAttachmentTooLarge)
	assert.Zero(t, hits.Load(), "oversized upload must not reach the network")
}

func TestUploadSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(MaxAttachmentSize))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.png", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.Attachment{URL: "https://cdn.example.com/photo.png", MIMEType: "image/png"})
	}))
	defer srv.Close()

	content := bytes.Repeat([]byte("x"), 2<<20)
	u := New(srv.URL, srv.Client(), nil)
	att, err := u.Upload(context.Background(), "photo.png", int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photo.png", att.URL)
	assert.Equal(t, "image/png", att.MIMEType)
}

func TestUploadSurfacesServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := New(srv.URL, srv.Client(), nil)
	_, err := u.Upload(context.Background(), "photo.png", 10, bytes.NewReader([]byte("0123456789")))
	require.ErrorIs(t, err, ErrUploadFailed)
}
