package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// BlobStore keeps attachment bytes in memory and serves URLs under a
// configurable public base. Suitable for dev and tests only.
type BlobStore struct {
	baseURL string

	mu    sync.RWMutex
	blobs map[string][]byte
	types map[string]string
}

// NewBlobStore builds an empty store publishing under baseURL.
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		blobs:   make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Upload stores the content and returns its public URL.
func (s *BlobStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("memory: read blob: %w", err)
	}
	s.mu.Lock()
	s.blobs[key] = data
	s.types[key] = contentType
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

// Get returns stored bytes and content type for tests.
func (s *BlobStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	return data, s.types[key], ok
}
