// Package memory is an in-process blob store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"expenseit/internal/blob"
)

type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string

	// FailUploads makes every Upload fail; tests use it to drive the
	// orchestrator into the upload-failed path.
	FailUploads bool
}

var _ blob.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
		baseURL: "mem://receipts",
	}
}

func (s *Store) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if s.FailUploads {
		return "", fmt.Errorf("upload rejected")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(s.objects, key)
	return nil
}

// Len reports how many objects are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}
