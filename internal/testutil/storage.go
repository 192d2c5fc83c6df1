package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/xenn00/social-chat/internal/entity"
	"github.com/xenn00/social-chat/internal/media"
)

// FakeStorage records uploads and deletions in memory.
type FakeStorage struct {
	mu      sync.Mutex
	deleted []string
	Deleted chan string
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Deleted: make(chan string, 64)}
}

func (s *FakeStorage) Upload(ctx context.Context, file io.Reader, filename, contentType string) (entity.Media, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return entity.Media{}, err
	}
	return entity.Media{
		Kind:        media.KindFromContentType(contentType),
		Locator:     "https://files.example.com/" + filename,
		DisplayName: filename,
	}, nil
}

func (s *FakeStorage) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, locator)
	s.mu.Unlock()
	select {
	case s.Deleted <- locator:
	default:
	}
	return nil
}

func (s *FakeStorage) DeletedLocators() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
