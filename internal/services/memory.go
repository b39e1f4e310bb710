package services

import (
	"context"
	"strings"

	"life-story-backend/internal/models"

	"github.com/google/uuid"
)

// DefaultAuthor is used when a memory is submitted without a name.
const DefaultAuthor = "Anonymous"

// MemoryStore is the subset of the memory repository used by the
// memory service.
type MemoryStore interface {
	Create(ctx context.Context, m *models.Memory) error
	List(ctx context.Context) ([]*models.Memory, error)
	ListApproved(ctx context.Context) ([]*models.Memory, error)
	GetByID(ctx context.Context, id string) (*models.Memory, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// MemoryService handles visitor-memory business logic
type MemoryService struct {
	memories MemoryStore
	files    *FileStore
}

// NewMemoryService creates a new memory service
func NewMemoryService(memories MemoryStore, files *FileStore) *MemoryService {
	return &MemoryService{memories: memories, files: files}
}

// List returns all memories, newest first.
func (s *MemoryService) List(ctx context.Context) ([]*models.Memory, error) {
	return s.memories.List(ctx)
}

// ListApproved returns approved memories, newest first.
func (s *MemoryService) ListApproved(ctx context.Context) ([]*models.Memory, error) {
	return s.memories.ListApproved(ctx)
}

// Create stores a new memory. It always starts unapproved, whatever
// the caller sent; a blank author becomes the placeholder.
func (s *MemoryService) Create(ctx context.Context, author, text string, photoURL *string) (*models.Memory, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		author = DefaultAuthor
	}

	m := &models.Memory{
		ID:       uuid.New().String(),
		Author:   author,
		Text:     strings.TrimSpace(text),
		PhotoURL: normalizeRef(photoURL),
		Approved: false,
	}
	if err := s.memories.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Approve marks a memory as approved.
func (s *MemoryService) Approve(ctx context.Context, id string) error {
	return s.memories.Approve(ctx, id)
}

// Delete removes a memory and its referenced photo, if any.
func (s *MemoryService) Delete(ctx context.Context, id string) error {
	m, err := s.memories.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if m.PhotoURL != nil && *m.PhotoURL != "" {
		deleteMediaRef(s.files, models.MediaPhoto, *m.PhotoURL)
	}

	return s.memories.Delete(ctx, id)
}
