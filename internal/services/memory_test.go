package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"life-story-backend/internal/models"
	"life-story-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemoryStore is an in-memory MemoryStore keyed by id.
type fakeMemoryStore struct {
	memories map[string]*models.Memory
	seq      int
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{memories: make(map[string]*models.Memory)}
}

func (f *fakeMemoryStore) Create(ctx context.Context, m *models.Memory) error {
	f.seq++
	m.CreatedAt = time.Unix(int64(f.seq), 0)
	m.UpdatedAt = m.CreatedAt
	cp := *m
	f.memories[m.ID] = &cp
	return nil
}

func (f *fakeMemoryStore) List(ctx context.Context) ([]*models.Memory, error) {
	var out []*models.Memory
	for _, m := range f.memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMemoryStore) ListApproved(ctx context.Context) ([]*models.Memory, error) {
	all, _ := f.List(ctx)
	var out []*models.Memory
	for _, m := range all {
		if m.Approved {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemoryStore) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	m, ok := f.memories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemoryStore) Approve(ctx context.Context, id string) error {
	m, ok := f.memories[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Approved = true
	m.UpdatedAt = time.Now()
	return nil
}

func (f *fakeMemoryStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.memories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.memories, id)
	return nil
}

func TestMemoryService_Create(t *testing.T) {
	store := newFakeMemoryStore()
	svc := NewMemoryService(store, newTestFileStore(t))

	m, err := svc.Create(context.Background(), "  Aunt May  ", "  She always sang in the kitchen.  ", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Aunt May", m.Author)
	assert.Equal(t, "She always sang in the kitchen.", m.Text)
	assert.False(t, m.Approved, "new memories always start unapproved")
	assert.Nil(t, m.PhotoURL)
}

func TestMemoryService_CreateBlankAuthor(t *testing.T) {
	svc := NewMemoryService(newFakeMemoryStore(), newTestFileStore(t))

	m, err := svc.Create(context.Background(), "   ", "a story", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAuthor, m.Author)
}

func TestMemoryService_CreateNormalizesEmptyPhoto(t *testing.T) {
	svc := NewMemoryService(newFakeMemoryStore(), newTestFileStore(t))

	m, err := svc.Create(context.Background(), "Bob", "a story", strptr(""))
	require.NoError(t, err)
	assert.Nil(t, m.PhotoURL)
}

func TestMemoryService_ListOrders(t *testing.T) {
	store := newFakeMemoryStore()
	svc := NewMemoryService(store, newTestFileStore(t))
	ctx := context.Background()

	first, err := svc.Create(ctx, "A", "first", nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, "B", "second", nil)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)
}

func TestMemoryService_ApproveAndListApproved(t *testing.T) {
	store := newFakeMemoryStore()
	svc := NewMemoryService(store, newTestFileStore(t))
	ctx := context.Background()

	m, err := svc.Create(ctx, "A", "story", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "B", "pending", nil)
	require.NoError(t, err)

	approved, err := svc.ListApproved(ctx)
	require.NoError(t, err)
	assert.Empty(t, approved)

	require.NoError(t, svc.Approve(ctx, m.ID))

	approved, err = svc.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, m.ID, approved[0].ID)
}

func TestMemoryService_ApproveNotFound(t *testing.T) {
	svc := NewMemoryService(newFakeMemoryStore(), newTestFileStore(t))
	err := svc.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryService_DeleteRemovesPhoto(t *testing.T) {
	files := newTestFileStore(t)
	store := newFakeMemoryStore()
	svc := NewMemoryService(store, files)
	ctx := context.Background()

	photo, err := files.Save(models.MediaPhoto, "p.png", "image/png", 1, strings.NewReader("p"))
	require.NoError(t, err)

	m, err := svc.Create(ctx, "A", "story", strptr(photo.URL))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m.ID))

	_, err = store.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	names, err := files.Filenames(models.MediaPhoto)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryService_DeleteNotFound(t *testing.T) {
	svc := NewMemoryService(newFakeMemoryStore(), newTestFileStore(t))
	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
