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

// fakeAnswerStore is an in-memory AnswerStore keyed by question ID.
type fakeAnswerStore struct {
	answers map[string]*models.Answer
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[string]*models.Answer)}
}

func (f *fakeAnswerStore) List(ctx context.Context, isMemo bool) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range f.answers {
		if a.IsMemo == isMemo {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAnswerStore) ListAll(ctx context.Context) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range f.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeAnswerStore) GetByQuestionID(ctx context.Context, questionID string) (*models.Answer, error) {
	a, ok := f.answers[questionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnswerStore) Upsert(ctx context.Context, a *models.Answer) error {
	now := time.Now()
	if existing, ok := f.answers[a.QuestionID]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	f.answers[a.QuestionID] = &cp
	return nil
}

func (f *fakeAnswerStore) Update(ctx context.Context, a *models.Answer) error {
	if _, ok := f.answers[a.QuestionID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	f.answers[a.QuestionID] = &cp
	return nil
}

func (f *fakeAnswerStore) Delete(ctx context.Context, questionID string) error {
	if _, ok := f.answers[questionID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.answers, questionID)
	return nil
}

func strptr(s string) *string { return &s }

func TestLifeStoryService_SaveAnswer(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))

	a, err := svc.SaveAnswer(context.Background(), "childhood-home", models.KindAnswer, "A small house by the river.", nil, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "childhood-home", a.QuestionID)
	assert.True(t, a.Completed, "saving always marks the answer completed")
	assert.False(t, a.IsMemo)
	assert.Nil(t, a.PhotoURL)
	assert.Nil(t, a.AudioURL)
}

func TestLifeStoryService_SaveAnswerMemoKind(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))

	a, err := svc.SaveAnswer(context.Background(), "quick-note", models.KindMemo, "Ask about the farm.", nil, nil)
	require.NoError(t, err)
	assert.True(t, a.IsMemo)
}

func TestLifeStoryService_SaveAnswerNormalizesEmptyRefs(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))

	a, err := svc.SaveAnswer(context.Background(), "q1", models.KindAnswer, "text", strptr(""), strptr(""))
	require.NoError(t, err)
	assert.Nil(t, a.PhotoURL, "empty string ref should be stored as null")
	assert.Nil(t, a.AudioURL)
}

func TestLifeStoryService_SaveAnswerReplacesExisting(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))
	ctx := context.Background()

	_, err := svc.SaveAnswer(ctx, "q1", models.KindAnswer, "first", nil, nil)
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, "q1", models.KindAnswer, "second", nil, nil)
	require.NoError(t, err)

	stored, err := store.GetByQuestionID(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Text)
	require.Len(t, store.answers, 1)
}

func TestLifeStoryService_Answers(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))
	ctx := context.Background()

	_, err := svc.SaveAnswer(ctx, "q1", models.KindAnswer, "an answer", nil, nil)
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, "m1", models.KindMemo, "a memo", nil, nil)
	require.NoError(t, err)

	answers, memos, err := svc.Answers(ctx)
	require.NoError(t, err)

	require.Len(t, answers, 1)
	assert.Equal(t, "q1", answers[0].QuestionID)
	require.Len(t, memos, 1)
	assert.Equal(t, "m1", memos[0].QuestionID)
}

func TestLifeStoryService_UpdateAnswerNotFound(t *testing.T) {
	svc := NewLifeStoryService(newFakeAnswerStore(), newTestFileStore(t))

	_, err := svc.UpdateAnswer(context.Background(), "missing", UpdateAnswerParams{Text: strptr("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLifeStoryService_UpdateAnswerPatchesText(t *testing.T) {
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, newTestFileStore(t))
	ctx := context.Background()

	_, err := svc.SaveAnswer(ctx, "q1", models.KindAnswer, "old text", nil, nil)
	require.NoError(t, err)

	updated, err := svc.UpdateAnswer(ctx, "q1", UpdateAnswerParams{Text: strptr("new text")})
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Text)

	// An empty text patch leaves the stored text alone.
	updated, err = svc.UpdateAnswer(ctx, "q1", UpdateAnswerParams{Text: strptr("")})
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Text)
}

func TestLifeStoryService_UpdateAnswerReplacesPhoto(t *testing.T) {
	files := newTestFileStore(t)
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, files)
	ctx := context.Background()

	old, err := files.Save(models.MediaPhoto, "old.png", "image/png", 3, strings.NewReader("old"))
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, "q1", models.KindAnswer, "text", strptr(old.URL), nil)
	require.NoError(t, err)

	replacement, err := files.Save(models.MediaPhoto, "new.png", "image/png", 3, strings.NewReader("new"))
	require.NoError(t, err)

	updated, err := svc.UpdateAnswer(ctx, "q1", UpdateAnswerParams{PhotoURL: strptr(replacement.URL)})
	require.NoError(t, err)
	require.NotNil(t, updated.PhotoURL)
	assert.Equal(t, replacement.URL, *updated.PhotoURL)

	// The superseded file is gone; the replacement remains.
	names, err := files.Filenames(models.MediaPhoto)
	require.NoError(t, err)
	assert.Equal(t, []string{replacement.Filename}, names)
}

func TestLifeStoryService_UpdateAnswerClearsPhoto(t *testing.T) {
	files := newTestFileStore(t)
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, files)
	ctx := context.Background()

	old, err := files.Save(models.MediaPhoto, "old.png", "image/png", 3, strings.NewReader("old"))
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, "q1", models.KindAnswer, "text", strptr(old.URL), nil)
	require.NoError(t, err)

	updated, err := svc.UpdateAnswer(ctx, "q1", UpdateAnswerParams{PhotoURL: strptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.PhotoURL)

	names, err := files.Filenames(models.MediaPhoto)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLifeStoryService_UpdateAnswerSameRefKeepsFile(t *testing.T) {
	files := newTestFileStore(t)
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, files)
	ctx := context.Background()

	photo, err := files.Save(models.MediaPhoto, "p.png", "image/png", 1, strings.NewReader("p"))
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, "q1", models.KindAnswer, "text", strptr(photo.URL), nil)
	require.NoError(t, err)

	// Resubmitting the same URL must not delete the file it points at.
	_, err = svc.UpdateAnswer(ctx, "q1", UpdateAnswerParams{PhotoURL: strptr(photo.URL)})
	require.NoError(t, err)

	names, err := files.Filenames(models.MediaPhoto)
	require.NoError(t, err)
	assert.Equal(t, []string{photo.Filename}, names)
}

func TestLifeStoryService_DeleteAnswerRemovesMedia(t *testing.T) {
	files := newTestFileStore(t)
	store := newFakeAnswerStore()
	svc := NewLifeStoryService(store, files)
	ctx := context.Background()

	photo, err := files.Save(models.MediaPhoto, "p.png", "image/png", 1, strings.NewReader("p"))
	require.NoError(t, err)
	audio, err := files.Save(models.MediaAudio, "a.mp3", "audio/mpeg", 1, strings.NewReader("a"))
	require.NoError(t, err)

	_, err = svc.SaveAnswer(ctx, "q1", models.KindAnswer, "text", strptr(photo.URL), strptr(audio.URL))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAnswer(ctx, "q1"))

	_, err = store.GetByQuestionID(ctx, "q1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	photos, err := files.Filenames(models.MediaPhoto)
	require.NoError(t, err)
	assert.Empty(t, photos)
	audios, err := files.Filenames(models.MediaAudio)
	require.NoError(t, err)
	assert.Empty(t, audios)
}

func TestLifeStoryService_DeleteAnswerNotFound(t *testing.T) {
	svc := NewLifeStoryService(newFakeAnswerStore(), newTestFileStore(t))
	err := svc.DeleteAnswer(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
