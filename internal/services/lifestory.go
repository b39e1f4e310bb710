package services

import (
	"context"
	"fmt"
	"path"

	"life-story-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AnswerStore is the subset of the answer repository used by the
// life-story service.
type AnswerStore interface {
	List(ctx context.Context, isMemo bool) ([]*models.Answer, error)
	ListAll(ctx context.Context) ([]*models.Answer, error)
	GetByQuestionID(ctx context.Context, questionID string) (*models.Answer, error)
	Upsert(ctx context.Context, a *models.Answer) error
	Update(ctx context.Context, a *models.Answer) error
	Delete(ctx context.Context, questionID string) error
}

// UpdateAnswerParams carries a partial update. Nil means "leave the
// field alone"; an empty string clears a media reference.
type UpdateAnswerParams struct {
	Text     *string
	PhotoURL *string
	AudioURL *string
}

// LifeStoryService handles life-story answer business logic
type LifeStoryService struct {
	answers AnswerStore
	files   *FileStore
}

// NewLifeStoryService creates a new life-story service
func NewLifeStoryService(answers AnswerStore, files *FileStore) *LifeStoryService {
	return &LifeStoryService{answers: answers, files: files}
}

// Answers returns regular answers and memos, both oldest first.
func (s *LifeStoryService) Answers(ctx context.Context) (answers, memos []*models.Answer, err error) {
	answers, err = s.answers.List(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get answers: %w", err)
	}
	memos, err = s.answers.List(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get memos: %w", err)
	}
	return answers, memos, nil
}

// AllAnswers returns every answer ordered by question identifier.
func (s *LifeStoryService) AllAnswers(ctx context.Context) ([]*models.Answer, error) {
	return s.answers.ListAll(ctx)
}

// SaveAnswer creates or replaces the answer for a question. Saving
// always marks the answer completed.
func (s *LifeStoryService) SaveAnswer(ctx context.Context, questionID string, kind models.AnswerKind, text string, photoURL, audioURL *string) (*models.Answer, error) {
	a := &models.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Text:       text,
		PhotoURL:   normalizeRef(photoURL),
		AudioURL:   normalizeRef(audioURL),
		Completed:  true,
		IsMemo:     kind == models.KindMemo,
	}
	if err := s.answers.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAnswer patches an existing answer. Media files superseded by a
// new URL are deleted best-effort; the row update proceeds regardless.
func (s *LifeStoryService) UpdateAnswer(ctx context.Context, questionID string, params UpdateAnswerParams) (*models.Answer, error) {
	a, err := s.answers.GetByQuestionID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if params.PhotoURL != nil && !sameRef(a.PhotoURL, params.PhotoURL) {
		s.deleteRef(models.MediaPhoto, a.PhotoURL)
		a.PhotoURL = normalizeRef(params.PhotoURL)
	}
	if params.AudioURL != nil && !sameRef(a.AudioURL, params.AudioURL) {
		s.deleteRef(models.MediaAudio, a.AudioURL)
		a.AudioURL = normalizeRef(params.AudioURL)
	}
	if params.Text != nil && *params.Text != "" {
		a.Text = *params.Text
	}

	if err := s.answers.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAnswer removes an answer and any media files it references.
func (s *LifeStoryService) DeleteAnswer(ctx context.Context, questionID string) error {
	a, err := s.answers.GetByQuestionID(ctx, questionID)
	if err != nil {
		return err
	}

	s.deleteRef(models.MediaPhoto, a.PhotoURL)
	s.deleteRef(models.MediaAudio, a.AudioURL)

	return s.answers.Delete(ctx, questionID)
}

func (s *LifeStoryService) deleteRef(kind models.MediaKind, ref *string) {
	if ref == nil || *ref == "" {
		return
	}
	deleteMediaRef(s.files, kind, *ref)
}

// deleteMediaRef removes the file behind a stored media URL. Failures
// are logged, not propagated: the row mutation must not be blocked by
// a missing or stuck file.
func deleteMediaRef(files *FileStore, kind models.MediaKind, ref string) {
	filename := path.Base(ref)
	if _, err := files.Delete(kind, filename); err != nil {
		log.Warn().Err(err).
			Str("kind", string(kind)).
			Str("filename", filename).
			Msg("Failed to delete referenced media file")
	}
}

func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}

func sameRef(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		// An empty new value and a missing old one both mean "no file".
		return (a == nil && *b == "") || (b == nil && *a == "")
	default:
		return *a == *b
	}
}
