package repository

import (
	"context"
	"errors"
	"fmt"

	"life-story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository handles database operations for life-story answers
type AnswerRepository struct {
	db *pgxpool.Pool
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// List retrieves answers filtered by memo flag, oldest first
func (r *AnswerRepository) List(ctx context.Context, isMemo bool) ([]*models.Answer, error) {
	query := `
		SELECT id, question_id, text, photo_url, audio_url, completed, is_memo, created_at, updated_at
		FROM answers
		WHERE is_memo = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, isMemo)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	return scanAnswers(rows)
}

// ListAll retrieves every answer ordered by question identifier
func (r *AnswerRepository) ListAll(ctx context.Context) ([]*models.Answer, error) {
	query := `
		SELECT id, question_id, text, photo_url, audio_url, completed, is_memo, created_at, updated_at
		FROM answers
		ORDER BY question_id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all answers: %w", err)
	}
	defer rows.Close()

	return scanAnswers(rows)
}

// GetByQuestionID retrieves a single answer by its question identifier
func (r *AnswerRepository) GetByQuestionID(ctx context.Context, questionID string) (*models.Answer, error) {
	query := `
		SELECT id, question_id, text, photo_url, audio_url, completed, is_memo, created_at, updated_at
		FROM answers
		WHERE question_id = $1
	`
	var a models.Answer
	err := r.db.QueryRow(ctx, query, questionID).Scan(
		&a.ID, &a.QuestionID, &a.Text, &a.PhotoURL, &a.AudioURL,
		&a.Completed, &a.IsMemo, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("answer %s: %w", questionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return &a, nil
}

// Upsert creates or replaces the answer for its question identifier.
// Atomicity is delegated to Postgres via ON CONFLICT. The stored id and
// timestamps are written back into the given answer.
func (r *AnswerRepository) Upsert(ctx context.Context, a *models.Answer) error {
	query := `
		INSERT INTO answers (id, question_id, text, photo_url, audio_url, completed, is_memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (question_id) DO UPDATE SET
			text = EXCLUDED.text,
			photo_url = EXCLUDED.photo_url,
			audio_url = EXCLUDED.audio_url,
			completed = EXCLUDED.completed,
			is_memo = EXCLUDED.is_memo,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.QuestionID, a.Text, a.PhotoURL, a.AudioURL, a.Completed, a.IsMemo,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

// Update patches the mutable fields of an existing answer
func (r *AnswerRepository) Update(ctx context.Context, a *models.Answer) error {
	query := `
		UPDATE answers
		SET text = $2, photo_url = $3, audio_url = $4, updated_at = now()
		WHERE question_id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, a.QuestionID, a.Text, a.PhotoURL, a.AudioURL).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("answer %s: %w", a.QuestionID, ErrNotFound)
		}
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return nil
}

// Delete removes the answer for a question identifier
func (r *AnswerRepository) Delete(ctx context.Context, questionID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("answer %s: %w", questionID, ErrNotFound)
	}
	return nil
}

// MediaRefs returns every photo and audio URL referenced by any answer
func (r *AnswerRepository) MediaRefs(ctx context.Context) ([]string, error) {
	query := `SELECT photo_url, audio_url FROM answers`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query answer media refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var photoURL, audioURL *string
		if err := rows.Scan(&photoURL, &audioURL); err != nil {
			return nil, fmt.Errorf("failed to scan answer media refs: %w", err)
		}
		if photoURL != nil && *photoURL != "" {
			refs = append(refs, *photoURL)
		}
		if audioURL != nil && *audioURL != "" {
			refs = append(refs, *audioURL)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer media refs: %w", err)
	}
	return refs, nil
}

func scanAnswers(rows pgx.Rows) ([]*models.Answer, error) {
	var answers []*models.Answer
	for rows.Next() {
		var a models.Answer
		err := rows.Scan(
			&a.ID, &a.QuestionID, &a.Text, &a.PhotoURL, &a.AudioURL,
			&a.Completed, &a.IsMemo, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}
	return answers, nil
}
