package repository

import (
	"context"
	"errors"
	"fmt"

	"life-story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryRepository handles database operations for visitor memories
type MemoryRepository struct {
	db *pgxpool.Pool
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create inserts a new memory. The stored timestamps are written back
// into the given memory.
func (r *MemoryRepository) Create(ctx context.Context, m *models.Memory) error {
	query := `
		INSERT INTO memories (id, author, text, photo_url, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, m.ID, m.Author, m.Text, m.PhotoURL, m.Approved).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create memory: %w", err)
	}
	return nil
}

// List retrieves all memories, newest first
func (r *MemoryRepository) List(ctx context.Context) ([]*models.Memory, error) {
	return r.list(ctx, `
		SELECT id, author, text, photo_url, approved, created_at, updated_at
		FROM memories
		ORDER BY created_at DESC
	`)
}

// ListApproved retrieves approved memories, newest first
func (r *MemoryRepository) ListApproved(ctx context.Context) ([]*models.Memory, error) {
	return r.list(ctx, `
		SELECT id, author, text, photo_url, approved, created_at, updated_at
		FROM memories
		WHERE approved = TRUE
		ORDER BY created_at DESC
	`)
}

func (r *MemoryRepository) list(ctx context.Context, query string) ([]*models.Memory, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []*models.Memory
	for rows.Next() {
		var m models.Memory
		err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.PhotoURL, &m.Approved, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}
	return memories, nil
}

// GetByID retrieves a memory by ID
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	query := `
		SELECT id, author, text, photo_url, approved, created_at, updated_at
		FROM memories
		WHERE id = $1
	`
	var m models.Memory
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Author, &m.Text, &m.PhotoURL, &m.Approved, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("memory %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return &m, nil
}

// Approve marks a memory as approved
func (r *MemoryRepository) Approve(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE memories SET approved = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to approve memory: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a memory by ID
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}
	return nil
}

// MediaRefs returns every photo URL referenced by any memory
func (r *MemoryRepository) MediaRefs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT photo_url FROM memories WHERE photo_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory media refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var photoURL string
		if err := rows.Scan(&photoURL); err != nil {
			return nil, fmt.Errorf("failed to scan memory media refs: %w", err)
		}
		if photoURL != "" {
			refs = append(refs, photoURL)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory media refs: %w", err)
	}
	return refs, nil
}
