package services

import (
	"context"
	"fmt"
	"path"

	"life-story-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// MediaRefSource yields the media URLs referenced by one table.
type MediaRefSource interface {
	MediaRefs(ctx context.Context) ([]string, error)
}

// CleanupService deletes uploaded files no longer referenced by any
// answer or memory row. The sweep is destructive and unconditional: a
// file uploaded but not yet attached to a row will be removed by a
// concurrently running sweep.
type CleanupService struct {
	sources []MediaRefSource
	files   *FileStore
}

// NewCleanupService creates a cleanup service over the given reference
// sources.
func NewCleanupService(files *FileStore, sources ...MediaRefSource) *CleanupService {
	return &CleanupService{sources: sources, files: files}
}

// Sweep deletes every on-disk file whose basename is not referenced by
// any row, independently for the photo and audio directories, and
// reports what was removed.
func (s *CleanupService) Sweep(ctx context.Context) (*models.CleanupResult, error) {
	used := make(map[string]struct{})
	for _, src := range s.sources {
		refs, err := src.MediaRefs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to collect media refs: %w", err)
		}
		for _, ref := range refs {
			used[path.Base(ref)] = struct{}{}
		}
	}

	result := &models.CleanupResult{DeletedFiles: []string{}}
	for _, kind := range []models.MediaKind{models.MediaPhoto, models.MediaAudio} {
		names, err := s.files.Filenames(kind)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := used[name]; ok {
				continue
			}
			deleted, err := s.files.Delete(kind, name)
			if err != nil {
				return nil, err
			}
			if deleted {
				result.DeletedCount++
				result.DeletedFiles = append(result.DeletedFiles, kind.Dir()+"/"+name)
			}
		}
	}

	log.Info().
		Int("deleted_count", result.DeletedCount).
		Strs("deleted_files", result.DeletedFiles).
		Msg("Media cleanup completed")

	return result, nil
}
