package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"life-story-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnsupportedType is returned when an upload's declared content
	// type is not on the allow-list for its kind.
	ErrUnsupportedType = errors.New("invalid file type")

	// ErrFileTooLarge is returned when an upload exceeds the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidFilename is returned for names that could escape the
	// upload directory.
	ErrInvalidFilename = errors.New("invalid filename")
)

// photoTypes is the allow-list of photo upload content types.
var photoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// audioTypes is the allow-list of audio upload content types.
var audioTypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/wave":  {},
	"audio/webm":  {},
	"audio/ogg":   {},
	"audio/m4a":   {},
	"audio/x-m4a": {},
}

// ValidFilename reports whether a client-supplied filename is safe to
// use below the upload root. Callers must check this before any
// filesystem access.
func ValidFilename(name string) bool {
	if name == "" {
		return false
	}
	return !strings.Contains(name, "..") &&
		!strings.ContainsAny(name, `/\`)
}

// FileStore owns the upload directory tree: one subdirectory per media
// kind, files named by generated UUIDs.
type FileStore struct {
	root     string
	maxBytes int64
}

// NewFileStore creates a file store rooted at the given path and
// ensures the per-kind directories exist.
func NewFileStore(root string, maxFileSizeBytes int64) (*FileStore, error) {
	for _, kind := range []models.MediaKind{models.MediaPhoto, models.MediaAudio} {
		dir := filepath.Join(root, kind.Dir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}
	return &FileStore{root: root, maxBytes: maxFileSizeBytes}, nil
}

// MaxBytes returns the configured upload size cap.
func (s *FileStore) MaxBytes() int64 {
	return s.maxBytes
}

func (s *FileStore) dir(kind models.MediaKind) string {
	return filepath.Join(s.root, kind.Dir())
}

// Resolve maps a filename to its absolute path under the kind's
// directory, rejecting traversal attempts first.
func (s *FileStore) Resolve(kind models.MediaKind, filename string) (string, error) {
	if !ValidFilename(filename) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir(kind), filename), nil
}

// Save validates and writes a single uploaded file, generating a
// collision-resistant name that keeps the original extension. Nothing
// is written when validation fails.
func (s *FileStore) Save(kind models.MediaKind, originalName, contentType string, size int64, r io.Reader) (*models.MediaFile, error) {
	allowed := photoTypes
	if kind == models.MediaAudio {
		allowed = audioTypes
	}
	if _, ok := allowed[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s is not allowed for %s uploads", ErrUnsupportedType, contentType, kind)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %dMB", ErrFileTooLarge, s.maxBytes/(1024*1024))
	}

	filename := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.dir(kind), filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	// The declared size is client-supplied; cap the copy as well.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.maxBytes {
		err = fmt.Errorf("%w: maximum size is %dMB", ErrFileTooLarge, s.maxBytes/(1024*1024))
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove partial upload")
		}
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload file: %w", err)
	}

	return &models.MediaFile{
		Filename:   filename,
		URL:        mediaURL(kind, filename),
		Size:       written,
		UploadedAt: info.ModTime(),
	}, nil
}

// Delete removes a file by name. It is idempotent: deleting a missing
// file returns (false, nil).
func (s *FileStore) Delete(kind models.MediaKind, filename string) (bool, error) {
	path, err := s.Resolve(kind, filename)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}
	return true, nil
}

// Filenames lists the names of all files currently stored for a kind.
func (s *FileStore) Filenames(kind models.MediaKind) ([]string, error) {
	entries, err := os.ReadDir(s.dir(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// List enumerates all stored files with size and upload time.
func (s *FileStore) List() (*models.MediaListing, error) {
	listing := &models.MediaListing{
		Photos: []models.MediaFile{},
		Audio:  []models.MediaFile{},
	}

	for _, kind := range []models.MediaKind{models.MediaPhoto, models.MediaAudio} {
		names, err := s.Filenames(kind)
		if err != nil {
			return nil, err
		}
		sort.Strings(names)

		files := make([]models.MediaFile, 0, len(names))
		for _, name := range names {
			info, err := os.Stat(filepath.Join(s.dir(kind), name))
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", name, err)
			}
			files = append(files, models.MediaFile{
				Filename:   name,
				URL:        mediaURL(kind, name),
				Size:       info.Size(),
				UploadedAt: info.ModTime(),
			})
		}

		if kind == models.MediaPhoto {
			listing.Photos = files
		} else {
			listing.Audio = files
		}
	}

	return listing, nil
}

func mediaURL(kind models.MediaKind, filename string) string {
	return fmt.Sprintf("/api/v1/media/upload/%s/%s", kind, filename)
}
