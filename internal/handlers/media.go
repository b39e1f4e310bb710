package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"life-story-backend/internal/middleware"
	"life-story-backend/internal/models"
	"life-story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// cacheControl is sent with served media files (30 days).
const cacheControl = "public, max-age=2592000"

// photoContentTypes maps photo extensions to content types.
var photoContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// audioContentTypes maps audio extensions to content types.
var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
}

// MediaHandler handles media upload, retrieval and maintenance requests
type MediaHandler struct {
	files   *services.FileStore
	cleanup *services.CleanupService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(files *services.FileStore, cleanup *services.CleanupService) *MediaHandler {
	return &MediaHandler{files: files, cleanup: cleanup}
}

// UploadPhoto handles POST /api/v1/media/upload/photo
func (h *MediaHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, models.MediaPhoto)
}

// UploadAudio handles POST /api/v1/media/upload/audio
func (h *MediaHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, models.MediaAudio)
}

// upload accepts a single multipart file under the "file" field.
func (h *MediaHandler) upload(w http.ResponseWriter, r *http.Request, kind models.MediaKind) {
	// Extra headroom for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxBytes()+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	saved, err := h.files.Save(kind, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedType) || errors.Is(err, services.ErrFileTooLarge) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to store upload")
		respondError(w, fmt.Sprintf("Failed to upload %s", kind), http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("kind", string(kind)).
		Str("filename", saved.Filename).
		Int64("size", saved.Size).
		Bool("authenticated", middleware.IsAuthenticated(r.Context())).
		Msg("Upload successful")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"url":      saved.URL,
		"filename": saved.Filename,
		"size":     saved.Size,
	})
}

// ServePhoto handles GET /api/v1/media/upload/photo/{filename}
func (h *MediaHandler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	f, info, ok := h.openMedia(w, models.MediaPhoto, filename)
	if !ok {
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := photoContentTypes[ext]
	if !ok {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

// ServeAudio handles GET /api/v1/media/upload/audio/{filename}.
// Byte-range requests get a 206 with the requested window so clients
// can seek during playback; requests without a Range header get the
// whole file plus Accept-Ranges so they know seeking is available.
func (h *MediaHandler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	f, info, ok := h.openMedia(w, models.MediaAudio, filename)
	if !ok {
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := audioContentTypes[ext]
	if !ok {
		contentType = "audio/mpeg"
	}

	size := info.Size()
	rangeHeader := r.Header.Get("Range")

	if rangeHeader == "" {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(http.StatusOK)
		io.Copy(w, f)
		return
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		respondError(w, "Requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to seek audio file")
		respondError(w, "Failed to serve audio", http.StatusInternalServerError)
		return
	}

	length := end - start + 1
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	io.CopyN(w, f, length)
}

// openMedia validates the filename and opens the file, writing the
// error response itself when it returns ok=false. The traversal check
// runs before any filesystem access.
func (h *MediaHandler) openMedia(w http.ResponseWriter, kind models.MediaKind, filename string) (*os.File, os.FileInfo, bool) {
	if !services.ValidFilename(filename) {
		respondError(w, "Invalid filename", http.StatusBadRequest)
		return nil, nil, false
	}

	path, err := h.files.Resolve(kind, filename)
	if err != nil {
		respondError(w, "Invalid filename", http.StatusBadRequest)
		return nil, nil, false
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, "File not found", http.StatusNotFound)
			return nil, nil, false
		}
		log.Error().Err(err).Str("filename", filename).Msg("Failed to open media file")
		respondError(w, "Failed to serve file", http.StatusInternalServerError)
		return nil, nil, false
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		log.Error().Err(err).Str("filename", filename).Msg("Failed to stat media file")
		respondError(w, "Failed to serve file", http.StatusInternalServerError)
		return nil, nil, false
	}

	return f, info, true
}

// parseRange parses a single "bytes=start-end" range against the file
// size. An omitted end, or one past EOF, clamps to size-1. A malformed
// spec, start > end, or start beyond EOF is an error, which callers
// turn into 416.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range")
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start")
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed range end")
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return 0, 0, fmt.Errorf("range out of bounds")
	}
	return start, end, nil
}

// DeletePhoto handles DELETE /api/v1/media/upload/photo/{filename}
func (h *MediaHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	h.deleteMedia(w, r, models.MediaPhoto)
}

// DeleteAudio handles DELETE /api/v1/media/upload/audio/{filename}
func (h *MediaHandler) DeleteAudio(w http.ResponseWriter, r *http.Request) {
	h.deleteMedia(w, r, models.MediaAudio)
}

func (h *MediaHandler) deleteMedia(w http.ResponseWriter, r *http.Request, kind models.MediaKind) {
	filename := chi.URLParam(r, "filename")

	if !services.ValidFilename(filename) {
		log.Warn().Str("filename", filename).Msg("Suspicious filename in delete request")
		respondError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	deleted, err := h.files.Delete(kind, filename)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to delete media file")
		respondError(w, fmt.Sprintf("Failed to delete %s", kind), http.StatusInternalServerError)
		return
	}
	if !deleted {
		respondError(w, "File not found", http.StatusNotFound)
		return
	}

	log.Info().Str("kind", string(kind)).Str("filename", filename).Msg("Media deleted via API")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /api/v1/media/list
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.files.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list media files")
		respondError(w, "Failed to get media list", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, listing)
}

// Cleanup handles GET /api/v1/media/cleanup
func (h *MediaHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.cleanup.Sweep(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to run media cleanup")
		respondError(w, "Failed to cleanup media", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"deletedCount": result.DeletedCount,
		"deletedFiles": result.DeletedFiles,
	})
}
