package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"life-story-backend/internal/models"
	"life-story-backend/internal/repository"
	"life-story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MemoriesHandler handles visitor-memory HTTP requests
type MemoriesHandler struct {
	memories *services.MemoryService
}

// NewMemoriesHandler creates a new memories handler
func NewMemoriesHandler(memories *services.MemoryService) *MemoriesHandler {
	return &MemoriesHandler{memories: memories}
}

type createMemoryRequest struct {
	Author string  `json:"author"`
	Text   string  `json:"text"`
	Photo  *string `json:"photo"`
}

// memoryView is the client projection of a memory.
type memoryView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Photo     *string   `json:"photo"`
	Timestamp time.Time `json:"timestamp"`
	Approved  bool      `json:"approved"`
}

// List handles GET /api/v1/memories. The public listing reports every
// memory with approved hard-coded to true, matching the historical
// behavior of this endpoint; the real approval state is only exposed
// on /memories/all.
func (h *MemoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	memories, err := h.memories.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve memories")
		respondError(w, "Failed to retrieve memories", http.StatusInternalServerError)
		return
	}

	views := make([]memoryView, 0, len(memories))
	for _, m := range memories {
		v := memoryViewOf(m)
		v.Approved = true
		views = append(views, v)
	}

	respondJSON(w, http.StatusOK, map[string][]memoryView{"memories": views})
}

// ListAll handles GET /api/v1/memories/all
func (h *MemoriesHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	memories, err := h.memories.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve all memories")
		respondError(w, "Failed to retrieve memories", http.StatusInternalServerError)
		return
	}

	views := make([]memoryView, 0, len(memories))
	for _, m := range memories {
		views = append(views, memoryViewOf(m))
	}

	respondJSON(w, http.StatusOK, map[string][]memoryView{"memories": views})
}

// Create handles POST /api/v1/memories
func (h *MemoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, "Text is required", http.StatusBadRequest)
		return
	}

	memory, err := h.memories.Create(r.Context(), req.Author, req.Text, req.Photo)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create memory")
		respondError(w, "Failed to submit memory", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("id", memory.ID).
		Str("author", memory.Author).
		Bool("has_photo", memory.PhotoURL != nil).
		Msg("New memory submitted")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"memory":  memoryViewOf(memory),
	})
}

// Approve handles PUT /api/v1/memories/{id}/approve
func (h *MemoriesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.memories.Approve(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Memory not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to approve memory")
		respondError(w, "Failed to approve memory", http.StatusInternalServerError)
		return
	}

	log.Info().Str("id", id).Msg("Memory approved")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"memory": map[string]interface{}{
			"id":       id,
			"approved": true,
		},
	})
}

// Delete handles DELETE /api/v1/memories/{id}
func (h *MemoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.memories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Memory not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to delete memory")
		respondError(w, "Failed to delete memory", http.StatusInternalServerError)
		return
	}

	log.Info().Str("id", id).Msg("Memory deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func memoryViewOf(m *models.Memory) memoryView {
	return memoryView{
		ID:        m.ID,
		Author:    m.Author,
		Text:      m.Text,
		Photo:     m.PhotoURL,
		Timestamp: m.CreatedAt,
		Approved:  m.Approved,
	}
}
