package handlers

import (
	"net/http"
	"time"

	"life-story-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ExportHandler handles data export requests
type ExportHandler struct {
	lifeStory *services.LifeStoryService
	memories  *services.MemoryService
}

// NewExportHandler creates a new export handler
func NewExportHandler(lifeStory *services.LifeStoryService, memories *services.MemoryService) *ExportHandler {
	return &ExportHandler{lifeStory: lifeStory, memories: memories}
}

type exportAnswer struct {
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	HasPhoto   bool      `json:"hasPhoto"`
	HasAudio   bool      `json:"hasAudio"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type exportMemory struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	HasPhoto  bool      `json:"hasPhoto"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportPDF handles GET /api/v1/export/pdf. It returns a JSON snapshot
// of all answers and approved memories; actual PDF rendering has never
// been implemented.
func (h *ExportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	answers, err := h.lifeStory.AllAnswers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Export failed to collect answers")
		respondError(w, "Failed to export data", http.StatusInternalServerError)
		return
	}

	memories, err := h.memories.ListApproved(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Export failed to collect memories")
		respondError(w, "Failed to export data", http.StatusInternalServerError)
		return
	}

	exportAnswers := make([]exportAnswer, 0, len(answers))
	for _, a := range answers {
		exportAnswers = append(exportAnswers, exportAnswer{
			QuestionID: a.QuestionID,
			Text:       a.Text,
			HasPhoto:   a.PhotoURL != nil,
			HasAudio:   a.AudioURL != nil,
			UpdatedAt:  a.UpdatedAt,
		})
	}

	exportMemories := make([]exportMemory, 0, len(memories))
	for _, m := range memories {
		exportMemories = append(exportMemories, exportMemory{
			Author:    m.Author,
			Text:      m.Text,
			HasPhoto:  m.PhotoURL != nil,
			CreatedAt: m.CreatedAt,
		})
	}

	log.Info().
		Int("answers_count", len(exportAnswers)).
		Int("memories_count", len(exportMemories)).
		Msg("Export requested")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exportDate": time.Now().UTC().Format(time.RFC3339),
		"lifeStory": map[string]interface{}{
			"answers":      exportAnswers,
			"totalAnswers": len(exportAnswers),
		},
		"memories": map[string]interface{}{
			"items":         exportMemories,
			"totalMemories": len(exportMemories),
		},
	})
}
