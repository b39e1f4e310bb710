package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"life-story-backend/internal/middleware"
	"life-story-backend/internal/models"
	"life-story-backend/internal/repository"
	"life-story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// LifeStoryHandler handles life-story answer HTTP requests
type LifeStoryHandler struct {
	lifeStory *services.LifeStoryService
}

// NewLifeStoryHandler creates a new life-story handler
func NewLifeStoryHandler(lifeStory *services.LifeStoryService) *LifeStoryHandler {
	return &LifeStoryHandler{lifeStory: lifeStory}
}

type saveAnswerRequest struct {
	Text     string  `json:"text"`
	PhotoURL *string `json:"photoURL"`
	AudioURL *string `json:"audioURL"`
	Kind     string  `json:"kind"`
}

type updateAnswerRequest struct {
	Text     *string `json:"text"`
	PhotoURL *string `json:"photoURL"`
	AudioURL *string `json:"audioURL"`
}

// answerView is the client projection of a regular answer.
type answerView struct {
	Text      string    `json:"text"`
	PhotoURL  *string   `json:"photoURL"`
	AudioURL  *string   `json:"audioURL"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// memoView is the client projection of a memo.
type memoView struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// savedAnswerView is returned from save and update operations.
type savedAnswerView struct {
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	PhotoURL   *string   `json:"photoURL"`
	AudioURL   *string   `json:"audioURL"`
	Timestamp  time.Time `json:"timestamp"`
	Completed  bool      `json:"completed"`
}

// ListAnswers handles GET /api/v1/life-story/answers
func (h *LifeStoryHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	canEdit := middleware.IsAuthenticated(ctx)

	answers, memos, err := h.lifeStory.Answers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve answers")
		respondError(w, "Failed to retrieve answers", http.StatusInternalServerError)
		return
	}

	answersObj := make(map[string]answerView, len(answers))
	for _, a := range answers {
		answersObj[a.QuestionID] = answerView{
			Text:      a.Text,
			PhotoURL:  a.PhotoURL,
			AudioURL:  a.AudioURL,
			Timestamp: a.UpdatedAt,
			Completed: a.Completed,
		}
	}

	memosObj := make(map[string]memoView, len(memos))
	for _, m := range memos {
		memosObj[m.QuestionID] = memoView{
			Text:      m.Text,
			Timestamp: m.UpdatedAt,
			Completed: m.Completed,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"answers": answersObj,
		"memos":   memosObj,
		"canEdit": canEdit,
	})
}

// SaveAnswer handles POST /api/v1/life-story/answers/{questionId}
func (h *LifeStoryHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	var req saveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		respondError(w, "Text is required", http.StatusBadRequest)
		return
	}

	kind := models.AnswerKind(req.Kind)
	if req.Kind == "" {
		kind = models.KindAnswer
	}
	if !kind.Valid() {
		respondError(w, "Invalid kind, must be 'answer' or 'memo'", http.StatusBadRequest)
		return
	}

	answer, err := h.lifeStory.SaveAnswer(r.Context(), questionID, kind, req.Text, req.PhotoURL, req.AudioURL)
	if err != nil {
		log.Error().Err(err).Str("question_id", questionID).Msg("Failed to save answer")
		respondError(w, "Failed to save answer", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("question_id", questionID).
		Str("kind", string(kind)).
		Bool("has_photo", answer.PhotoURL != nil).
		Bool("has_audio", answer.AudioURL != nil).
		Msg("Answer saved")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"answer":  savedView(answer),
	})
}

// UpdateAnswer handles PUT /api/v1/life-story/answers/{questionId}
func (h *LifeStoryHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	var req updateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	answer, err := h.lifeStory.UpdateAnswer(r.Context(), questionID, services.UpdateAnswerParams{
		Text:     req.Text,
		PhotoURL: req.PhotoURL,
		AudioURL: req.AudioURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Answer not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("question_id", questionID).Msg("Failed to update answer")
		respondError(w, "Failed to update answer", http.StatusInternalServerError)
		return
	}

	log.Info().Str("question_id", questionID).Msg("Answer updated")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"answer":  savedView(answer),
	})
}

// DeleteAnswer handles DELETE /api/v1/life-story/answers/{questionId}
func (h *LifeStoryHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	if err := h.lifeStory.DeleteAnswer(r.Context(), questionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Answer not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("question_id", questionID).Msg("Failed to delete answer")
		respondError(w, "Failed to delete answer", http.StatusInternalServerError)
		return
	}

	log.Info().Str("question_id", questionID).Msg("Answer deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func savedView(a *models.Answer) savedAnswerView {
	return savedAnswerView{
		QuestionID: a.QuestionID,
		Text:       a.Text,
		PhotoURL:   a.PhotoURL,
		AudioURL:   a.AudioURL,
		Timestamp:  a.UpdatedAt,
		Completed:  a.Completed,
	}
}
