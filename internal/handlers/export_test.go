package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"life-story-backend/internal/models"
	"life-story-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHandler_ExportPDF(t *testing.T) {
	answers := newFakeAnswerStore()
	memories := newFakeMemoryStore()

	files, err := services.NewFileStore(t.TempDir(), 1024*1024)
	require.NoError(t, err)
	h := NewExportHandler(
		services.NewLifeStoryService(answers, files),
		services.NewMemoryService(memories, files),
	)

	photoURL := "/api/v1/media/upload/photo/x.png"
	ctx := context.Background()
	require.NoError(t, answers.Upsert(ctx, &models.Answer{
		ID: "1", QuestionID: "q1", Text: "an answer", PhotoURL: &photoURL, Completed: true,
	}))
	require.NoError(t, answers.Upsert(ctx, &models.Answer{
		ID: "2", QuestionID: "q2", Text: "plain answer", Completed: true,
	}))
	seedMemory(t, memories, "m1", "Aunt May", "approved story", true)
	seedMemory(t, memories, "m2", "Bob", "pending story", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/pdf", nil)
	rec := httptest.NewRecorder()
	h.ExportPDF(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["exportDate"])

	lifeStory, _ := body["lifeStory"].(map[string]interface{})
	require.NotNil(t, lifeStory)
	assert.Equal(t, float64(2), lifeStory["totalAnswers"])

	exported, _ := lifeStory["answers"].([]interface{})
	require.Len(t, exported, 2)
	first, _ := exported[0].(map[string]interface{})
	assert.Equal(t, "q1", first["questionId"])
	assert.Equal(t, true, first["hasPhoto"])
	assert.Equal(t, false, first["hasAudio"])

	memoriesObj, _ := body["memories"].(map[string]interface{})
	require.NotNil(t, memoriesObj)
	assert.Equal(t, float64(1), memoriesObj["totalMemories"], "only approved memories are exported")

	items, _ := memoriesObj["items"].([]interface{})
	require.Len(t, items, 1)
	item, _ := items[0].(map[string]interface{})
	assert.Equal(t, "Aunt May", item["author"])
}

func TestExportHandler_ExportPDFEmpty(t *testing.T) {
	files, err := services.NewFileStore(t.TempDir(), 1024*1024)
	require.NoError(t, err)
	h := NewExportHandler(
		services.NewLifeStoryService(newFakeAnswerStore(), files),
		services.NewMemoryService(newFakeMemoryStore(), files),
	)

	rec := httptest.NewRecorder()
	h.ExportPDF(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export/pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	lifeStory, _ := body["lifeStory"].(map[string]interface{})
	assert.Equal(t, float64(0), lifeStory["totalAnswers"])
	answers, ok := lifeStory["answers"].([]interface{})
	assert.True(t, ok, "answers should serialize as [] not null")
	assert.Empty(t, answers)
}
