package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"life-story-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "family-secret"

func newTestTokens(t *testing.T) *services.TokenService {
	t.Helper()
	tokens, err := services.NewTokenService(testSecret, bcrypt.MinCost)
	require.NoError(t, err)
	return tokens
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_Verify(t *testing.T) {
	tokens := newTestTokens(t)
	h := NewAuthHandler(tokens)

	rec := postJSON(t, h.Verify, "/api/v1/auth/verify", `{"privateKey":"family-secret"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	valid, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.True(t, valid, "issued token should validate")
}

func TestAuthHandler_VerifyWrongKey(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	rec := postJSON(t, h.Verify, "/api/v1/auth/verify", `{"privateKey":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Invalid private key", body["error"])
}

func TestAuthHandler_VerifyMissingKey(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	rec := postJSON(t, h.Verify, "/api/v1/auth/verify", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"privateKey is required"}`, rec.Body.String())
}

func TestAuthHandler_VerifyBadJSON(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	rec := postJSON(t, h.Verify, "/api/v1/auth/verify", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestAuthHandler_Check(t *testing.T) {
	tokens := newTestTokens(t)
	h := NewAuthHandler(tokens)

	token, err := tokens.Issue(testSecret)
	require.NoError(t, err)

	rec := postJSON(t, h.Check, "/api/v1/auth/check", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())
}

func TestAuthHandler_CheckWrongToken(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	// Well-formed hash that was never issued for our secret.
	token := "$2b$10$" + strings.Repeat("a", 53)
	rec := postJSON(t, h.Check, "/api/v1/auth/check", `{"token":"`+token+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":false}`, rec.Body.String())
}

func TestAuthHandler_CheckMalformedToken(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	rec := postJSON(t, h.Check, "/api/v1/auth/check", `{"token":"garbage"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Invalid token format", body["error"])
}

func TestAuthHandler_CheckMissingToken(t *testing.T) {
	h := NewAuthHandler(newTestTokens(t))

	rec := postJSON(t, h.Check, "/api/v1/auth/check", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Token is required", body["error"])
}
