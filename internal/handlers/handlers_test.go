package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/auth"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

const testSecret = "test-signing-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestEngine(t *testing.T) (*engine.Engine, *storage.MockStorage) {
	t.Helper()
	store := storage.NewMockStorage()
	responder := llm.NewResponder(llm.NewMockGenerator(), testLogger())
	scorer := scoring.NewScorer(rand.New(rand.NewSource(7)))
	return engine.New(store, responder, scorer, game.DefaultThreshold, testLogger()), store
}

func signedRequest(t *testing.T, v *auth.StaticVerifier, req game.InteractionRequest) *http.Request {
	t.Helper()
	req.Signature = v.Sign(req.Message, req.PlayerID)
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/v1/interact", bytes.NewReader(body))
}

func TestInteractHandler_Success(t *testing.T) {
	e, store := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	r := signedRequest(t, verifier, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "I have a tremendous business deal for you",
		SubmissionID: "0xtx1",
		BlockNumber:  7,
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result game.InteractionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.GreaterOrEqual(t, result.Score, game.MinScore)
	assert.LessOrEqual(t, result.Score, game.MaxScore)

	rec, err := store.GetResponse(r.Context(), "0xtx1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "0xplayer", rec.PlayerID)
}

func TestInteractHandler_MethodNotAllowed(t *testing.T) {
	e, _ := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/interact", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestInteractHandler_InvalidBody(t *testing.T) {
	e, _ := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/v1/interact", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInteractHandler_MissingFields(t *testing.T) {
	e, _ := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	body, err := json.Marshal(game.InteractionRequest{Message: "no player here"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/interact", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInteractHandler_BadSignature(t *testing.T) {
	e, store := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	body, err := json.Marshal(game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "an unsigned persuasion attempt",
		Signature:    "deadbeef",
		SubmissionID: "0xtx1",
	})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/interact", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, store.StoreResponseCalls, "rejected requests never reach storage")
}

func TestInteractHandler_ScoreQuerySkipsSignature(t *testing.T) {
	e, store := newTestEngine(t)
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	body, err := json.Marshal(game.InteractionRequest{PlayerID: "0xplayer"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/interact", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var result game.InteractionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, game.DefaultScore, result.Score)
	assert.Equal(t, 0, store.StoreResponseCalls)
}

func TestInteractHandler_EngineFailure(t *testing.T) {
	e, store := newTestEngine(t)
	store.SetStoreResponseError(errors.New("backend down"))
	verifier, err := auth.NewStaticVerifier(testSecret)
	require.NoError(t, err)
	h := NewInteractHandler(e, verifier, testLogger())

	r := signedRequest(t, verifier, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "a message that cannot be recorded",
		SubmissionID: "0xtx1",
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var result game.InteractionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestScoreHandler(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 73))
	h := NewScoreHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/score/0xplayer", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ScoreResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "0xplayer", resp.PlayerID)
	assert.Equal(t, 73, resp.Score)
	assert.Equal(t, game.GateLocked, resp.Gate)
	assert.False(t, resp.GameWon)
}

func TestScoreHandler_UnknownPlayerDefaults(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewScoreHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/score/0xstranger", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ScoreResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, game.DefaultScore, resp.Score)
}

func TestScoreHandler_MissingPlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewScoreHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/score/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHandler_MethodNotAllowed(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewScoreHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/v1/score/0xplayer", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestScoreHandler_RejectsNestedPath(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewScoreHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/score/a/b", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "slashes")
}

func TestResetHandler(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 100))

	// Arm the gate so the reset has real state to clear.
	result := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "tremendous amazing deal money billion profit button press reward",
		SubmissionID: "0xsub-reset",
	})
	require.True(t, result.Success)
	require.Equal(t, game.GateArmed, e.Gate("0xplayer"))

	h := NewResetHandler(e, testLogger())
	r := httptest.NewRequest(http.MethodPost, "/v1/reset/0xplayer", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ScoreResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "0xplayer", resp.PlayerID)
	assert.Equal(t, game.DefaultScore, resp.Score)
	assert.Equal(t, game.GateLocked, resp.Gate)
	assert.False(t, resp.GameWon)
}

func TestResetHandler_StorageFailure(t *testing.T) {
	e, store := newTestEngine(t)
	store.SetSetScoreError(errors.New("redis down"))
	h := NewResetHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/v1/reset/0xplayer", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResetHandler_MethodNotAllowed(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewResetHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/v1/reset/0xplayer", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestResetHandler_MissingPlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewResetHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/v1/reset/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetHandler_RejectsNestedPath(t *testing.T) {
	e, _ := newTestEngine(t)
	h := NewResetHandler(e, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/v1/reset/a/b", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name            string
		setupStorage    func() storage.Storage
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
	}{
		{
			name: "healthy",
			setupStorage: func() storage.Storage {
				return storage.NewMockStorage()
			},
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
		},
		{
			name: "unhealthy storage",
			setupStorage: func() storage.Storage {
				mock := storage.NewMockStorage()
				mock.SetPingError(errors.New("connection failed"))
				return mock
			},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.setupStorage(), testLogger())

			r := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, tt.expectedStorage, resp.Components["storage"])
			assert.Equal(t, "persuasion-engine", resp.Service)
		})
	}
}
