package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/agent/repo"
)

type stubRunner struct {
	calls int
	resp  model.ChatResponse
	err   error
	last  model.ChatRequest
}

func (s *stubRunner) Invoke(_ context.Context, in model.ChatRequest) (model.ChatResponse, error) {
	s.calls++
	s.last = in
	return s.resp, s.err
}

type stubSessions struct{}

func (stubSessions) AppendTurn(context.Context, string, model.SessionTurn) error { return nil }
func (stubSessions) LoadTurns(_ context.Context, id string) ([]model.SessionTurn, error) {
	if id == "broken" {
		return nil, errors.New("redis down")
	}
	return []model.SessionTurn{{UserMessage: "hi", Response: "hello", ToolUsed: "unknown"}}, nil
}

func newTestHandler(runner ChatRunner, sessions model.SessionRepository) http.Handler {
	return NewHandler(Deps{
		Runner:   runner,
		Profiles: repo.NewMemoryProfileRepository(model.SampleProfiles()...),
		Sessions: sessions,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndRoot(t *testing.T) {
	h := newTestHandler(&stubRunner{}, nil)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "service": "orchestrator"}, decode(t, rec))

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ServiceVersion, decode(t, rec)["version"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChat_Validation(t *testing.T) {
	runner := &stubRunner{}
	h := newTestHandler(runner, nil)

	cases := map[string]string{
		"empty message":   `{"user_id":"student123","session_id":"s","message":"","chat_history":[]}`,
		"empty user":      `{"user_id":"","session_id":"s","message":"hi","chat_history":[]}`,
		"missing session": `{"user_id":"student123","message":"hi","chat_history":[]}`,
		"missing history": `{"user_id":"student123","session_id":"s","message":"hi"}`,
		"bad role":        `{"user_id":"student123","session_id":"s","message":"hi","chat_history":[{"role":"system","content":"x"}]}`,
		"malformed":       `{"user_id":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/chat", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["detail"])
		})
	}
	assert.Zero(t, runner.calls)
}

func TestChat_Success(t *testing.T) {
	tool := "note_maker"
	ectx := model.DefaultEducationalContext()
	runner := &stubRunner{resp: model.ChatResponse{
		Response:               "done",
		ToolUsed:               &tool,
		Data:                   map[string]any{"topic": "x"},
		EducationalContextUsed: &ectx,
	}}
	h := newTestHandler(runner, nil)

	rec := do(t, h, http.MethodPost, "/chat",
		`{"user_id":"student123","session_id":"s1","message":"notes please","chat_history":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "done", out["response"])
	assert.Equal(t, "note_maker", out["tool_used"])
	assert.Equal(t, "focused", out["educational_context_used"].(map[string]any)["emotional_state"])
	assert.Equal(t, "s1", runner.last.SessionID)
	assert.Len(t, runner.last.ChatHistory, 1)
}

func TestChat_WhitespaceFieldsAccepted(t *testing.T) {
	runner := &stubRunner{}
	h := newTestHandler(runner, nil)

	rec := do(t, h, http.MethodPost, "/chat",
		`{"user_id":"student123","session_id":" ","message":" ","chat_history":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, " ", runner.last.Message)
}

func TestChat_PipelineFailure(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("load user profile: %w", model.ErrProfileNotFound)}
	h := newTestHandler(runner, nil)

	rec := do(t, h, http.MethodPost, "/chat",
		`{"user_id":"ghost","session_id":"s1","message":"hi","chat_history":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error: load user profile: user profile not found", decode(t, rec)["detail"])
}

func TestGetUser(t *testing.T) {
	h := newTestHandler(&stubRunner{}, nil)

	rec := do(t, h, http.MethodGet, "/user/student456", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode(t, rec)["name"])

	rec = do(t, h, http.MethodGet, "/user/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["detail"])
}

func TestGetSession(t *testing.T) {
	rec := do(t, newTestHandler(&stubRunner{}, nil), http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h := newTestHandler(&stubRunner{}, stubSessions{})
	rec = do(t, h, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "s1", out["session_id"])
	assert.Len(t, out["turns"], 1)

	rec = do(t, h, http.MethodGet, "/sessions/broken", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(&stubRunner{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
}

// End to end through the real graph with rule-based stages.
func TestChat_RealGraphUnknownIntent(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository(model.SampleProfiles()...)
	runner, err := graph.BuildTutorGraph(context.Background(), graph.Config{Profiles: profiles})
	require.NoError(t, err)
	h := NewHandler(Deps{Runner: runner, Profiles: profiles})

	rec := do(t, h, http.MethodPost, "/chat",
		`{"user_id":"student123","session_id":"s1","message":"hello there","chat_history":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "unknown", out["tool_used"])
	assert.Nil(t, out["data"])

	rec = do(t, h, http.MethodPost, "/chat",
		`{"user_id":"ghost","session_id":"s1","message":"hello there","chat_history":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChat_RealGraphToolFailureHasNullData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	profiles := repo.NewMemoryProfileRepository(model.SampleProfiles()...)
	runner, err := graph.BuildTutorGraph(context.Background(), graph.Config{
		Profiles: profiles,
		Tools:    model.ToolsConfig{QuizGeneratorURL: srv.URL},
	})
	require.NoError(t, err)
	h := NewHandler(Deps{Runner: runner, Profiles: profiles})

	rec := do(t, h, http.MethodPost, "/chat",
		`{"user_id":"student789","session_id":"s1","message":"Give me a quiz on fractions","chat_history":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":null`)

	out := decode(t, rec)
	assert.Equal(t, "quiz_generator", out["tool_used"])
	assert.Contains(t, out["response"], "API server error: 500")
}
