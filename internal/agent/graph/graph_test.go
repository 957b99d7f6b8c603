package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/nodes"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/agent/repo"
	"github.com/ai-tutor-orchestrator/server/internal/testutil"
)

type toolServer struct {
	*httptest.Server
	hits atomic.Int32
	last atomic.Value // model.ToolRequest
}

func newToolServer(t *testing.T, handler func(w http.ResponseWriter, req model.ToolRequest)) *toolServer {
	t.Helper()
	ts := &toolServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		var req model.ToolRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ts.last.Store(req)
		handler(w, req)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func okHandler(data map[string]any) func(http.ResponseWriter, model.ToolRequest) {
	return func(w http.ResponseWriter, _ model.ToolRequest) {
		_ = json.NewEncoder(w).Encode(model.ToolResponse{Success: true, Data: data})
	}
}

type memorySessions struct {
	turns map[string][]model.SessionTurn
}

func (m *memorySessions) AppendTurn(_ context.Context, id string, turn model.SessionTurn) error {
	if m.turns == nil {
		m.turns = map[string][]model.SessionTurn{}
	}
	m.turns[id] = append(m.turns[id], turn)
	return nil
}

func (m *memorySessions) LoadTurns(_ context.Context, id string) ([]model.SessionTurn, error) {
	return m.turns[id], nil
}

func newRunner(t *testing.T, cfg Config) Runner {
	t.Helper()
	if cfg.Profiles == nil {
		cfg.Profiles = repo.NewMemoryProfileRepository(model.SampleProfiles()...)
	}
	if cfg.Tools.Timeout == 0 {
		cfg.Tools.Timeout = time.Second
	}
	r, err := BuildTutorGraph(context.Background(), cfg)
	require.NoError(t, err)
	return r
}

func chat(userID, message string) model.ChatRequest {
	return model.ChatRequest{
		UserID:      userID,
		SessionID:   "session-1",
		Message:     message,
		ChatHistory: []model.Message{{Role: model.RoleUser, Content: "Hi"}, {Role: model.RoleAssistant, Content: "Hello!"}},
	}
}

func TestGraph_FlashcardScenario(t *testing.T) {
	srv := newToolServer(t, okHandler(map[string]any{
		"flashcards": []any{map[string]any{"question": "What is photosynthesis?", "answer": "Light to sugar"}},
	}))
	sessions := &memorySessions{}
	r := newRunner(t, Config{Tools: model.ToolsConfig{FlashcardURL: srv.URL}, Sessions: sessions})

	out, err := r.Invoke(context.Background(), chat("student123", "I want to practice flashcards on photosynthesis for biology"))
	require.NoError(t, err)

	require.NotNil(t, out.ToolUsed)
	assert.Equal(t, "flashcard_generator", *out.ToolUsed)
	require.NotNil(t, out.EducationalContextUsed)
	assert.Equal(t, model.EmotionFocused, out.EducationalContextUsed.EmotionalState)
	assert.Equal(t, 6, out.EducationalContextUsed.MasteryLevel)
	assert.NotEmpty(t, out.Data["flashcards"])
	assert.Contains(t, out.Response, "I've generated flashcard generator for you")

	sent := srv.last.Load().(model.ToolRequest)
	assert.Equal(t, "flashcard_generator", sent.ToolName)
	assert.Equal(t, "Charlie", sent.UserInfo.Name)
	assert.Len(t, sent.ChatHistory, 2)
	assert.Equal(t, float64(5), sent.ExtractedParameters["count"])
	assert.Equal(t, model.EmotionFocused, sent.EducationalContext.EmotionalState)

	turns := sessions.turns["session-1"]
	require.Len(t, turns, 1)
	assert.Equal(t, "flashcard_generator", turns[0].ToolUsed)
	assert.NotEmpty(t, turns[0].RequestID)
}

func TestGraph_AnxiousVisualScenario(t *testing.T) {
	srv := newToolServer(t, okHandler(map[string]any{"explanation": "Tiny things behave oddly."}))
	r := newRunner(t, Config{Tools: model.ToolsConfig{ConceptExplainerURL: srv.URL}})

	out, err := r.Invoke(context.Background(), chat("student456", "Explain quantum mechanics to me"))
	require.NoError(t, err)

	assert.Equal(t, "concept_explainer", *out.ToolUsed)
	assert.Equal(t, model.EducationalContext{
		TeachingStyle:      model.TeachingVisual,
		EmotionalState:     model.EmotionAnxious,
		MasteryLevel:       3,
		InferredDifficulty: model.DifficultyEasy,
	}, *out.EducationalContextUsed)
	assert.Contains(t, out.Response, "Adaptations: simplified for comfort, enhanced with visual elements.")
}

func TestGraph_ToolTimeoutScenario(t *testing.T) {
	srv := newToolServer(t, func(w http.ResponseWriter, _ model.ToolRequest) {
		time.Sleep(300 * time.Millisecond)
	})
	r := newRunner(t, Config{Tools: model.ToolsConfig{QuizGeneratorURL: srv.URL, Timeout: 50 * time.Millisecond}})

	out, err := r.Invoke(context.Background(), chat("student789", "Give me a quiz on fractions"))
	require.NoError(t, err)

	assert.Equal(t, "quiz_generator", *out.ToolUsed)
	assert.Contains(t, out.Response, "I encountered an issue while processing your request")
	assert.Contains(t, out.Response, "Connection error:")
	assert.Nil(t, out.Data)
}

func TestGraph_UnknownIntentSkipsDispatch(t *testing.T) {
	srv := newToolServer(t, okHandler(map[string]any{}))
	all := model.ToolsConfig{FlashcardURL: srv.URL, NoteMakerURL: srv.URL, ConceptExplainerURL: srv.URL, QuizGeneratorURL: srv.URL}
	r := newRunner(t, Config{Tools: all})

	out, err := r.Invoke(context.Background(), chat("student123", "Good morning!"))
	require.NoError(t, err)

	assert.Equal(t, "unknown", *out.ToolUsed)
	assert.Nil(t, out.Data)
	assert.Equal(t, "I understand you need help with learning. Could you please specify if you'd like flashcards, notes, concept explanations, or practice questions?", out.Response)
	assert.Zero(t, srv.hits.Load())
}

func TestGraph_ExtractionFallbackOnBadModelOutput(t *testing.T) {
	srv := newToolServer(t, okHandler(map[string]any{"note_summary": "ok"}))
	intentModel := testutil.NewChatModel(testutil.Reply{Content: "note_maker"})
	paramsModel := testutil.NewChatModel(testutil.Reply{Content: "not json at all"})
	r := newRunner(t, Config{
		ChatModels: &nodes.ChatModels{Intent: intentModel, Params: paramsModel, ModelName: "gemini-2.5-flash"},
		Tools:      model.ToolsConfig{NoteMakerURL: srv.URL},
	})

	out, err := r.Invoke(context.Background(), chat("student123", "Good morning!"))
	require.NoError(t, err)

	assert.Equal(t, "note_maker", *out.ToolUsed)
	assert.Equal(t, 1, intentModel.Calls())
	assert.Equal(t, 1, paramsModel.Calls())
	sent := srv.last.Load().(model.ToolRequest)
	assert.Equal(t, "structured", sent.ExtractedParameters["note_taking_style"])
	assert.Equal(t, false, sent.ExtractedParameters["include_analogies"])
}

func TestGraph_ModelExtractedParameters(t *testing.T) {
	srv := newToolServer(t, okHandler(map[string]any{"questions": []any{"q1"}}))
	intentModel := testutil.NewChatModel(testutil.Reply{Err: errors.New("unavailable")})
	paramsModel := testutil.NewChatModel(testutil.Reply{
		Content: "```json\n{\"topic\":\"fractions\",\"subject\":\"math\",\"num_questions\":3}\n```",
	})
	r := newRunner(t, Config{
		ChatModels: &nodes.ChatModels{Intent: intentModel, Params: paramsModel, ModelName: "gemini-2.5-flash"},
		Tools:      model.ToolsConfig{QuizGeneratorURL: srv.URL},
	})

	out, err := r.Invoke(context.Background(), chat("student789", "quiz me on fractions"))
	require.NoError(t, err)

	assert.Equal(t, "quiz_generator", *out.ToolUsed)
	sent := srv.last.Load().(model.ToolRequest)
	assert.Equal(t, "fractions", sent.ExtractedParameters["topic"])
	assert.Equal(t, float64(3), sent.ExtractedParameters["num_questions"])
	assert.Equal(t, model.EmotionConfused, sent.EducationalContext.EmotionalState)
}

func TestGraph_UnconfiguredTool(t *testing.T) {
	r := newRunner(t, Config{})

	out, err := r.Invoke(context.Background(), chat("student123", "Write notes about the water cycle"))
	require.NoError(t, err)
	assert.Equal(t, "note_maker", *out.ToolUsed)
	assert.Contains(t, out.Response, "Tool not configured")
	assert.Nil(t, out.Data)
}

func TestGraph_UnknownUserFails(t *testing.T) {
	r := newRunner(t, Config{})

	_, err := r.Invoke(context.Background(), chat("ghost", "Explain gravity"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), model.ErrProfileNotFound.Error())
}

func TestBuildGraph_Validation(t *testing.T) {
	_, err := BuildTutorGraph(context.Background(), Config{})
	assert.Error(t, err)

	_, err = BuildGraph(context.Background(), nil)
	assert.Error(t, err)

	_, err = BuildGraph(context.Background(), &GraphConfig{Profiles: repo.NewMemoryProfileRepository()})
	assert.Error(t, err)
}
