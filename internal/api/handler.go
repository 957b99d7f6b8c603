package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	errx "github.com/ai-tutor-orchestrator/server/internal/core/error"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

const (
	ServiceName    = "AI Tutor Orchestrator"
	ServiceVersion = "1.0.0"

	maxChatBodySize = 1 << 20 // 1MB
)

// ChatRunner runs one chat request through the tutor pipeline.
type ChatRunner interface {
	Invoke(ctx context.Context, in model.ChatRequest) (model.ChatResponse, error)
}

type Deps struct {
	Runner   ChatRunner
	Profiles model.ProfileRepository
	Sessions model.SessionRepository // optional
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/", handleRoot())
	r.Get("/health", handleHealth())
	r.Post("/chat", handleChat(deps))
	r.Get("/user/{user_id}", handleGetUser(deps))
	r.Get("/sessions/{session_id}", handleGetSession(deps))

	return r
}

// chatPayload keeps chat_history as a pointer so a missing field is distinguishable from [].
type chatPayload struct {
	UserID      string           `json:"user_id"`
	SessionID   string           `json:"session_id"`
	Message     string           `json:"message"`
	ChatHistory *[]model.Message `json:"chat_history"`
}

func (p chatPayload) validate() (model.ChatRequest, error) {
	switch {
	case p.UserID == "":
		return model.ChatRequest{}, errx.Validation(errors.New("user_id is required"))
	case p.SessionID == "":
		return model.ChatRequest{}, errx.Validation(errors.New("session_id is required"))
	case p.Message == "":
		return model.ChatRequest{}, errx.Validation(errors.New("message is required"))
	case p.ChatHistory == nil:
		return model.ChatRequest{}, errx.Validation(errors.New("chat_history is required"))
	}
	for i, m := range *p.ChatHistory {
		if !m.Role.Valid() {
			return model.ChatRequest{}, errx.Validation(fmt.Errorf("chat_history[%d].role must be 'user' or 'assistant'", i))
		}
	}
	return model.ChatRequest{
		UserID:      p.UserID,
		SessionID:   p.SessionID,
		Message:     p.Message,
		ChatHistory: *p.ChatHistory,
	}, nil
}

func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": ServiceName,
			"version": ServiceVersion,
			"features": []string{
				"Educational context analysis",
				"Intent classification",
				"Parameter extraction",
				"Multi-tool orchestration",
			},
		})
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "orchestrator"})
	}
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var payload chatPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid request body: %v", err)
			return
		}
		req, err := payload.validate()
		if err != nil {
			httpError(w, errx.StatusOf(err), "%v", errors.Unwrap(err))
			return
		}

		resp, err := deps.Runner.Invoke(r.Context(), req)
		if err != nil {
			logx.Error().Err(err).Str("user_id", req.UserID).Str("session_id", req.SessionID).Msg("chat request failed")
			httpError(w, http.StatusInternalServerError, "Internal server error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetUser(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		profile, err := deps.Profiles.GetProfile(r.Context(), userID)
		if errors.Is(err, model.ErrProfileNotFound) {
			httpError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			logx.Error().Err(err).Str("user_id", userID).Msg("profile lookup failed")
			httpError(w, errx.StatusOf(err), "Internal server error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Sessions == nil {
			httpError(w, http.StatusNotFound, "Session store not configured")
			return
		}
		sessionID := chi.URLParam(r, "session_id")
		turns, err := deps.Sessions.LoadTurns(r.Context(), sessionID)
		if err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Msg("session lookup failed")
			httpError(w, errx.StatusOf(err), "Internal server error: %v", err)
			return
		}
		if turns == nil {
			turns = []model.SessionTurn{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "turns": turns})
	}
}

// CORS allows any origin, method and header.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to write response body")
	}
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"detail": fmt.Sprintf(format, args...)})
}
