package model

import "time"

// ================ Config ================
type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type LLMConfig struct {
	Model          string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"LLM_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	ThinkingBudget int32   `envconfig:"LLM_THINKING_BUDGET" default:"0"`
}

// ToolsConfig holds one base URL per tool service. Endpoints are fixed per deployment.
type ToolsConfig struct {
	FlashcardURL        string        `envconfig:"FLASHCARD_API_URL" default:"http://localhost:8001"`
	NoteMakerURL        string        `envconfig:"NOTE_MAKER_API_URL" default:"http://localhost:8002"`
	ConceptExplainerURL string        `envconfig:"CONCEPT_EXPLAINER_API_URL" default:"http://localhost:8003"`
	QuizGeneratorURL    string        `envconfig:"QUIZ_GENERATOR_API_URL" default:"http://localhost:8004"`
	Timeout             time.Duration `envconfig:"TOOL_TIMEOUT" default:"60s"`
}

// Endpoints maps each dispatchable intent to its configured base URL.
func (c ToolsConfig) Endpoints() map[Intent]string {
	return map[Intent]string{
		IntentFlashcard: c.FlashcardURL,
		IntentNote:      c.NoteMakerURL,
		IntentConcept:   c.ConceptExplainerURL,
		IntentQuiz:      c.QuizGeneratorURL,
	}
}

type ProfileConfig struct {
	Store      string        `envconfig:"PROFILE_STORE" default:"memory"`
	SQLitePath string        `envconfig:"PROFILE_SQLITE_PATH" default:"./tutor.db"`
	Seed       bool          `envconfig:"PROFILE_SEED" default:"true"`
	CacheTTL   time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"5m"`
}

type SessionConfig struct {
	TTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxTurns int           `envconfig:"SESSION_MAX_TURNS" default:"50"`
}
