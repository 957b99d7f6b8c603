package model

import (
	pkgredis "github.com/ai-tutor-orchestrator/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the orchestrator,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Server ServerConfig
	Redis  pkgredis.Config

	// LLM provider; an empty key leaves the intent and parameter stages rule-based
	APIKey  string `envconfig:"GOOGLE_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
	LLM     LLMConfig

	Tools    ToolsConfig
	Profiles ProfileConfig
	Sessions SessionConfig
}
