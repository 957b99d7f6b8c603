package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	LLM     *model.LLMConfig
}

// ChatModels holds the models used by the intent and parameter stages
type ChatModels struct {
	Intent    einomodel.BaseChatModel
	Params    einomodel.BaseChatModel
	ModelName string
}

// NewChatModels creates the Gemini chat models for intent classification and parameter extraction
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.LLM == nil {
		return nil, fmt.Errorf("llm config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	newModel := func(maxTokens int) (*gemini.ChatModel, error) {
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       config.LLM.Model,
			Temperature: &config.LLM.Temperature,
			MaxTokens:   &maxTokens,
			ThinkingConfig: &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(config.LLM.ThinkingBudget),
			},
		})
	}

	// Intent replies are a single tool name.
	intentModel, err := newModel(min(config.LLM.MaxTokens, 64))
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}

	paramsModel, err := newModel(config.LLM.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating parameter model")
		return nil, fmt.Errorf("error creating parameter model: %w", err)
	}

	return &ChatModels{
		Intent:    intentModel,
		Params:    paramsModel,
		ModelName: config.LLM.Model,
	}, nil
}
