package extractors

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/samber/lo"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/parsers"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/prompts"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

type Result struct {
	Parameters model.ExtractedParameters
	Fallback   bool
	CostUSD    float64
}

// Extractor turns a request into tool parameters. A nil chat model always yields fallbacks.
type Extractor struct {
	chatModel einomodel.BaseChatModel
	modelName string
}

func NewExtractor(chatModel einomodel.BaseChatModel, modelName string) *Extractor {
	return &Extractor{chatModel: chatModel, modelName: modelName}
}

// Extract never fails; any model or parse problem yields the tool's fallback map.
func (e *Extractor) Extract(ctx context.Context, intent model.Intent, vars prompts.Vars) Result {
	if !intent.IsTool() {
		return Result{Parameters: model.ExtractedParameters{}, Fallback: true}
	}
	if e == nil || e.chatModel == nil {
		return Result{Parameters: Fallback(intent), Fallback: true}
	}

	params, cost, err := e.extract(ctx, intent, vars)
	if err != nil {
		logx.Warn().Err(err).Str("intent", intent.String()).Msg("parameter extraction failed; using fallback parameters")
		return Result{Parameters: Fallback(intent), Fallback: true, CostUSD: cost}
	}
	return Result{Parameters: params, CostUSD: cost}
}

func (e *Extractor) extract(ctx context.Context, intent model.Intent, vars prompts.Vars) (model.ExtractedParameters, float64, error) {
	msgs, err := prompts.RenderParams(ctx, intent, vars)
	if err != nil {
		return nil, 0, err
	}
	out, err := e.chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, 0, fmt.Errorf("model call: %w", err)
	}
	if out == nil {
		return nil, 0, fmt.Errorf("model call: nil message")
	}
	cost, _ := model.MessageCost(out, e.modelName)

	obj, err := parsers.ParseJSONObject(out.Content)
	if err != nil {
		return nil, cost, err
	}
	return model.ExtractedParameters(obj), cost, nil
}

// fallbacks are the documented defaults per tool; values are scalars, so a shallow copy is independent.
var fallbacks = map[model.Intent]model.ExtractedParameters{
	model.IntentFlashcard: {
		"topic":            "general",
		"count":            5,
		"difficulty":       model.DifficultyMedium,
		"subject":          "general",
		"include_examples": true,
	},
	model.IntentNote: {
		"topic":             "general",
		"subject":           "general",
		"note_taking_style": "structured",
		"include_examples":  true,
		"include_analogies": false,
	},
	model.IntentConcept: {
		"concept_to_explain": "general concept",
		"current_topic":      "general",
		"desired_depth":      model.DifficultyIntermediate,
	},
	model.IntentQuiz: {
		"topic":         "general",
		"subject":       "general",
		"difficulty":    model.DifficultyIntermediate,
		"question_type": "practice",
		"num_questions": 10,
	},
}

// Fallback returns a fresh copy of the default parameters for a tool.
func Fallback(intent model.Intent) model.ExtractedParameters {
	return lo.Assign(model.ExtractedParameters{}, fallbacks[intent])
}
