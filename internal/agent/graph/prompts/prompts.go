package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

var (
	//go:embed template/intent_prompt.txt
	intentPrompt string

	//go:embed template/params_flashcard.txt
	flashcardParamsPrompt string
	//go:embed template/params_note.txt
	noteParamsPrompt string
	//go:embed template/params_concept.txt
	conceptParamsPrompt string
	//go:embed template/params_quiz.txt
	quizParamsPrompt string
)

var paramsPrompts = map[model.Intent]string{
	model.IntentFlashcard: flashcardParamsPrompt,
	model.IntentNote:      noteParamsPrompt,
	model.IntentConcept:   conceptParamsPrompt,
	model.IntentQuiz:      quizParamsPrompt,
}

// Vars are the request facts every prompt embeds.
type Vars struct {
	Message     string
	ChatHistory string
	UserInfo    string
	Context     model.EducationalContext
}

func (v Vars) toMap() map[string]any {
	return map[string]any{
		"Message":            v.Message,
		"ChatHistory":        v.ChatHistory,
		"UserInfo":           v.UserInfo,
		"EmotionalState":     string(v.Context.EmotionalState),
		"MasteryLevel":       v.Context.MasteryLevel,
		"TeachingStyle":      string(v.Context.TeachingStyle),
		"InferredDifficulty": v.Context.InferredDifficulty,
	}
}

// RenderIntent renders the intent classification prompt via an eino prompt
// component, which also emits prompt callbacks.
func RenderIntent(ctx context.Context, vars Vars) ([]*schema.Message, error) {
	return render(ctx, "intent", intentPrompt, vars)
}

// RenderParams renders the parameter extraction prompt for a tool intent.
func RenderParams(ctx context.Context, intent model.Intent, vars Vars) ([]*schema.Message, error) {
	tpl, ok := paramsPrompts[intent]
	if !ok {
		return nil, fmt.Errorf("no parameter prompt for intent %q", intent)
	}
	return render(ctx, "params_"+intent.String(), tpl, vars)
}

func render(ctx context.Context, name, text string, vars Vars) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(text),
	)
	msgs, err := tpl.Format(ctx, vars.toMap())
	if err != nil {
		return nil, fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs, nil
}
