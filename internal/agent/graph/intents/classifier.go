package intents

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/prompts"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// Source tells which path produced a classification.
type Source string

const (
	SourceModel    Source = "model"
	SourceKeywords Source = "keywords"
)

type Result struct {
	Intent  model.Intent
	Source  Source
	CostUSD float64
}

type rule struct {
	intent   model.Intent
	keywords []string
}

// replyTable maps substrings of the model reply to intents, checked in order.
var replyTable = []struct {
	keyword string
	intent  model.Intent
}{
	{"flashcard", model.IntentFlashcard},
	{"note", model.IntentNote},
	{"concept", model.IntentConcept},
	{"explain", model.IntentConcept},
	{"quiz", model.IntentQuiz},
	{"practice", model.IntentQuiz},
	{"question", model.IntentQuiz},
}

// keywordRules run over the raw message when the model cannot decide.
// Note rules precede concept rules, so "write notes explaining X" is a note request.
var keywordRules = []rule{
	{model.IntentFlashcard, []string{"flashcard", "memorize", "cards", "practice terms", "drill"}},
	{model.IntentNote, []string{"note", "notes", "summary", "outline", "write"}},
	{model.IntentConcept, []string{"explain", "concept", "understand", "what is", "how does", "tell me about"}},
	{model.IntentQuiz, []string{"quiz", "practice", "questions", "test", "problems", "exercises"}},
}

// Classifier picks the tool for a message. A nil chat model means keyword rules only.
type Classifier struct {
	chatModel einomodel.BaseChatModel
	modelName string
}

func NewClassifier(chatModel einomodel.BaseChatModel, modelName string) *Classifier {
	return &Classifier{chatModel: chatModel, modelName: modelName}
}

// Classify never fails; every error path ends in the keyword rules.
func (c *Classifier) Classify(ctx context.Context, vars prompts.Vars) Result {
	if c == nil || c.chatModel == nil {
		return Result{Intent: ClassifyKeywords(vars.Message), Source: SourceKeywords}
	}

	msgs, err := prompts.RenderIntent(ctx, vars)
	if err != nil {
		logx.Warn().Err(err).Msg("intent prompt render failed; using keyword rules")
		return Result{Intent: ClassifyKeywords(vars.Message), Source: SourceKeywords}
	}

	out, err := c.chatModel.Generate(ctx, msgs)
	if err != nil || out == nil {
		logx.Warn().Err(err).Str("model", c.modelName).Msg("intent model call failed; using keyword rules")
		return Result{Intent: ClassifyKeywords(vars.Message), Source: SourceKeywords}
	}

	cost, _ := model.MessageCost(out, c.modelName)
	if intent, ok := ParseReply(out.Content); ok {
		return Result{Intent: intent, Source: SourceModel, CostUSD: cost}
	}

	logx.Debug().Str("reply", out.Content).Msg("intent reply matched no tool; using keyword rules")
	return Result{Intent: ClassifyKeywords(vars.Message), Source: SourceKeywords, CostUSD: cost}
}

// ParseReply maps free-form model output onto an intent.
func ParseReply(reply string) (model.Intent, bool) {
	text := strings.ToLower(strings.TrimSpace(reply))
	if text == "" {
		return model.IntentUnknown, false
	}
	for _, e := range replyTable {
		if strings.Contains(text, e.keyword) {
			return e.intent, true
		}
	}
	return model.IntentUnknown, false
}

// ClassifyKeywords applies the ordered rule lists; the first list with a hit wins.
func ClassifyKeywords(message string) model.Intent {
	text := strings.ToLower(message)
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.intent
			}
		}
	}
	return model.IntentUnknown
}
