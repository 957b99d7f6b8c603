package intents

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/prompts"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/testutil"
)

func vars(msg string) prompts.Vars {
	return prompts.Vars{Message: msg, Context: model.DefaultEducationalContext()}
}

func TestClassifyKeywords(t *testing.T) {
	cases := []struct {
		msg  string
		want model.Intent
	}{
		{"Make me some flashcards on cells", model.IntentFlashcard},
		{"I need to memorize the periodic table", model.IntentFlashcard},
		{"Can you write a summary of the French Revolution?", model.IntentNote},
		{"Write notes explaining photosynthesis", model.IntentNote},
		{"Explain how photosynthesis works", model.IntentConcept},
		{"What is an integral?", model.IntentConcept},
		{"Give me a quiz on fractions", model.IntentQuiz},
		{"I want some exercises", model.IntentQuiz},
		{"I want to practice terms for chemistry", model.IntentFlashcard},
		{"Hello there", model.IntentUnknown},
		{"", model.IntentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyKeywords(tc.msg))
		})
	}
}

func TestParseReply(t *testing.T) {
	cases := map[string]model.Intent{
		"flashcard_generator":   model.IntentFlashcard,
		"  NOTE_MAKER\n":        model.IntentNote,
		"concept_explainer":     model.IntentConcept,
		"I would explain it":    model.IntentConcept,
		"quiz_generator":        model.IntentQuiz,
		"practice":              model.IntentQuiz,
		"questions would help":  model.IntentQuiz,
		"note or quiz, unclear": model.IntentNote,
	}
	for reply, want := range cases {
		got, ok := ParseReply(reply)
		assert.True(t, ok, reply)
		assert.Equal(t, want, got, reply)
	}

	_, ok := ParseReply("unknown")
	assert.False(t, ok)
	_, ok = ParseReply("   ")
	assert.False(t, ok)
}

func TestClassify_ModelReply(t *testing.T) {
	fake := testutil.NewChatModel(testutil.Reply{
		Content: "quiz_generator",
		Usage:   &schema.TokenUsage{PromptTokens: 1000, CompletionTokens: 10, TotalTokens: 1010},
	})
	c := NewClassifier(fake, "gemini-2.5-flash")

	res := c.Classify(context.Background(), vars("Hello there"))
	assert.Equal(t, model.IntentQuiz, res.Intent)
	assert.Equal(t, SourceModel, res.Source)
	assert.Greater(t, res.CostUSD, 0.0)

	require.Equal(t, 1, fake.Calls())
	in := fake.LastInput()
	require.Len(t, in, 1)
	assert.Contains(t, in[0].Content, "Hello there")
}

func TestClassify_FallsBackToKeywords(t *testing.T) {
	ctx := context.Background()

	t.Run("model error", func(t *testing.T) {
		c := NewClassifier(testutil.NewChatModel(testutil.Reply{Err: errors.New("quota")}), "m")
		res := c.Classify(ctx, vars("make flashcards about volcanoes"))
		assert.Equal(t, model.IntentFlashcard, res.Intent)
		assert.Equal(t, SourceKeywords, res.Source)
	})

	t.Run("unmatched reply", func(t *testing.T) {
		c := NewClassifier(testutil.NewChatModel(testutil.Reply{Content: "I am not sure"}), "m")
		res := c.Classify(ctx, vars("Explain how photosynthesis works"))
		assert.Equal(t, model.IntentConcept, res.Intent)
		assert.Equal(t, SourceKeywords, res.Source)
	})

	t.Run("no model", func(t *testing.T) {
		c := NewClassifier(nil, "")
		res := c.Classify(ctx, vars("good morning"))
		assert.Equal(t, model.IntentUnknown, res.Intent)
	})

	t.Run("nil classifier", func(t *testing.T) {
		var c *Classifier
		assert.Equal(t, model.IntentQuiz, c.Classify(ctx, vars("quiz me")).Intent)
	})
}
