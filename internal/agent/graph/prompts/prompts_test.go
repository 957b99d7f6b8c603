package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

func testVars() Vars {
	return Vars{
		Message:     "Explain quantum mechanics to me",
		ChatHistory: "UserMessage(hi)",
		UserInfo:    "name=Alice grade=10",
		Context: model.EducationalContext{
			TeachingStyle:      model.TeachingVisual,
			EmotionalState:     model.EmotionAnxious,
			MasteryLevel:       3,
			InferredDifficulty: model.DifficultyEasy,
		},
	}
}

func TestRenderIntent(t *testing.T) {
	msgs, err := RenderIntent(context.Background(), testVars())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Message: Explain quantum mechanics to me")
	assert.Contains(t, msgs[0].Content, "Emotional State: anxious")
	assert.Contains(t, msgs[0].Content, "Mastery Level: 3")
	assert.Contains(t, msgs[0].Content, "Teaching Style: visual")
	assert.Contains(t, msgs[0].Content, "respond with ONLY the tool name")
}

func TestRenderParams_AllTools(t *testing.T) {
	for _, intent := range model.ToolIntents {
		msgs, err := RenderParams(context.Background(), intent, testVars())
		require.NoError(t, err, intent)
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Content, "Explain quantum mechanics to me")
		assert.Contains(t, msgs[0].Content, "JSON object")
	}
}

func TestRenderParams_UnknownIntent(t *testing.T) {
	_, err := RenderParams(context.Background(), model.IntentUnknown, testVars())
	assert.Error(t, err)
}
