package responses

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

const (
	UnknownIntentMessage = "I understand you need help with learning. Could you please specify if you'd like flashcards, notes, concept explanations, or practice questions?"

	defaultAdaptationNote = "Tailored to your learning preferences."
	unknownErrorText      = "Unknown error"
	noResponseText        = "No response from tool"
)

var emotionAdaptations = map[model.EmotionalState]string{
	model.EmotionAnxious:  "simplified for comfort",
	model.EmotionConfused: "broken down into simpler concepts",
	model.EmotionTired:    "made concise for easy digestion",
}

var styleAdaptations = map[model.TeachingStyle]string{
	model.TeachingVisual:   "enhanced with visual elements",
	model.TeachingSocratic: "structured to encourage thinking",
}

// Format renders the final user-facing reply.
func Format(intent model.Intent, resp *model.ToolResponse, ectx model.EducationalContext) string {
	if intent == model.IntentUnknown {
		return UnknownIntentMessage
	}
	if resp == nil {
		return failure(noResponseText)
	}
	if !resp.Success {
		msg := resp.Error
		if strings.TrimSpace(msg) == "" {
			msg = unknownErrorText
		}
		return failure(msg)
	}

	data := resp.Data
	if data == nil {
		data = map[string]any{}
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		body = []byte(fmt.Sprintf("%v", data))
	}

	return fmt.Sprintf(
		"I've generated %s for you, adapted to your learning needs.\n%s\nHere are your results:\n\n%s",
		intent.DisplayName(), AdaptationNote(ectx), body,
	)
}

// AdaptationNote lists the emotional adaptation first, then the style one.
func AdaptationNote(ectx model.EducationalContext) string {
	var parts []string
	if a, ok := emotionAdaptations[ectx.EmotionalState]; ok {
		parts = append(parts, a)
	}
	if a, ok := styleAdaptations[ectx.TeachingStyle]; ok {
		parts = append(parts, a)
	}
	if len(parts) == 0 {
		return defaultAdaptationNote
	}
	return "Adaptations: " + strings.Join(parts, ", ") + "."
}

func failure(msg string) string {
	return fmt.Sprintf("I encountered an issue while processing your request: %s. Please try again.", msg)
}
