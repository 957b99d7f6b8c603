package model

import "strings"

// Intent selects the downstream tool for a request.
type Intent string

const (
	IntentFlashcard Intent = "flashcard_generator"
	IntentNote      Intent = "note_maker"
	IntentConcept   Intent = "concept_explainer"
	IntentQuiz      Intent = "quiz_generator"
	IntentUnknown   Intent = "unknown"
)

// ToolIntents lists the dispatchable intents in routing order.
var ToolIntents = []Intent{IntentFlashcard, IntentNote, IntentConcept, IntentQuiz}

func (i Intent) String() string {
	return string(i)
}

// IsTool reports whether the intent maps to a tool service.
func (i Intent) IsTool() bool {
	switch i {
	case IntentFlashcard, IntentNote, IntentConcept, IntentQuiz:
		return true
	}
	return false
}

// DisplayName renders the intent for user-facing text ("flashcard generator").
func (i Intent) DisplayName() string {
	return strings.ReplaceAll(string(i), "_", " ")
}
