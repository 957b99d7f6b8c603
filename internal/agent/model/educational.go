package model

import "fmt"

type TeachingStyle string

const (
	TeachingDirect           TeachingStyle = "direct"
	TeachingSocratic         TeachingStyle = "socratic"
	TeachingVisual           TeachingStyle = "visual"
	TeachingFlippedClassroom TeachingStyle = "flipped_classroom"
)

func (s TeachingStyle) Valid() bool {
	switch s {
	case TeachingDirect, TeachingSocratic, TeachingVisual, TeachingFlippedClassroom:
		return true
	}
	return false
}

type EmotionalState string

const (
	EmotionFocused  EmotionalState = "focused"
	EmotionAnxious  EmotionalState = "anxious"
	EmotionConfused EmotionalState = "confused"
	EmotionTired    EmotionalState = "tired"
)

func (s EmotionalState) Valid() bool {
	switch s {
	case EmotionFocused, EmotionAnxious, EmotionConfused, EmotionTired:
		return true
	}
	return false
}

const (
	MinMasteryLevel = 1
	MaxMasteryLevel = 10
)

// Difficulty values produced by context inference and accepted in tool parameters.
const (
	DifficultyEasy         = "easy"
	DifficultyMedium       = "medium"
	DifficultyHard         = "hard"
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

func validDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard,
		DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// EducationalContext is created once per request and read by every later stage.
type EducationalContext struct {
	TeachingStyle      TeachingStyle  `json:"teaching_style"`
	EmotionalState     EmotionalState `json:"emotional_state"`
	MasteryLevel       int            `json:"mastery_level"`
	InferredDifficulty string         `json:"inferred_difficulty"`
}

// DefaultEducationalContext is substituted whenever inference cannot produce a full context.
func DefaultEducationalContext() EducationalContext {
	return EducationalContext{
		TeachingStyle:      TeachingDirect,
		EmotionalState:     EmotionFocused,
		MasteryLevel:       MinMasteryLevel,
		InferredDifficulty: DifficultyMedium,
	}
}

// Validate reports the first field outside its domain.
func (c EducationalContext) Validate() error {
	switch {
	case !c.TeachingStyle.Valid():
		return fmt.Errorf("invalid teaching style %q", c.TeachingStyle)
	case !c.EmotionalState.Valid():
		return fmt.Errorf("invalid emotional state %q", c.EmotionalState)
	case c.MasteryLevel < MinMasteryLevel || c.MasteryLevel > MaxMasteryLevel:
		return fmt.Errorf("mastery level %d out of range", c.MasteryLevel)
	case !validDifficulty(c.InferredDifficulty):
		return fmt.Errorf("invalid difficulty %q", c.InferredDifficulty)
	}
	return nil
}
