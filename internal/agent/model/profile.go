package model

import (
	"context"
	"errors"
)

// ErrProfileNotFound is returned by a ProfileRepository for unknown user ids.
var ErrProfileNotFound = errors.New("user profile not found")

// UserProfile is provisioned outside the orchestrator and only read by it.
type UserProfile struct {
	UserID                 string         `json:"user_id"`
	Name                   string         `json:"name"`
	GradeLevel             string         `json:"grade_level"`
	LearningStyleSummary   string         `json:"learning_style_summary"`
	EmotionalStateSummary  string         `json:"emotional_state_summary"`
	MasteryLevelSummary    string         `json:"mastery_level_summary"`
	PreferredTeachingStyle TeachingStyle  `json:"preferred_teaching_style"`
	CurrentEmotionalState  EmotionalState `json:"current_emotional_state"`
	CurrentMasteryLevel    int            `json:"current_mastery_level"`
}

// UserInfo is the descriptive part of a profile forwarded to tool services.
type UserInfo struct {
	UserID                string `json:"user_id"`
	Name                  string `json:"name"`
	GradeLevel            string `json:"grade_level"`
	LearningStyleSummary  string `json:"learning_style_summary"`
	EmotionalStateSummary string `json:"emotional_state_summary"`
	MasteryLevelSummary   string `json:"mastery_level_summary"`
}

// Info projects the profile onto the UserInfo wire shape.
func (p UserProfile) Info() UserInfo {
	return UserInfo{
		UserID:                p.UserID,
		Name:                  p.Name,
		GradeLevel:            p.GradeLevel,
		LearningStyleSummary:  p.LearningStyleSummary,
		EmotionalStateSummary: p.EmotionalStateSummary,
		MasteryLevelSummary:   p.MasteryLevelSummary,
	}
}

type ProfileRepository interface {
	// GetProfile returns the profile for userID or an error wrapping ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
}

// SampleProfiles returns the demo students the orchestrator ships with.
func SampleProfiles() []UserProfile {
	return []UserProfile{
		{
			UserID:                 "student123",
			Name:                   "Charlie",
			GradeLevel:             "8",
			LearningStyleSummary:   "Kinesthetic learner, learns best through practice and repetition",
			EmotionalStateSummary:  "Focused and motivated to improve",
			MasteryLevelSummary:    "Level 6: Good understanding, ready for application",
			PreferredTeachingStyle: TeachingDirect,
			CurrentEmotionalState:  EmotionFocused,
			CurrentMasteryLevel:    6,
		},
		{
			UserID:                 "student456",
			Name:                   "Alice",
			GradeLevel:             "10",
			LearningStyleSummary:   "Visual learner, prefers diagrams and structured notes",
			EmotionalStateSummary:  "Anxious about new concepts",
			MasteryLevelSummary:    "Level 3: Building foundational knowledge",
			PreferredTeachingStyle: TeachingVisual,
			CurrentEmotionalState:  EmotionAnxious,
			CurrentMasteryLevel:    3,
		},
		{
			UserID:                 "student789",
			Name:                   "Bob",
			GradeLevel:             "7",
			LearningStyleSummary:   "Auditory learner, prefers simple terms and step-by-step explanations",
			EmotionalStateSummary:  "Confused about current topic",
			MasteryLevelSummary:    "Level 4: Building foundational knowledge",
			PreferredTeachingStyle: TeachingSocratic,
			CurrentEmotionalState:  EmotionConfused,
			CurrentMasteryLevel:    4,
		},
	}
}
