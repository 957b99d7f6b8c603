// Package learner infers the educational context of a request from the
// student's message and stored profile.
package learner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

type emotionRule struct {
	state   model.EmotionalState
	markers []string
}

// emotionRules are evaluated in order; the first rule with a marker in the message wins.
var emotionRules = []emotionRule{
	{model.EmotionConfused, []string{"confused", "lost", "don't understand", "don't get"}},
	{model.EmotionAnxious, []string{"anxious", "nervous", "worried", "struggling", "hard"}},
	{model.EmotionTired, []string{"tired", "exhausted", "sleepy", "burned out"}},
	{model.EmotionFocused, []string{"focused", "ready", "excited", "motivated"}},
}

// summaryStates are looked up in the profile's free-text summary when the message has no marker.
var summaryStates = []model.EmotionalState{
	model.EmotionFocused,
	model.EmotionAnxious,
	model.EmotionConfused,
}

var masteryPattern = regexp.MustCompile(`Level\s*(\d+)`)

// highMasteryThreshold is the parsed mastery at which a focused student gets hard content.
const highMasteryThreshold = 7

// Infer derives the educational context for message and profile. It never
// fails: any invalid input yields model.DefaultEducationalContext.
func Infer(message string, profile model.UserProfile) (ectx model.EducationalContext) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "learner").Msgf("panic recovered: %v", r)
			ectx = model.DefaultEducationalContext()
		}
	}()

	ectx, err := infer(message, profile)
	if err != nil {
		logx.Warn().Err(err).Str("user_id", profile.UserID).Msg("Educational context inference failed; using default context")
		return model.DefaultEducationalContext()
	}
	return ectx
}

func infer(message string, profile model.UserProfile) (model.EducationalContext, error) {
	emotion := InferEmotionalState(message, profile.EmotionalStateSummary)
	ectx := model.EducationalContext{
		TeachingStyle:      profile.PreferredTeachingStyle,
		EmotionalState:     emotion,
		MasteryLevel:       profile.CurrentMasteryLevel,
		InferredDifficulty: InferDifficulty(profile.MasteryLevelSummary, emotion),
	}
	if err := ectx.Validate(); err != nil {
		return model.EducationalContext{}, fmt.Errorf("profile %s: %w", profile.UserID, err)
	}
	return ectx, nil
}

// InferEmotionalState scans the message for emotion markers, then the
// profile summary, then defaults to focused.
func InferEmotionalState(message, profileSummary string) model.EmotionalState {
	msg := normalize(message)
	for _, rule := range emotionRules {
		for _, marker := range rule.markers {
			if strings.Contains(msg, marker) {
				return rule.state
			}
		}
	}

	summary := normalize(profileSummary)
	for _, state := range summaryStates {
		if strings.Contains(summary, string(state)) {
			return state
		}
	}
	return model.EmotionFocused
}

// InferDifficulty maps the mastery summary and emotional state onto easy/medium/hard.
func InferDifficulty(masterySummary string, emotion model.EmotionalState) string {
	switch {
	case emotion == model.EmotionAnxious || emotion == model.EmotionConfused || emotion == model.EmotionTired:
		return model.DifficultyEasy
	case emotion == model.EmotionFocused && ParseMasteryLevel(masterySummary) >= highMasteryThreshold:
		return model.DifficultyHard
	default:
		return model.DifficultyMedium
	}
}

// ParseMasteryLevel extracts N from "Level N" in the summary, defaulting to 1.
func ParseMasteryLevel(summary string) int {
	m := masteryPattern.FindStringSubmatch(summary)
	if len(m) < 2 {
		return model.MinMasteryLevel
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return model.MinMasteryLevel
	}
	return n
}

// normalize lowercases and folds typographic apostrophes so "don’t" matches "don't".
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "’", "'")
}
