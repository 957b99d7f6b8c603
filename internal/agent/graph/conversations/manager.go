package conversations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

const DefaultMaxTurns = 20

type MessagesManager struct {
	sessionRepo model.SessionRepository // optional
	maxTurns    int
}

func NewMessagesManager(sessionRepo model.SessionRepository, maxTurns int) *MessagesManager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &MessagesManager{
		sessionRepo: sessionRepo,
		maxTurns:    maxTurns,
	}
}

// =========== Prompt context ===========

// BuildHistoryContext renders the most recent chat turns for prompt embedding.
func (cm *MessagesManager) BuildHistoryContext(history []model.Message) string {
	recent := trimTail(history, cm.maxTurns)

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case model.RoleAssistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

// BuildProfileContext renders the student profile for prompt embedding.
func (cm *MessagesManager) BuildProfileContext(info *model.UserInfo) string {
	if info == nil {
		return "unknown student"
	}
	return fmt.Sprintf(
		"name=%s; grade_level=%s; learning_style=%s; emotional_state=%s; mastery=%s",
		info.Name, info.GradeLevel, info.LearningStyleSummary, info.EmotionalStateSummary, info.MasteryLevelSummary,
	)
}

// =========== Session transcript ===========

// SaveTurn appends a finished exchange to the session transcript. A nil store is a no-op.
func (cm *MessagesManager) SaveTurn(ctx context.Context, sessionID string, turn model.SessionTurn) error {
	if cm.sessionRepo == nil || sessionID == "" {
		return nil
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	return cm.sessionRepo.AppendTurn(ctx, sessionID, turn)
}

// ====================== Helper function ======================
func trimTail(messages []model.Message, maxTurns int) []model.Message {
	if len(messages) <= maxTurns {
		result := make([]model.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]model.Message, len(source))
	copy(result, source)
	return result
}
