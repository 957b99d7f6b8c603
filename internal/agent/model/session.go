package model

import (
	"context"
	"time"
)

// SessionTurn is one stored exchange of a chat session.
type SessionTurn struct {
	UserMessage string    `json:"user_message"`
	Response    string    `json:"response"`
	ToolUsed    string    `json:"tool_used"`
	RequestID   string    `json:"request_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type SessionRepository interface {
	// AppendTurn records a completed exchange for the session.
	AppendTurn(ctx context.Context, sessionID string, turn SessionTurn) error

	// LoadTurns returns the stored turns for a session, oldest first.
	LoadTurns(ctx context.Context, sessionID string) ([]SessionTurn, error)
}
