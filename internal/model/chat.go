package model

import (
	"time"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxChatTurns bounds the stored history; the oldest turns are dropped when
// the session overflows.
const MaxChatTurns = 20

// Turn is one message in a chat session.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// PendingProposal is a chat-extracted goal creation request awaiting the
// user's confirm or cancel. A newer valid proposal supersedes it wholesale.
type PendingProposal struct {
	Name           string `json:"name"`
	TargetAmount   string `json:"target_amount"`
	TargetDate     string `json:"target_date,omitempty"` // YYYY-MM-DD
	Frequency      string `json:"frequency"`
	InitialDeposit string `json:"initial_deposit"`
	SourceTurn     int    `json:"source_turn"`
}

// ChatSession holds one user's advisor conversation and at most one pending
// proposal. Core operations take and return the session explicitly; the
// repository only loads and saves it.
type ChatSession struct {
	UserID    string
	Turns     []Turn
	Pending   *PendingProposal
	UpdatedAt time.Time
}

// Append adds a turn and drops the oldest ones past MaxChatTurns.
func (s *ChatSession) Append(role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text})
	if len(s.Turns) > MaxChatTurns {
		s.Turns = s.Turns[len(s.Turns)-MaxChatTurns:]
	}
}

// Clear wipes the history and any pending proposal.
func (s *ChatSession) Clear() {
	s.Turns = nil
	s.Pending = nil
}
