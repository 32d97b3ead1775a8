// Package session persists named conversations and their turn history.
// A session names one provider conversation; every completed turn is
// appended with its cost, and the session's total cost is always the sum
// of its turn costs.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Turn records one completed prompt/response exchange.
type Turn struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	CostUSD    float64   `json:"cost_usd"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session is a named conversation with its full turn history.
type Session struct {
	// Name is the user-facing key, unique within a store.
	Name string `json:"name"`

	// ConversationID is the provider's identifier for resuming.
	ConversationID string `json:"conversation_id,omitempty"`

	// Provider is the client type that owns the conversation.
	Provider string `json:"provider"`

	// ParentName is set when this session was forked from another.
	ParentName string `json:"parent_name,omitempty"`

	// ParentSessionID is the parent's conversation identifier at the
	// time of the fork. The parent's name can be reused later; this
	// cannot.
	ParentSessionID string `json:"parent_session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Turns []Turn `json:"turns"`

	// TotalCostUSD equals the sum of all turn costs.
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// NewSession creates an empty session.
func NewSession(name, provider string) *Session {
	now := time.Now().UTC()
	return &Session{
		Name:      name,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddTurn appends a turn and updates the running cost total.
func (s *Session) AddTurn(prompt, response string, costUSD float64, durationMs int64) Turn {
	turn := Turn{
		ID:         uuid.NewString(),
		Prompt:     prompt,
		Response:   response,
		CostUSD:    costUSD,
		DurationMs: durationMs,
		Timestamp:  time.Now().UTC(),
	}
	s.Turns = append(s.Turns, turn)
	s.TotalCostUSD += costUSD
	s.UpdatedAt = turn.Timestamp
	return turn
}

// clone returns an independent copy whose turn slice does not alias
// the original.
func (s *Session) clone() *Session {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	return &c
}

// TurnCount returns the number of recorded turns.
func (s *Session) TurnCount() int {
	return len(s.Turns)
}

// LastTurn returns the most recent turn, or nil for an empty session.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// Validate checks internal consistency.
func (s *Session) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("session has no name")
	}
	var sum float64
	for _, t := range s.Turns {
		sum += t.CostUSD
	}
	const eps = 1e-9
	if diff := s.TotalCostUSD - sum; diff > eps || diff < -eps {
		return fmt.Errorf("session %q: total cost %.9f does not match turn sum %.9f", s.Name, s.TotalCostUSD, sum)
	}
	return nil
}
