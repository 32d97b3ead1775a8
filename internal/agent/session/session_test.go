package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAddTurn(t *testing.T) {
	s := NewSession("work", "claude")

	turn := s.AddTurn("prompt one", "response one", 0.003, 1200)

	require.NotEmpty(t, turn.ID)
	require.Equal(t, 1, s.TurnCount())
	require.Equal(t, 0.003, s.TotalCostUSD)
	require.Equal(t, "response one", s.LastTurn().Response)
	require.NoError(t, s.Validate())
}

func TestValidate_CostMismatch(t *testing.T) {
	s := NewSession("work", "claude")
	s.AddTurn("p", "r", 0.01, 100)
	s.TotalCostUSD = 0.5

	require.Error(t, s.Validate())
}

func TestValidate_RequiresName(t *testing.T) {
	s := NewSession("", "claude")
	require.Error(t, s.Validate())
}

// Total cost tracks the turn sum through any sequence of turns.
func TestTotalCostInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSession("prop", "mock")
		n := rapid.IntRange(0, 50).Draw(t, "turns")
		var sum float64
		for i := 0; i < n; i++ {
			cost := rapid.Float64Range(0, 1).Draw(t, "cost")
			s.AddTurn("p", "r", cost, 10)
			sum += cost
		}
		const eps = 1e-9
		diff := s.TotalCostUSD - sum
		if diff > eps || diff < -eps {
			t.Fatalf("total %v != sum %v", s.TotalCostUSD, sum)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
	})
}

// Serialization preserves every field a reload depends on.
func TestSessionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSession(rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(t, "name"), "claude")
		s.ConversationID = rapid.StringMatching(`[a-z0-9-]{1,36}`).Draw(t, "conv")
		n := rapid.IntRange(0, 10).Draw(t, "turns")
		for i := 0; i < n; i++ {
			s.AddTurn(
				rapid.String().Draw(t, "prompt"),
				rapid.String().Draw(t, "response"),
				rapid.Float64Range(0, 0.1).Draw(t, "cost"),
				int64(rapid.IntRange(0, 60000).Draw(t, "ms")),
			)
		}

		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got Session
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Name != s.Name || got.ConversationID != s.ConversationID {
			t.Fatalf("identity fields changed")
		}
		if got.TurnCount() != s.TurnCount() {
			t.Fatalf("turn count changed")
		}
		for i := range s.Turns {
			if got.Turns[i].Prompt != s.Turns[i].Prompt || got.Turns[i].Response != s.Turns[i].Response {
				t.Fatalf("turn %d content changed", i)
			}
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("reloaded session invalid: %v", err)
		}
	})
}
