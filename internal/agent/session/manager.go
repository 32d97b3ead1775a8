package session

import (
	"context"
	"fmt"

	"github.com/zjrosen/headless/internal/agent/client"
	"github.com/zjrosen/headless/internal/agent/runner"
	"github.com/zjrosen/headless/internal/log"
)

// Manager runs prompts inside named sessions, recording every completed
// turn in the store.
type Manager struct {
	store  *Store
	client client.AgentClient
	base   client.Config
}

// NewManager creates a manager over a store and a provider client.
func NewManager(store *Store, c client.AgentClient, base client.Config) *Manager {
	return &Manager{store: store, client: c, base: base}
}

// Store returns the underlying session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Run executes one prompt in the named session, creating the session on
// first use. The turn is recorded and the session saved before returning.
// A turn the agent marks as failed is still recorded; its cost was spent.
func (m *Manager) Run(ctx context.Context, name, prompt string, opts runner.RunOptions) (*runner.Result, error) {
	sess, err := m.store.Load(name)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(name, string(m.client.Type()))
		log.Info(log.CatSession, "session created", "name", name, "provider", sess.Provider)
	}

	opts.SessionID = sess.ConversationID
	r := runner.New(m.client, runner.WithBaseConfig(m.base))
	res, err := r.Run(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", name, err)
	}

	if res.Stats.SessionID != "" {
		sess.ConversationID = res.Stats.SessionID
	}
	sess.AddTurn(prompt, res.Text, res.Stats.CostUSD, res.Stats.DurationMs)
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	return res, nil
}

// forkPrompt establishes the branched conversation when the caller has
// no first prompt of their own.
const forkPrompt = "Acknowledge the branched conversation. Respond with exactly: ready"

// Fork branches the source session's conversation into a new named
// session. The source session is not modified and records the fork's
// parent. An empty prompt establishes the branch with an acknowledgment
// turn that is not recorded; a caller prompt becomes the fork's first
// recorded turn.
func (m *Manager) Fork(ctx context.Context, srcName, dstName, prompt string) (*Session, error) {
	src, err := m.store.Load(srcName)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("session %q not found", srcName)
	}
	if src.ConversationID == "" {
		return nil, fmt.Errorf("session %q has no conversation to fork", srcName)
	}
	if existing, err := m.store.Load(dstName); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("session %q already exists", dstName)
	}

	recorded := prompt != ""
	if prompt == "" {
		prompt = forkPrompt
	}

	// A fork run establishes the branched conversation and yields its
	// identifier without advancing the source conversation.
	r := runner.New(m.client, runner.WithBaseConfig(m.base))
	res, err := r.Run(ctx, prompt,
		runner.RunOptions{SessionID: src.ConversationID, Fork: true})
	if err != nil {
		return nil, fmt.Errorf("fork session %q: %w", srcName, err)
	}
	if res.Stats.SessionID == "" || res.Stats.SessionID == src.ConversationID {
		return nil, fmt.Errorf("fork session %q: no branched conversation identifier", srcName)
	}

	dst := NewSession(dstName, string(m.client.Type()))
	dst.ConversationID = res.Stats.SessionID
	dst.ParentName = srcName
	dst.ParentSessionID = src.ConversationID
	if recorded {
		dst.AddTurn(prompt, res.Text, res.Stats.CostUSD, res.Stats.DurationMs)
	}
	if err := m.store.Save(dst); err != nil {
		return nil, err
	}
	log.Info(log.CatSession, "session forked",
		"src", srcName, "dst", dstName, "conversation", dst.ConversationID)
	return dst, nil
}

// History returns the named session's turns in order.
func (m *Manager) History(name string) ([]Turn, error) {
	sess, err := m.store.Load(name)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %q not found", name)
	}
	return sess.Turns, nil
}

// Stats summarizes one session or, with an empty name, the whole store.
type Stats struct {
	Sessions     int
	Turns        int
	TotalCostUSD float64
}

// Stats computes turn and cost totals.
func (m *Manager) Stats(name string) (Stats, error) {
	if name != "" {
		sess, err := m.store.Load(name)
		if err != nil {
			return Stats{}, err
		}
		if sess == nil {
			return Stats{}, fmt.Errorf("session %q not found", name)
		}
		return Stats{Sessions: 1, Turns: sess.TurnCount(), TotalCostUSD: sess.TotalCostUSD}, nil
	}

	names, err := m.store.List()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, n := range names {
		sess, err := m.store.Load(n)
		if err != nil {
			return Stats{}, err
		}
		if sess == nil {
			continue
		}
		st.Sessions++
		st.Turns += sess.TurnCount()
		st.TotalCostUSD += sess.TotalCostUSD
	}
	return st, nil
}
