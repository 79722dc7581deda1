package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tfelder/agentware/agent"
)

// InMemory is a process-local memory backend with an LRU-style cap per
// session. Relevance queries use token-overlap scoring, which is crude but
// deterministic and dependency-free; production setups should prefer the
// knowledge-base or Redis backends.
type InMemory struct {
	mu         sync.RWMutex
	sessions   map[string][]storedMessage
	maxPerSess int
}

type storedMessage struct {
	message  *agent.Message
	metadata map[string]interface{}
}

// NewInMemory creates an in-memory backend capping each session at
// maxPerSession messages (0 = unbounded).
func NewInMemory(maxPerSession int) *InMemory {
	return &InMemory{
		sessions:   make(map[string][]storedMessage),
		maxPerSess: maxPerSession,
	}
}

// Store appends a message to the session, evicting the oldest entry when
// over the cap.
func (m *InMemory) Store(_ context.Context, sessionID string, message *agent.Message, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := append(m.sessions[sessionID], storedMessage{message: message, metadata: metadata})
	if m.maxPerSess > 0 && len(msgs) > m.maxPerSess {
		msgs = msgs[len(msgs)-m.maxPerSess:]
	}
	m.sessions[sessionID] = msgs
	return nil
}

// Retrieve returns either the most recent messages or, with a query, the
// highest token-overlap matches.
func (m *InMemory) Retrieve(_ context.Context, sessionID string, opts RetrieveOptions) ([]*agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.sessions[sessionID]
	limit := opts.Limit
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}

	if opts.Query == "" {
		recent := stored[len(stored)-limit:]
		out := make([]*agent.Message, 0, len(recent))
		for _, s := range recent {
			out = append(out, s.message)
		}
		return out, nil
	}

	type scored struct {
		msg   *agent.Message
		score float64
	}
	queryTokens := tokenize(opts.Query)
	var ranked []scored
	for _, s := range stored {
		score := overlapScore(queryTokens, tokenize(s.message.Content))
		if score > opts.MinScore {
			ranked = append(ranked, scored{msg: s.message, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]*agent.Message, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, r.msg)
	}
	return out, nil
}

// List returns every stored message in insertion order.
func (m *InMemory) List(_ context.Context, sessionID string) ([]*agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.sessions[sessionID]
	out := make([]*agent.Message, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.message)
	}
	return out, nil
}

// Clear removes a session.
func (m *InMemory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?\"'()[]{}:;")
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	return tokens
}

func overlapScore(query, content map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	matches := 0
	for tok := range query {
		if content[tok] {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}
