// Package memory provides storage backends for agent conversation history
// and personal memories.
//
// Implementations:
//   - InMemory: process-local storage with an LRU cap
//   - RedisMemory: Redis-backed with TTL, shared across instances
//   - SQLiteMemory: file-backed, survives restarts
//   - KnowledgeBase: Amazon Bedrock Knowledge Base (S3 data source +
//     managed retrieval)
package memory

import (
	"context"
	"errors"

	"github.com/tfelder/agentware/agent"
)

// ErrNotSupported is returned by backends for operations they cannot
// serve (e.g. listing every document in a managed knowledge base).
var ErrNotSupported = errors.New("memory: operation not supported by this backend")

// Memory is the minimal interface for agent memory backends.
//
// Example:
//
//	mem := memory.NewInMemory(1000)
//	_ = mem.Store(ctx, "session-123", agent.NewMessage("user", "My dog is called Max"), nil)
//	msgs, _ := mem.Retrieve(ctx, "session-123", memory.RetrieveOptions{Query: "pets", Limit: 5})
type Memory interface {
	// Store saves a message under a session (or user) ID with optional
	// metadata.
	Store(ctx context.Context, sessionID string, message *agent.Message, metadata map[string]interface{}) error

	// Retrieve fetches messages for a session. With a Query, backends
	// that support relevance ranking return the best matches; without
	// one, the most recent messages are returned in order.
	Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*agent.Message, error)

	// List returns everything stored for a session in insertion order.
	List(ctx context.Context, sessionID string) ([]*agent.Message, error)

	// Clear removes all memory for a session.
	Clear(ctx context.Context, sessionID string) error
}

// RetrieveOptions controls retrieval.
type RetrieveOptions struct {
	// Query enables relevance-ranked retrieval when set.
	Query string
	// Limit caps the number of results (0 = backend default).
	Limit int
	// MinScore drops results scored below this threshold on backends
	// that report relevance scores.
	MinScore float64
}
