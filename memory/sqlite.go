package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tfelder/agentware/agent"
)

// SQLiteMemory is a file-backed memory store. Conversation history
// survives process restarts, which the Telegram front-end relies on to
// keep per-chat context.
type SQLiteMemory struct {
	db *sql.DB
}

// NewSQLiteMemory opens (creating if needed) a SQLite database at dbPath.
func NewSQLiteMemory(dbPath string) (*SQLiteMemory, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// SQLite writes serialize anyway; a single connection avoids
	// SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteMemory{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteMemory) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		metadata    TEXT,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store appends a message to the session.
func (s *SQLiteMemory) Store(ctx context.Context, sessionID string, message *agent.Message, metadata map[string]interface{}) error {
	var metaJSON []byte
	if len(metadata) > 0 {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize metadata: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, message.Role, message.Content, string(metaJSON), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Retrieve returns the most recent messages, or token-overlap matches when
// a query is set.
func (s *SQLiteMemory) Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*agent.Message, error) {
	all, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	if opts.Query == "" {
		return all[len(all)-limit:], nil
	}

	queryTokens := tokenize(opts.Query)
	var matched []*agent.Message
	for _, msg := range all {
		if overlapScore(queryTokens, tokenize(msg.Content)) > opts.MinScore {
			matched = append(matched, msg)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

// List returns every stored message for a session in insertion order.
func (s *SQLiteMemory) List(ctx context.Context, sessionID string) ([]*agent.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, metadata, created_at FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*agent.Message
	for rows.Next() {
		var role, content string
		var metaJSON sql.NullString
		var createdAt int64
		if err := rows.Scan(&role, &content, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg := agent.NewMessage(role, content)
		msg.Timestamp = time.Unix(0, createdAt).UTC()
		if metaJSON.Valid && metaJSON.String != "" {
			var meta map[string]interface{}
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				msg.Metadata = meta
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Clear removes all messages for a session.
func (s *SQLiteMemory) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteMemory) Close() error { return s.db.Close() }
