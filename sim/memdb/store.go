// Package memdb mirrors agents' memory streams into a SQLite file so runs
// can be inspected offline. The store is append-only, matching the stream
// semantics: records are inserted once and never updated or deleted.
package memdb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id         TEXT NOT NULL,
	record_id        TEXT NOT NULL,
	description      TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL,
	importance       INTEGER NOT NULL,
	kind             TEXT NOT NULL,
	links            TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id, seq);
`

// Store is a SQLite-backed memory log. It implements sim.MemoryLog.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty memory db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// Single writer; the scheduler appends from one goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts one record for the agent.
func (s *Store) Append(agentID string, rec *sim.MemoryRecord) error {
	links, err := json.Marshal(rec.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO memories (agent_id, record_id, description, created_at, last_accessed_at, importance, kind, links)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agentID, rec.ID, rec.Description, rec.CreatedAt, rec.LastAccessedAt, rec.Importance, string(rec.Kind), string(links),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// Records returns the agent's records in append order.
func (s *Store) Records(agentID string) ([]*sim.MemoryRecord, error) {
	rows, err := s.db.Query(
		`SELECT record_id, description, created_at, last_accessed_at, importance, kind, links
		 FROM memories WHERE agent_id = ? ORDER BY seq`, agentID)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []*sim.MemoryRecord
	for rows.Next() {
		rec := &sim.MemoryRecord{}
		var kind, links string
		if err := rows.Scan(&rec.ID, &rec.Description, &rec.CreatedAt, &rec.LastAccessedAt, &rec.Importance, &kind, &links); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		rec.Kind = sim.MemoryKind(kind)
		if err := json.Unmarshal([]byte(links), &rec.Links); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records across all agents.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
