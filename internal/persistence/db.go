// Package persistence provides SQLite-based colony state storage.
// See design doc Section 8.3.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/engine"
)

// DB wraps a SQLite connection for colony state persistence.
type DB struct {
	conn  *sqlx.DB
	RunID string
}

// Open opens or creates a SQLite database at the given path and registers
// a fresh run id for this process.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, RunID: uuid.NewString()}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL DEFAULT (datetime('now')),
		master_seed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sex INTEGER NOT NULL,
		energy REAL NOT NULL,
		wealth REAL NOT NULL,
		mood REAL NOT NULL,
		corruption REAL NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		metabolism REAL NOT NULL,
		stamina REAL NOT NULL,
		learning_capacity REAL NOT NULL,
		curiosity REAL NOT NULL,
		attraction_profile REAL NOT NULL,
		alive INTEGER NOT NULL,
		born_tick INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS checkpoints (
		agent_id INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		blob BLOB NOT NULL,
		PRIMARY KEY (agent_id, run_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colony_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_agents_alive ON agents(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun records this process's run row.
func (db *DB) BeginRun(masterSeed int64) error {
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, master_seed) VALUES (?, ?)",
		db.RunID, masterSeed,
	)
	return err
}

// LatestRun returns the most recently recorded run, if any. Startup uses
// this to decide between resuming a saved colony and founding a fresh one.
func (db *DB) LatestRun() (runID string, masterSeed int64, ok bool, err error) {
	var run struct {
		ID         string `db:"id"`
		MasterSeed int64  `db:"master_seed"`
	}
	err = db.conn.Get(&run, "SELECT id, master_seed FROM runs ORDER BY rowid DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("latest run: %w", err)
	}
	return run.ID, run.MasterSeed, true, nil
}

// LoadAgents restores the living population of this run. Minds are not
// attached here — the caller rebuilds each from its checkpoint, or fresh
// from the genome when no checkpoint exists.
func (db *DB) LoadAgents() ([]*agents.Agent, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, sex, energy, wealth, mood, corruption,
		pos_x, pos_y, metabolism, stamina, learning_capacity, curiosity,
		attraction_profile, born_tick
		FROM agents WHERE run_id = ? AND alive = 1 ORDER BY id`, db.RunID)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	defer rows.Close()

	var out []*agents.Agent
	for rows.Next() {
		a := &agents.Agent{Alive: true}
		err := rows.Scan(&a.ID, &a.Name, &a.Sex, &a.Energy, &a.Wealth, &a.Mood,
			&a.Corruption, &a.Position.X, &a.Position.Y,
			&a.Genome.Metabolism, &a.Genome.Stamina, &a.Genome.LearningCapacity,
			&a.Genome.Curiosity, &a.Genome.AttractionProfile, &a.BornTick)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAgents writes all agents for this run (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents WHERE run_id = ?", db.RunID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, run_id, name, sex, energy, wealth, mood, corruption, pos_x, pos_y,
		 metabolism, stamina, learning_capacity, curiosity, attraction_profile,
		 alive, born_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		alive := 0
		if a.Alive {
			alive = 1
		}
		_, err := stmt.Exec(
			a.ID, db.RunID, a.Name, a.Sex,
			a.Energy, a.Wealth, a.Mood, a.Corruption,
			a.Position.X, a.Position.Y,
			a.Genome.Metabolism, a.Genome.Stamina, a.Genome.LearningCapacity,
			a.Genome.Curiosity, a.Genome.AttractionProfile,
			alive, a.BornTick,
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// SaveCheckpoints stores each living agent's learned parameters as a
// compressed blob. Episodic and social memory are deliberately not part of
// the checkpoint; a restored agent starts with empty memories.
func (db *DB) SaveCheckpoints(agentList []*agents.Agent, tick uint64) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO checkpoints
		(agent_id, run_id, tick, blob) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		if !a.Alive || a.Mind == nil {
			continue
		}
		blob, err := encodeCheckpoint(a.Mind)
		if err != nil {
			return fmt.Errorf("checkpoint agent %d: %w", a.ID, err)
		}
		if _, err := stmt.Exec(a.ID, db.RunID, tick, blob); err != nil {
			return fmt.Errorf("insert checkpoint %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadCheckpoint restores one agent's learned parameters from its stored
// blob. Returns false if no checkpoint exists for this agent in this run.
func (db *DB) LoadCheckpoint(id agents.AgentID) (*brain.Brain, bool, error) {
	var blob []byte
	err := db.conn.Get(&blob,
		"SELECT blob FROM checkpoints WHERE agent_id = ? AND run_id = ?",
		id, db.RunID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load checkpoint %d: %w", id, err)
	}
	b, err := decodeCheckpoint(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %d: %w", id, err)
	}
	return b, true, nil
}

// SaveEvents appends events for this run.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)",
			db.RunID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in colony metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO colony_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM colony_meta WHERE key = ?", key)
	return value, err
}

// SaveColonyState performs a full save of agents, brain checkpoints, and
// events at the given tick.
func (db *DB) SaveColonyState(sim *engine.Simulation, tick uint64) error {
	var saveErr error
	sim.WithAgents(func(living []*agents.Agent) {
		slog.Info("saving colony state", "run", db.RunID, "tick", tick, "agents", len(living))

		if err := db.SaveAgents(living); err != nil {
			saveErr = fmt.Errorf("save agents: %w", err)
			return
		}
		if err := db.SaveCheckpoints(living, tick); err != nil {
			saveErr = fmt.Errorf("save checkpoints: %w", err)
			return
		}
	})
	if saveErr != nil {
		return saveErr
	}

	if err := db.SaveEvents(sim.RecentEvents(1000)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", tick)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("colony state saved", "tick", tick)
	return nil
}

// RecentEvents returns the most recent N events for this run.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		db.RunID, limit,
	)
	return events, err
}
