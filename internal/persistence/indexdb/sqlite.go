// Package indexdb is a secondary SQLite index of completed ticks and saves.
// Writes are queued to one goroutine and dropped if it falls behind; the
// snapshot store stays the source of truth.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteIndex implements the engine's tick index.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSave
)

type req struct {
	kind reqKind
	tick TickRow
	save SaveRow
}

// TickRow is one resolved tick.
type TickRow struct {
	Tick     int64
	At       time.Time
	Active   int
	NPCs     int
	Duration time.Duration
}

// SaveRow is one stored snapshot.
type SaveRow struct {
	Revision uuid.UUID
	Tick     int64
	At       time.Time
	Backend  string
}

// OpenSQLite opens or creates the index at path and starts the writer.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, errors.New("empty index db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			active INTEGER NOT NULL,
			npcs INTEGER NOT NULL,
			duration_us INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			revision TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			at TEXT NOT NULL,
			backend TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_at ON saves(at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("creating index schema: %w", err)
		}
	}
	return nil
}

// Close drains the queue and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped is the number of rows lost because the writer fell behind.
func (s *SQLiteIndex) Dropped() int64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// RecordTick queues a tick row.
func (s *SQLiteIndex) RecordTick(tick int64, at time.Time, active, npcs int, took time.Duration) error {
	s.enqueue(req{kind: reqTick, tick: TickRow{Tick: tick, At: at, Active: active, NPCs: npcs, Duration: took}})
	return nil
}

// RecordSave queues a save row.
func (s *SQLiteIndex) RecordSave(revision uuid.UUID, tick int64, at time.Time, backend string) error {
	s.enqueue(req{kind: reqSave, save: SaveRow{Revision: revision, Tick: tick, At: at, Backend: backend}})
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, err := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,at,active,npcs,duration_us) VALUES(?,?,?,?,?)`)
	if err != nil {
		slog.Error("index: prepare tick insert", "error", err)
	}
	insertSave, err := s.db.Prepare(`INSERT OR REPLACE INTO saves(revision,tick,at,backend) VALUES(?,?,?,?)`)
	if err != nil {
		slog.Error("index: prepare save insert", "error", err)
	}
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertSave != nil {
			_ = insertSave.Close()
		}
	}()

	var tx *sql.Tx
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			slog.Warn("index: commit", "error", err)
		}
		tx = nil
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
	}

	for r := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				slog.Warn("index: begin", "error", err)
				s.dropped.Add(1)
				continue
			}
			tx = txx
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			if insertTick == nil {
				break
			}
			if _, err := tx.Stmt(insertTick).Exec(t.Tick, formatTime(t.At), t.Active, t.NPCs, t.Duration.Microseconds()); err != nil {
				slog.Warn("index: insert tick", "tick", t.Tick, "error", err)
				rollback()
				continue
			}
		case reqSave:
			sv := r.save
			if insertSave == nil {
				break
			}
			if _, err := tx.Stmt(insertSave).Exec(sv.Revision.String(), sv.Tick, formatTime(sv.At), sv.Backend); err != nil {
				slog.Warn("index: insert save", "revision", sv.Revision, "error", err)
				rollback()
				continue
			}
		}
		// Commit once the burst is drained.
		if len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

// timeLayout keeps every fractional digit so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Ticks returns the newest limit tick rows, newest first.
func (s *SQLiteIndex) Ticks(ctx context.Context, limit int) ([]TickRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick, at, active, npcs, duration_us FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ticks: %w", err)
	}
	defer rows.Close()

	var out []TickRow
	for rows.Next() {
		var (
			t  TickRow
			at string
			us int64
		)
		if err := rows.Scan(&t.Tick, &at, &t.Active, &t.NPCs, &us); err != nil {
			return nil, fmt.Errorf("scanning tick row: %w", err)
		}
		if t.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("tick %d: %w", t.Tick, err)
		}
		t.Duration = time.Duration(us) * time.Microsecond
		out = append(out, t)
	}
	return out, rows.Err()
}

// Saves returns the newest limit save rows, newest first.
func (s *SQLiteIndex) Saves(ctx context.Context, limit int) ([]SaveRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT revision, tick, at, backend FROM saves ORDER BY at DESC, tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying saves: %w", err)
	}
	defer rows.Close()

	var out []SaveRow
	for rows.Next() {
		var (
			sv       SaveRow
			revision string
			at       string
		)
		if err := rows.Scan(&revision, &sv.Tick, &at, &sv.Backend); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		if sv.Revision, err = uuid.Parse(revision); err != nil {
			return nil, fmt.Errorf("save row: %w", err)
		}
		if sv.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("save %s: %w", revision, err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}
