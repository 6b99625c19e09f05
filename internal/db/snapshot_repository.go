package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
)

// SnapshotRepository stores game snapshots in the saves table.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save inserts all three documents of s as one row.
func (r *SnapshotRepository) Save(ctx context.Context, s *snapshot.Snapshot) error {
	docs := make([][]byte, len(snapshot.Parts))
	for i, part := range snapshot.Parts {
		data, err := s.Document(part)
		if err != nil {
			return fmt.Errorf("save %s: %w", s.Revision, err)
		}
		docs[i] = data
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO saves (revision, tick, saved_at, world, vessels, npcs)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.Revision, s.Tick, s.SavedAt, docs[0], docs[1], docs[2])
	if err != nil {
		return fmt.Errorf("insert save %s: %w", s.Revision, err)
	}
	return nil
}

// Load returns the offset-th newest save, 0 being the latest.
func (r *SnapshotRepository) Load(ctx context.Context, offset int) (*snapshot.Snapshot, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset %d", snapshot.ErrNotFound, offset)
	}

	var (
		rev     uuid.UUID
		tick    int64
		savedAt time.Time
		docs    = make([][]byte, len(snapshot.Parts))
	)
	err := r.pool.QueryRow(ctx,
		`SELECT revision, tick, saved_at, world, vessels, npcs
		 FROM saves
		 ORDER BY saved_at DESC, tick DESC
		 LIMIT 1 OFFSET $1`, offset).
		Scan(&rev, &tick, &savedAt, &docs[0], &docs[1], &docs[2])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: offset %d", snapshot.ErrNotFound, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query save offset %d: %w", offset, err)
	}

	s := &snapshot.Snapshot{Revision: rev, Tick: tick, SavedAt: savedAt.UTC()}
	for i, part := range snapshot.Parts {
		if err := s.SetDocument(part, docs[i]); err != nil {
			return nil, fmt.Errorf("save %s: %w", rev, err)
		}
	}
	return s, nil
}

// Count returns the number of stored saves.
func (r *SnapshotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM saves`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count saves: %w", err)
	}
	return n, nil
}
