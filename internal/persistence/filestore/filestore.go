// Package filestore keeps snapshots on disk as zstd-compressed JSON, one
// directory per document:
//
//	<dir>/world/<stamp>.json.zst
//	<dir>/vessels/<stamp>.json.zst
//	<dir>/npcs/<stamp>.json.zst
//
// All three files of a save share one stamp, built from the save time, the
// tick and the revision id, so names sort oldest first.
package filestore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
)

const ext = ".json.zst"

// Store is a directory of saves.
type Store struct {
	dir string
}

// New creates the part directories under dir.
func New(dir string) (*Store, error) {
	for _, part := range snapshot.Parts {
		if err := os.MkdirAll(filepath.Join(dir, part), 0o755); err != nil {
			return nil, fmt.Errorf("creating save directory: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// Dir is the root save directory.
func (s *Store) Dir() string { return s.dir }

func stamp(snap *snapshot.Snapshot) string {
	return fmt.Sprintf("%020d-%010d-%s", snap.SavedAt.UnixNano(), snap.Tick, snap.Revision)
}

func parseStamp(name string) (at time.Time, tick int64, rev uuid.UUID, err error) {
	fields := strings.SplitN(strings.TrimSuffix(name, ext), "-", 3)
	if len(fields) != 3 {
		return at, 0, rev, fmt.Errorf("malformed save name %q", name)
	}
	nanos, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return at, 0, rev, fmt.Errorf("save name %q: %w", name, err)
	}
	tick, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return at, 0, rev, fmt.Errorf("save name %q: %w", name, err)
	}
	rev, err = uuid.Parse(fields[2])
	if err != nil {
		return at, 0, rev, fmt.Errorf("save name %q: %w", name, err)
	}
	return time.Unix(0, nanos).UTC(), tick, rev, nil
}

// Save writes the three documents. The world file is written last, so a
// save is only listed once it is complete.
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	name := stamp(snap) + ext
	for _, part := range []string{snapshot.PartVessels, snapshot.PartNPCs, snapshot.PartWorld} {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := snap.Document(part)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(s.dir, part, name), data); err != nil {
			return fmt.Errorf("saving %s: %w", part, err)
		}
	}
	slog.Debug("snapshot saved", "backend", "file", "revision", snap.Revision, "tick", snap.Tick)
	return nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if _, err := bw.Write(data); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(bufio.NewReaderSize(dec, 64*1024))
}

// List returns the stamps of complete saves, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, snapshot.PartWorld))
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

// Load reads the offset-th newest save, 0 being the latest.
func (s *Store) Load(ctx context.Context, offset int) (*snapshot.Snapshot, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= len(names) {
		return nil, fmt.Errorf("%w: offset %d of %d", snapshot.ErrNotFound, offset, len(names))
	}
	name := names[offset]
	at, tick, rev, err := parseStamp(name)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{Revision: rev, Tick: tick, SavedAt: at}
	for _, part := range snapshot.Parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readFile(filepath.Join(s.dir, part, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s of %s: %w", part, rev, err)
		}
		if err := snap.SetDocument(part, data); err != nil {
			return nil, err
		}
	}
	return snap, nil
}
