package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/udisondev/deepwatch/internal/notify"
	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
)

// Recorder это in-memory notifier, сохраняет все отчёты для проверок в тестах.
type Recorder struct {
	mu      sync.Mutex
	reports []notify.Report
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify реализует notify.Notifier.
func (r *Recorder) Notify(_ context.Context, rep notify.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return nil
}

// Reports возвращает копию всех записанных отчётов.
func (r *Recorder) Reports() []notify.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.reports)
}

// For возвращает тексты для роли команды, от старых к новым.
func (r *Recorder) For(team, role string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rep := range r.reports {
		if rep.Team == team && rep.Role == role {
			out = append(out, rep.Text)
		}
	}
	return out
}

// Last возвращает последний текст для роли команды или "".
func (r *Recorder) Last(team, role string) string {
	texts := r.For(team, role)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// Reset очищает все отчёты.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = nil
}

// MemoryStore хранит снапшоты в памяти. Документы кодируются так же,
// как в реальных хранилищах, поэтому загрузка не делит память с живым состоянием.
type MemoryStore struct {
	mu    sync.Mutex
	saves []map[string][]byte
	meta  []*snapshot.Snapshot
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save кодирует все документы снапшота s.
func (m *MemoryStore) Save(_ context.Context, s *snapshot.Snapshot) error {
	docs := make(map[string][]byte, len(snapshot.Parts))
	for _, part := range snapshot.Parts {
		data, err := s.Document(part)
		if err != nil {
			return err
		}
		docs[part] = data
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, docs)
	m.meta = append(m.meta, &snapshot.Snapshot{Revision: s.Revision, Tick: s.Tick, SavedAt: s.SavedAt})
	return nil
}

// Load декодирует сохранение с номером offset, считая от самого нового.
func (m *MemoryStore) Load(_ context.Context, offset int) (*snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.saves) - 1 - offset
	if offset < 0 || i < 0 {
		return nil, snapshot.ErrNotFound
	}
	meta := m.meta[i]
	s := &snapshot.Snapshot{Revision: meta.Revision, Tick: meta.Tick, SavedAt: meta.SavedAt}
	for _, part := range snapshot.Parts {
		if err := s.SetDocument(part, m.saves[i][part]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len возвращает количество сохранений.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}
