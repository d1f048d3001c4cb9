package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

type memoryEntry struct {
	record  Record
	payload []byte
}

// MemoryStore keeps encoded models in a map. Loads decode a fresh model,
// so callers never share tables with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	closed  bool
	entries map[string]memoryEntry
	metrics OperationRecorder
}

func NewMemoryStore(metrics OperationRecorder) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		metrics: recorderOrNop(metrics),
	}
}

func (s *MemoryStore) Save(_ context.Context, name string, m *model.Model) (rec Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "save", start, err) }(time.Now())
	if name == "" {
		return Record{}, ErrEmptyName
	}
	payload, rec, err := Encode(name, m)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Record{}, ErrClosed
	}
	s.entries[name] = memoryEntry{record: rec, payload: payload}
	s.metrics.SetStoredModels(len(s.entries))
	return rec, nil
}

func (s *MemoryStore) Load(_ context.Context, name string) (m *model.Model, err error) {
	defer func(start time.Time) { observe(s.metrics, "load", start, err) }(time.Now())

	s.mu.RLock()
	closed := s.closed
	entry, ok := s.entries[name]
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, ErrNotFound
	}
	m, _, err = Decode(entry.payload)
	return m, err
}

func (s *MemoryStore) List(_ context.Context) (_ []Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "list", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]Record, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}
