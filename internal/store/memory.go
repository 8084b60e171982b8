package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// MemoryStore keeps snapshots in process memory. Rooms do not survive a
// restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	ttl     time.Duration
	clock   quartz.Clock
}

// NewMemoryStore creates an empty store
func NewMemoryStore(ttl time.Duration, clock quartz.Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &MemoryStore{records: make(map[string]Record), ttl: ttl, clock: clock}
}

func (s *MemoryStore) Save(_ context.Context, code string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[code] = newRecord(code, snapshot, s.clock.Now(), s.ttl)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, code string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Expired(s.clock.Now()) {
		delete(s.records, code)
		return nil, ErrNotFound
	}
	return append([]byte(nil), rec.Snapshot...), nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, code)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var codes []string
	for code, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, code)
			continue
		}
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}
