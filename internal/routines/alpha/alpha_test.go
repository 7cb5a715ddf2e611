package alpha

import (
	"context"
	"time"

	"github.com/basket/routines/internal/routine"
)

// nightClock is a fixed reference instant: Sunday, June 1 2025, 9:45 PM.
var nightClock = time.Date(2025, 6, 1, 21, 45, 0, 0, time.UTC)

// fakeStore is an in-memory routine.SessionStore that records the expiry
// passed to each write.
type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeStore) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if _, ok := s.values[key]; !ok {
		return false, nil
	}
	s.ttls[key] = ttl
	return true, nil
}

// fakeMemories is a canned routine.MemoryReader that remembers the cutoff it
// was asked for.
type fakeMemories struct {
	memories []routine.Memory
	err      error
	gotSince time.Time
}

func (m *fakeMemories) Since(_ context.Context, t time.Time) ([]routine.Memory, error) {
	m.gotSince = t
	if m.err != nil {
		return nil, m.err
	}
	return m.memories, nil
}

func runContext(now time.Time, name, sessionID string) routine.Context {
	return routine.Context{
		Now:          now,
		IsNewSession: sessionID == "",
		SessionID:    sessionID,
		Routine:      name,
		RunID:        "run-test",
	}
}
