package refilltimer

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	deadline     Deadline
	hasDeadline  bool
	lastRefillID uint
}

// MemoryStore -> Store dalam proses, dipakai saat Redis tidak dikonfigurasi
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	configured map[string]time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		configured: make(map[string]time.Duration),
	}
}

func (m *MemoryStore) entry(code string) *memoryEntry {
	e, ok := m.entries[code]
	if !ok {
		e = &memoryEntry{}
		m.entries[code] = e
	}
	return e
}

func (m *MemoryStore) Deadline(_ context.Context, code string) (Deadline, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[code]
	if !ok || !e.hasDeadline {
		return Deadline{}, false, nil
	}
	return e.deadline, true, nil
}

func (m *MemoryStore) SetDeadline(_ context.Context, code string, d Deadline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(code)
	e.deadline = d
	e.hasDeadline = true
	return nil
}

func (m *MemoryStore) LastRefillID(_ context.Context, code string) (uint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[code]
	if !ok || e.lastRefillID == 0 {
		return 0, false, nil
	}
	return e.lastRefillID, true, nil
}

func (m *MemoryStore) SetLastRefillID(_ context.Context, code string, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(code).lastRefillID = id
	return nil
}

func (m *MemoryStore) ConfiguredDuration(_ context.Context, code string) (time.Duration, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.configured[code]
	return d, ok, nil
}

func (m *MemoryStore) SetConfiguredDuration(_ context.Context, code string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[code] = d
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, code)
	return nil
}

func (m *MemoryStore) ClearDeadline(_ context.Context, code string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[code]
	if !ok || !e.hasDeadline || e.deadline.At.UnixMilli() != at.UnixMilli() {
		return false, nil
	}
	delete(m.entries, code)
	return true, nil
}

func (m *MemoryStore) TableCodes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := []string{}
	for code, e := range m.entries {
		if e.hasDeadline {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}
