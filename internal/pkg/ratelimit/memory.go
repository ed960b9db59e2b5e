package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entry tracks accepted requests for a single address.
type Entry struct {
	Count     int
	FirstSeen time.Time
}

// Memory is a process-local fixed window limiter. State is lost on restart,
// so the bound does not hold across cold starts.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*Entry
	now     func() time.Time
}

func NewMemory(max int, window time.Duration) *Memory {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		max:     max,
		window:  window,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	entry, ok := m.entries[key]
	if !ok || m.expired(entry, now) {
		m.entries[key] = &Entry{Count: 1, FirstSeen: now}
		return true
	}
	if entry.Count < m.max {
		entry.Count++
		return true
	}
	return false
}

// Lookup returns a copy of the entry for key, if tracked.
func (m *Memory) Lookup(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len is the number of tracked addresses.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// sweep drops every entry whose window has elapsed. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.FirstSeen) > m.window
}
