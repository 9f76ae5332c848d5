package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a per-process fixed-window limiter.
type Memory struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	count     int
	lastReset time.Time
	window    time.Duration
}

// NewMemory creates an in-memory limiter.
func NewMemory() *Memory {
	return &Memory{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow consumes one request for key if the current window has room.
func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v, ok := m.visitors[key]
	if !ok || now.Sub(v.lastReset) >= window {
		m.visitors[key] = &visitor{count: 1, lastReset: now, window: window}
		return limit > 0, nil
	}

	if v.count >= limit {
		return false, nil
	}
	v.count++
	return true, nil
}

// Sweep removes visitors idle for more than two windows.
func (m *Memory) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, v := range m.visitors {
		if now.Sub(v.lastReset) > v.window*2 {
			delete(m.visitors, key)
		}
	}
}

// Run sweeps stale visitors every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Memory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
