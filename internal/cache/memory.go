package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type bucket struct {
	version int64
	entries map[string]entry
}

// Memory is an in-process Cache with a fixed TTL per entry. Expired entries are swept
// on write at most once per TTL.
type Memory struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	tenants   map[string]*bucket
}

var _ Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		tenants: make(map[string]*bucket),
	}
}

func (m *Memory) Version(_ context.Context, tenantID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.tenants[tenantID]; ok {
		return b.version, nil
	}
	return 0, nil
}

func (m *Memory) Get(_ context.Context, tenantID string, version int64, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.tenants[tenantID]
	if !ok || b.version != version {
		return nil, ErrMiss
	}
	e, ok := b.entries[key]
	if !ok || m.expired(e, m.now()) {
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value unless the tenant has been invalidated since version was read.
func (m *Memory) Set(_ context.Context, tenantID string, version int64, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	b, ok := m.tenants[tenantID]
	if !ok {
		b = &bucket{entries: make(map[string]entry)}
		m.tenants[tenantID] = b
	}
	if b.version != version {
		return nil
	}
	b.entries[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(m.ttl),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.tenants[tenantID]
	if !ok {
		b = &bucket{}
		m.tenants[tenantID] = b
	}
	b.version++
	b.entries = make(map[string]entry)
	return nil
}

func (m *Memory) Close() error { return nil }

// sweep drops expired entries across all tenants. Must hold mu.
func (m *Memory) sweep(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now
	for _, b := range m.tenants {
		for key, e := range b.entries {
			if m.expired(e, now) {
				delete(b.entries, key)
			}
		}
	}
}

func (m *Memory) expired(e entry, now time.Time) bool {
	return m.ttl > 0 && !now.Before(e.expiresAt)
}
