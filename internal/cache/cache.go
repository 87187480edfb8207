package cache

import (
	"context"
	"sync"

	"gudangkita/backend/internal/domain"
)

// Coordination flags: named presence markers giving coarse mutual exclusion
// between a manual resync, the scheduled analytics refresh and a period-close
// run. They carry no expiry; a crashed run can leave one stuck, so they must
// remain clearable by an operator.
const (
	FlagSyncing   = "sync:stock"   // reconciliation in progress
	FlagArchiving = "take:stock"   // period close in progress
	FlagCached    = "cached:stock" // analytics snapshot is cached
	FlagStop      = "stop:stock"   // sync finished, clients should reload
)

// AnalyticsKey names the serialized analytics snapshot blob.
const AnalyticsKey = "analytics"

type Cache interface {
	HasFlag(ctx context.Context, flag string) (bool, error)
	SetFlag(ctx context.Context, flag string) error
	ClearFlags(ctx context.Context, flags ...string) error
	SetAnalytics(ctx context.Context, snapshot *domain.Analytics) error
	Analytics(ctx context.Context) (*domain.Analytics, bool, error)
	ClearAnalytics(ctx context.Context) error
}

// Memory is a process-local Cache used in tests and when no REDIS_ADDR is
// configured.
type Memory struct {
	mu        sync.RWMutex
	flags     map[string]bool
	analytics *domain.Analytics
}

func NewMemory() *Memory {
	return &Memory{flags: make(map[string]bool)}
}

func (m *Memory) HasFlag(_ context.Context, flag string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[flag], nil
}

func (m *Memory) SetFlag(_ context.Context, flag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[flag] = true
	return nil
}

func (m *Memory) ClearFlags(_ context.Context, flags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, flag := range flags {
		delete(m.flags, flag)
	}
	return nil
}

func (m *Memory) SetAnalytics(_ context.Context, snapshot *domain.Analytics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analytics = snapshot
	return nil
}

func (m *Memory) Analytics(_ context.Context) (*domain.Analytics, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.analytics == nil {
		return nil, false, nil
	}
	return m.analytics, true, nil
}

func (m *Memory) ClearAnalytics(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analytics = nil
	return nil
}
