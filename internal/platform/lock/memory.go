package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memHold struct {
	token     string
	expiresAt time.Time
}

type memoryLocker struct {
	mu    sync.Mutex
	now   func() time.Time
	holds map[string]memHold
}

// NewMemory returns a process-local Locker.
func NewMemory() Locker {
	return &memoryLocker{now: time.Now, holds: map[string]memHold{}}
}

func (m *memoryLocker) TryAcquire(_ context.Context, name string, ttl time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if h, ok := m.holds[name]; ok && now.Before(h.expiresAt) {
		return nil, ErrHeld
	}
	token := uuid.New().String()
	m.holds[name] = memHold{token: token, expiresAt: now.Add(ttl)}
	return &lease{name: name, token: token, release: m.release}, nil
}

func (m *memoryLocker) release(_ context.Context, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.holds[name]; ok && h.token == token {
		delete(m.holds, name)
	}
	return nil
}
