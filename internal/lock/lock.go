package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNotObtained is returned when the key is already held.
var ErrNotObtained = errors.New("lock: not obtained")

// Locker hands out exclusive, expiring holds on string keys. A hold that is
// never released frees itself after its ttl.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error)
}

type Releaser interface {
	Release(ctx context.Context) error
}

// Key joins the parts into a lock key, e.g. inflight:<actor>:<action>:<target>.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Memory is a process-local Locker.
type Memory struct {
	mu    sync.Mutex
	held  map[string]memoryHold
	now   func() time.Time
	token uint64
}

type memoryHold struct {
	token     uint64
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]memoryHold), now: time.Now}
}

func (m *Memory) Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.held[key]; ok && now.Before(h.expiresAt) {
		return nil, ErrNotObtained
	}
	m.token++
	m.held[key] = memoryHold{token: m.token, expiresAt: now.Add(ttl)}
	return &memoryRelease{m: m, key: key, token: m.token}, nil
}

type memoryRelease struct {
	m     *Memory
	key   string
	token uint64
}

// Release frees the key unless it has since expired and been taken by
// another holder.
func (r *memoryRelease) Release(ctx context.Context) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if h, ok := r.m.held[r.key]; ok && h.token == r.token {
		delete(r.m.held, r.key)
	}
	return nil
}
