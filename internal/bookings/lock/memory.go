package lock

import (
	"context"
	"sync"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"

	"github.com/google/uuid"
)

// MemoryLocker serializes sections within one process. It is used by tests
// and single-instance deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryHold
	clock func() time.Time
}

type memoryHold struct {
	owner     string
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryHold), clock: time.Now}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return nil, bookingserrors.ErrLockBusy
	}

	owner := uuid.NewString()
	l.held[key] = memoryHold{owner: owner, expiresAt: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, owner: owner}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	owner  string
}

func (m *memoryLease) Release(context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	h, ok := m.locker.held[m.key]
	if !ok || h.owner != m.owner {
		return bookingserrors.ErrLockLost
	}
	delete(m.locker.held, m.key)
	return nil
}
