package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/pkg/model"

	"github.com/google/uuid"
)

// LockStore persists advisory lock documents. Create must fail with
// bookingserrors.ErrLockBusy when a document with the same id exists.
type LockStore interface {
	Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	DeleteOwned(ctx context.Context, lockID, owner string) error
	DeleteExpired(ctx context.Context, lockID string, now time.Time) error
}

// MongoLocker stores one document per held key in the Booking_locks
// collection. The unique _id gives mutual exclusion across instances; a TTL
// index and DeleteExpired clear locks left by crashed holders.
type MongoLocker struct {
	store LockStore
	clock func() time.Time
}

func NewMongoLocker(store LockStore) *MongoLocker {
	return &MongoLocker{store: store, clock: time.Now}
}

func (l *MongoLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	now := l.clock().UTC()
	doc := &model.BookingLock{
		ID:        key,
		Owner:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}

	_, err := l.store.Create(ctx, doc)
	if errors.Is(err, bookingserrors.ErrLockBusy) {
		// The TTL monitor runs about once a minute, so a stale holder is
		// cleared here before retrying once.
		if delErr := l.store.DeleteExpired(ctx, key, now); delErr != nil {
			return nil, fmt.Errorf("failed to clear expired lock: %w", delErr)
		}
		_, err = l.store.Create(ctx, doc)
	}
	if err != nil {
		return nil, err
	}

	return &mongoLease{store: l.store, key: key, owner: doc.Owner}, nil
}

type mongoLease struct {
	store LockStore
	key   string
	owner string
}

func (m *mongoLease) Release(ctx context.Context) error {
	return m.store.DeleteOwned(ctx, m.key, m.owner)
}
