// Package lock provides the exclusive section used when a booking decision
// could create occupancy. Sections are keyed by facility and date, which
// covers the decided booking and every booking that could collide with it.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"
)

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 200 * time.Millisecond

	releaseTimeout = 5 * time.Second
)

// Locker acquires a named lock without waiting. A held lock yields
// bookingserrors.ErrLockBusy. The lock expires after ttl if never released.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type Options struct {
	TTL         time.Duration
	WaitTimeout time.Duration
}

func FacilityDateKey(facilityID, date string) string {
	return fmt.Sprintf("facility:%s:date:%s", facilityID, date)
}

// WithLock runs fn while holding key, retrying acquisition with capped
// backoff for up to opts.WaitTimeout. fn is expected to finish well within
// opts.TTL.
func WithLock(ctx context.Context, locker Locker, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := acquire(ctx, locker, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		_ = lease.Release(releaseCtx)
	}()

	return fn(ctx)
}

func acquire(ctx context.Context, locker Locker, key string, opts Options) (Lease, error) {
	deadline := time.Now().Add(opts.WaitTimeout)
	backoff := minBackoff

	for {
		lease, err := locker.TryAcquire(ctx, key, opts.TTL)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockBusy) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if time.Now().Add(backoff).After(deadline) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrLockBusy, key)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
