package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/internal/bookings/lock"
	"facilitybook/internal/bookings/permission"
	apperrors "facilitybook/pkg/errors"
	"facilitybook/pkg/model"
	"facilitybook/pkg/sanitizer"
)

// Approve is the only operation that creates occupancy. The status guard and
// the conflict check are repeated inside the facility/date section so two
// approvers racing on overlapping requests cannot both win.
func (s *bookingService) Approve(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	booking, facility, err := s.loadForDecision(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var approved *model.Booking
	err = s.decide(ctx, booking, func(txCtx context.Context, current *model.Booking) error {
		if err := s.ensureNoConflict(txCtx, current); err != nil {
			return err
		}
		if err := current.Approve(actor.ID, s.now()); err != nil {
			return apperrors.AlreadyDecided(string(current.Status))
		}
		if err := s.repo.UpdateIfStatus(txCtx, current, model.StatusPending); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return s.alreadyDecided(txCtx, current.ID)
			}
			return apperrors.Internal("Failed to approve booking", err)
		}
		approved = current
		return nil
	})
	if err != nil {
		s.log(ctx).Warn("Booking approval failed", "id", id, "error", err)
		return nil, err
	}

	s.log(ctx).Info("Booking approved",
		"id", approved.ID,
		"facility_id", approved.FacilityID,
		"date", approved.Date,
		"approver_id", actor.ID,
	)
	s.notifier.Notify(ctx, approved.OwnerID, "Booking approved",
		fmt.Sprintf("Your booking of %s was approved. (%s)", facility.Name, schedule(approved)))
	return approved, nil
}

// Reject checks the reason before anything else; rejection never creates
// occupancy so no conflict check is made.
func (s *bookingService) Reject(ctx context.Context, actor *model.Actor, id string, reason string) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	reason = sanitizer.NormalizeReason(reason)
	if reason == "" {
		return nil, apperrors.MissingReason("reject")
	}
	if err := s.validateReason(reason); err != nil {
		return nil, err
	}

	booking, facility, err := s.loadForDecision(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var rejected *model.Booking
	err = s.decide(ctx, booking, func(txCtx context.Context, current *model.Booking) error {
		if err := current.Reject(actor.ID, reason, s.now()); err != nil {
			return apperrors.AlreadyDecided(string(current.Status))
		}
		if err := s.repo.UpdateIfStatus(txCtx, current, model.StatusPending); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return s.alreadyDecided(txCtx, current.ID)
			}
			return apperrors.Internal("Failed to reject booking", err)
		}
		rejected = current
		return nil
	})
	if err != nil {
		s.log(ctx).Warn("Booking rejection failed", "id", id, "error", err)
		return nil, err
	}

	s.log(ctx).Info("Booking rejected", "id", rejected.ID, "approver_id", actor.ID)
	s.notifier.Notify(ctx, rejected.OwnerID, "Booking rejected",
		fmt.Sprintf("Your booking of %s was rejected. Reason: %s", facility.Name, reason))
	return rejected, nil
}

func (s *bookingService) loadForDecision(ctx context.Context, actor *model.Actor, id string) (*model.Booking, *model.Facility, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	facility, err := s.findFacility(ctx, booking.FacilityID)
	if err != nil {
		return nil, nil, err
	}
	if !permission.CanApprove(actor, facility) {
		return nil, nil, apperrors.Forbidden("Only the facility approver can decide this booking")
	}
	if booking.Status != model.StatusPending {
		return nil, nil, apperrors.AlreadyDecided(string(booking.Status))
	}
	return booking, facility, nil
}

// decide runs fn on a freshly read booking inside the facility/date lock and
// a transaction. The booking read before locking only chooses the key.
func (s *bookingService) decide(ctx context.Context, snapshot *model.Booking, fn func(ctx context.Context, current *model.Booking) error) error {
	key := lock.FacilityDateKey(snapshot.FacilityID, snapshot.Date)
	opts := lock.Options{TTL: s.cfg.LockTTL, WaitTimeout: s.cfg.LockWaitTimeout}

	err := lock.WithLock(ctx, s.locker, key, opts, func(lockedCtx context.Context) error {
		return s.repo.ExecuteTransaction(lockedCtx, func(txCtx context.Context) error {
			current, err := s.findBooking(txCtx, snapshot.ID)
			if err != nil {
				return err
			}
			if current.Status != model.StatusPending {
				return apperrors.AlreadyDecided(string(current.Status))
			}
			if current.FacilityID != snapshot.FacilityID || current.Date != snapshot.Date {
				return apperrors.SchedulingConflict("The booking was changed while being decided. Refresh and try again.")
			}
			return fn(txCtx, current)
		})
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, bookingserrors.ErrLockBusy):
		return apperrors.Conflict("Another decision for this facility and date is in progress. Please retry.")
	default:
		return internalUnlessApp(err, "Failed to decide booking")
	}
}

// ListApprovals returns the PENDING queue visible to actor: everything for a
// superuser, otherwise the active facilities actor approves.
func (s *bookingService) ListApprovals(ctx context.Context, actor *model.Actor, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, 0, err
	}

	var facilityIDs []string
	if !actor.Superuser {
		owned, err := s.facilities.FindActiveByApprover(ctx, actor.ID)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to retrieve facilities", err)
		}
		if len(owned) == 0 {
			return nil, 0, apperrors.Forbidden("You do not approve any facility")
		}
		facilityIDs = make([]string, 0, len(owned))
		for _, f := range owned {
			facilityIDs = append(facilityIDs, f.ID)
		}
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountPending(ctx, facilityIDs)
		if errCount != nil {
			s.log(ctx).Error("Failed to count pending bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count pending bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindPending(ctx, facilityIDs, limit, offset)
		if errFind != nil {
			s.log(ctx).Error("Failed to list pending bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve pending bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.log(ctx).Debug("Approval queue listed",
		"superuser", actor.Superuser,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}
