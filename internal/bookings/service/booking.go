package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facilitybook/internal/bookings/conflict"
	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/internal/bookings/lock"
	"facilitybook/internal/bookings/permission"
	"facilitybook/internal/bookings/repository"
	"facilitybook/internal/bookings/validator"
	"facilitybook/internal/notifications"
	"facilitybook/pkg/config"
	apperrors "facilitybook/pkg/errors"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/model"
	"facilitybook/pkg/sanitizer"
	"facilitybook/pkg/slot"
)

type BookingService interface {
	Create(ctx context.Context, actor *model.Actor, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error)
	Edit(ctx context.Context, actor *model.Actor, id string, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, actor *model.Actor, id string, reason string) (*model.Booking, error)

	Approve(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error)
	Reject(ctx context.Context, actor *model.Actor, id string, reason string) (*model.Booking, error)
	ListApprovals(ctx context.Context, actor *model.Actor, limit int, offset int64) ([]*model.Booking, int64, error)

	GetCalendar(ctx context.Context, view model.CalendarView, reference time.Time) (*model.Calendar, error)
	ListFacilities(ctx context.Context) ([]*model.Facility, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	facilities repository.FacilityRepository
	detector   *conflict.Detector
	locker     lock.Locker
	notifier   notifications.Notifier
	validator  *validator.BookingValidator
	cfg        *config.Config
	now        func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	facilities repository.FacilityRepository,
	locker lock.Locker,
	notifier notifications.Notifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}
	return &bookingService{
		repo:       repo,
		facilities: facilities,
		detector:   conflict.NewDetector(repo),
		locker:     locker,
		notifier:   notifier,
		validator:  validator,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *bookingService) Create(ctx context.Context, actor *model.Actor, req *model.BookingRequest) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	facility, err := s.findFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !permission.CanBook(actor, facility) {
		s.log(ctx).Warn("Booking denied by facility restrictions", "facility_id", facility.ID)
		return nil, apperrors.Forbidden("You are not allowed to book this facility")
	}

	start, end, err := normalizeInterval(req)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		FacilityID: facility.ID,
		OwnerID:    actor.ID,
		Date:       req.Date,
		StartSlot:  start,
		EndSlot:    end,
		Title:      req.Title,
	}
	booking.ResetForSubmission()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureNoConflict(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.log(ctx).Warn("Failed to create booking", "facility_id", facility.ID, "date", req.Date, "error", err)
		return nil, internalUnlessApp(err, "Failed to create booking")
	}

	s.log(ctx).Info("Booking created",
		"id", booking.ID,
		"facility_id", booking.FacilityID,
		"owner_id", booking.OwnerID,
		"date", booking.Date,
		"start", booking.StartSlot,
		"end", booking.EndSlot,
	)

	if facility.ApproverID != nil {
		s.notifier.Notify(ctx, *facility.ApproverID, "Booking approval request",
			fmt.Sprintf("%s requested %s. (%s)", displayName(actor), facility.Name, schedule(booking)))
	}
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.findBooking(ctx, id)
}

// Edit re-normalizes and re-validates the booking. A changed facility, date
// or interval starts a fresh decision cycle; a title-only edit keeps the
// current status.
func (s *bookingService) Edit(ctx context.Context, actor *model.Actor, id string, req *model.BookingRequest) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.In(model.EditableStatuses...) {
		return nil, apperrors.AlreadyDecided(string(booking.Status))
	}

	current, err := s.findFacility(ctx, booking.FacilityID)
	if err != nil {
		return nil, err
	}
	if !permission.CanEdit(actor, booking, current) {
		return nil, apperrors.Forbidden("You are not allowed to edit this booking")
	}

	target := current
	if req.FacilityID != booking.FacilityID {
		if target, err = s.findFacility(ctx, req.FacilityID); err != nil {
			return nil, err
		}
	}
	if !permission.CanBook(actor, target) && !(target.Active && permission.IsAdministrator(actor, target)) {
		return nil, apperrors.Forbidden("You are not allowed to book this facility")
	}

	start, end, err := normalizeInterval(req)
	if err != nil {
		return nil, err
	}

	previous := booking.Status
	changed, err := booking.Reschedule(target.ID, req.Date, start, end, s.now())
	if err != nil {
		return nil, apperrors.AlreadyDecided(string(previous))
	}
	booking.Title = req.Title

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureNoConflict(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateIfStatus(txCtx, booking, previous); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return s.alreadyDecided(txCtx, booking.ID)
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.log(ctx).Warn("Failed to edit booking", "id", id, "error", err)
		return nil, internalUnlessApp(err, "Failed to update booking")
	}

	s.log(ctx).Info("Booking edited",
		"id", booking.ID,
		"rescheduled", changed,
		"previous_status", previous,
		"status", booking.Status,
	)

	if changed && target.ApproverID != nil {
		s.notifier.Notify(ctx, *target.ApproverID, "Booking approval request",
			fmt.Sprintf("%s changed a booking of %s and it needs approval again. (%s)", displayName(actor), target.Name, schedule(booking)))
	}
	return booking, nil
}

// Cancel needs no exclusive section: cancellation never creates occupancy.
func (s *bookingService) Cancel(ctx context.Context, actor *model.Actor, id string, reason string) (*model.Booking, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	reason = sanitizer.NormalizeReason(reason)
	if err := s.validateReason(reason); err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	facility, err := s.findFacility(ctx, booking.FacilityID)
	if err != nil {
		return nil, err
	}
	if !permission.CanCancel(actor, booking, facility) {
		return nil, apperrors.Forbidden("You are not allowed to cancel this booking")
	}

	byOwner := booking.IsOwner(actor.ID)
	if !byOwner && reason == "" {
		return nil, apperrors.MissingReason("cancel")
	}

	previous := booking.Status
	if err := booking.Cancel(actor.ID, reason, s.now()); err != nil {
		return nil, apperrors.AlreadyDecided(string(previous))
	}

	booking, err = s.repo.MarkCanceled(ctx, booking.ID, actor.ID, reason, *booking.CanceledAt)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return nil, apperrors.AlreadyDecided(string(model.StatusCanceled))
		}
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	s.log(ctx).Info("Booking canceled",
		"id", booking.ID,
		"previous_status", previous,
		"by_owner", byOwner,
	)

	if !byOwner {
		body := fmt.Sprintf("Your booking of %s was canceled. (%s)", facility.Name, schedule(booking))
		if reason != "" {
			body += " Reason: " + reason
		}
		s.notifier.Notify(ctx, booking.OwnerID, "Booking canceled", body)
	}
	return booking, nil
}

// --- Helpers ---

// log returns the request-scoped logger, which already carries the request
// and actor ids when called from the HTTP stack.
func (s *bookingService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func requireAuthenticated(actor *model.Actor) error {
	if actor == nil || !actor.Authenticated {
		return apperrors.Unauthorized("Authentication required")
	}
	return nil
}

func (s *bookingService) validateRequest(req *model.BookingRequest) error {
	if req == nil {
		return apperrors.InvalidInput("Request body is required")
	}
	req.FacilityID = sanitizer.TrimAndNormalize(req.FacilityID)
	req.Date = sanitizer.TrimAndNormalize(req.Date)
	req.StartTime = sanitizer.TrimAndNormalize(req.StartTime)
	req.EndTime = sanitizer.TrimAndNormalize(req.EndTime)
	req.Title = sanitizer.NormalizeTitle(req.Title)

	if err := s.validator.ValidateRequest(req); err != nil {
		return validationError("Invalid booking request", err)
	}
	return nil
}

func (s *bookingService) validateReason(reason string) error {
	if err := s.validator.ValidateReason(&model.ReasonRequest{Reason: reason}); err != nil {
		return validationError("Invalid reason", err)
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// normalizeInterval snaps the requested times to the slot grid and rejects
// an interval that is empty once snapped.
func normalizeInterval(req *model.BookingRequest) (slot.TimeOfDay, slot.TimeOfDay, error) {
	start, err := slot.Parse(req.StartTime)
	if err != nil {
		return 0, 0, apperrors.InvalidInput(err.Error())
	}
	end, err := slot.Parse(req.EndTime)
	if err != nil {
		return 0, 0, apperrors.InvalidInput(err.Error())
	}

	start, end = slot.Normalize(start, end)
	if end <= start {
		return 0, 0, apperrors.InvalidInterval(start.String(), end.String())
	}
	return start, end, nil
}

func (s *bookingService) ensureNoConflict(ctx context.Context, b *model.Booking) error {
	existing, err := s.detector.FindConflict(ctx, conflict.Query{
		FacilityID: b.FacilityID,
		Date:       b.Date,
		Start:      b.StartSlot,
		End:        b.EndSlot,
		ExcludeID:  b.ID,
	})
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if existing != nil {
		return apperrors.SchedulingConflict(fmt.Sprintf(
			"The time overlaps an approved booking (%s-%s). Refresh and pick another time.",
			existing.StartSlot, existing.EndSlot,
		))
	}
	return nil
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) findFacility(ctx context.Context, id string) (*model.Facility, error) {
	facility, err := s.facilities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrFacilityNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Facility", id)
		}
		return nil, apperrors.Internal("Failed to retrieve facility", err)
	}
	return facility, nil
}

// alreadyDecided reports the status that won a lost status-guarded write.
func (s *bookingService) alreadyDecided(ctx context.Context, id string) error {
	latest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.AlreadyDecided("UNKNOWN")
	}
	return apperrors.AlreadyDecided(string(latest.Status))
}

func internalUnlessApp(err error, message string) error {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("The request took too long to complete")
	}
	return apperrors.Internal(message, err)
}

func displayName(actor *model.Actor) string {
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return actor.ID
}

func schedule(b *model.Booking) string {
	return fmt.Sprintf("%s %s-%s", b.Date, b.StartSlot, b.EndSlot)
}
