package model

import (
	"errors"
	"time"

	"facilitybook/pkg/slot"
)

type BookingStatus string

const (
	StatusPending  BookingStatus = "PENDING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	StatusCanceled BookingStatus = "CANCELED"
)

// DateLayout is the storage and wire format of booking dates. Dates in this
// layout sort lexicographically in calendar order.
const DateLayout = "2006-01-02"

var (
	ErrInvalidTransition = errors.New("booking status transition not allowed")
	ErrReasonRequired    = errors.New("a reason is required")
)

// CalendarStatuses are the statuses shown on the calendar.
var CalendarStatuses = []BookingStatus{StatusPending, StatusApproved}

// CancelableStatuses are the statuses a booking may be canceled from.
var CancelableStatuses = []BookingStatus{StatusPending, StatusApproved, StatusRejected}

// EditableStatuses are the statuses a booking may be edited in.
var EditableStatuses = []BookingStatus{StatusPending, StatusApproved, StatusRejected}

type Booking struct {
	ID         string         `json:"id,omitempty" bson:"_id,omitempty"`
	FacilityID string         `json:"facility_id" bson:"facility_id"`
	OwnerID    string         `json:"owner_id" bson:"owner_id"`
	Date       string         `json:"date" bson:"date"`
	StartSlot  slot.TimeOfDay `json:"start_time" bson:"start_slot"`
	EndSlot    slot.TimeOfDay `json:"end_time" bson:"end_slot"`
	Title      string         `json:"title" bson:"title"`
	Status     BookingStatus  `json:"status" bson:"status"`

	ApprovedBy *string    `json:"approved_by,omitempty" bson:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" bson:"approved_at"`

	RejectedBy      *string    `json:"rejected_by,omitempty" bson:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" bson:"rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" bson:"rejection_reason"`

	CanceledBy   *string    `json:"canceled_by,omitempty" bson:"canceled_by"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty" bson:"canceled_at"`
	CancelReason string     `json:"cancel_reason,omitempty" bson:"cancel_reason"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the payload for creating or editing a booking.
// Times are raw wall-clock input and get normalized to the slot grid.
type BookingRequest struct {
	FacilityID string `json:"facility_id" validate:"required,max=64"`
	Date       string `json:"date" validate:"required,isodate"`
	StartTime  string `json:"start_time" validate:"required,hhmm"`
	EndTime    string `json:"end_time" validate:"required,hhmm"`
	Title      string `json:"title" validate:"omitempty,max=100"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=300"`
}

func (s BookingStatus) In(statuses ...BookingStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (b *Booking) IsOwner(userID string) bool {
	return userID != "" && b.OwnerID == userID
}

// ResetForSubmission puts the booking in a fresh PENDING decision cycle and
// clears every decision audit field.
func (b *Booking) ResetForSubmission() {
	b.Status = StatusPending
	b.clearApproval()
	b.clearRejection()
	b.CanceledBy, b.CanceledAt, b.CancelReason = nil, nil, ""
}

func (b *Booking) Approve(actorID string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusApproved
	b.ApprovedBy = &actorID
	b.ApprovedAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) Reject(actorID, reason string, now time.Time) error {
	if reason == "" {
		return ErrReasonRequired
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusRejected
	b.RejectedBy = &actorID
	b.RejectedAt = &now
	b.RejectionReason = reason
	b.clearApproval()
	b.UpdatedAt = now
	return nil
}

// Cancel is allowed from any non-canceled state. Earlier decision audit is
// retained.
func (b *Booking) Cancel(actorID, reason string, now time.Time) error {
	if !b.Status.In(CancelableStatuses...) {
		return ErrInvalidTransition
	}
	b.Status = StatusCanceled
	b.CanceledBy = &actorID
	b.CanceledAt = &now
	b.CancelReason = reason
	b.UpdatedAt = now
	return nil
}

// Reschedule applies new placement fields and reports whether any of
// facility, date or interval actually changed. A changed APPROVED or
// REJECTED booking returns to PENDING with its decision audit cleared.
func (b *Booking) Reschedule(facilityID, date string, start, end slot.TimeOfDay, now time.Time) (bool, error) {
	if !b.Status.In(EditableStatuses...) {
		return false, ErrInvalidTransition
	}

	changed := b.FacilityID != facilityID ||
		b.Date != date ||
		b.StartSlot != start ||
		b.EndSlot != end
	if !changed {
		return false, nil
	}

	b.FacilityID = facilityID
	b.Date = date
	b.StartSlot = start
	b.EndSlot = end
	b.Status = StatusPending
	b.clearApproval()
	b.clearRejection()
	b.UpdatedAt = now
	return true, nil
}

func (b *Booking) clearApproval() {
	b.ApprovedBy = nil
	b.ApprovedAt = nil
}

func (b *Booking) clearRejection() {
	b.RejectedBy = nil
	b.RejectedAt = nil
	b.RejectionReason = ""
}
