// Package conflict decides whether a candidate interval collides with the
// occupancy of a facility. Only APPROVED bookings occupy time; PENDING and
// REJECTED requests never block anything.
package conflict

import (
	"context"
	"fmt"

	"facilitybook/pkg/model"
	"facilitybook/pkg/slot"
)

// OccupancyFinder returns APPROVED bookings on facilityID and date whose
// half-open interval overlaps [start, end), skipping excludeID when set.
type OccupancyFinder interface {
	FindApprovedOverlapping(ctx context.Context, facilityID, date string, start, end slot.TimeOfDay, excludeID string) ([]*model.Booking, error)
}

type Query struct {
	FacilityID string
	Date       string
	Start      slot.TimeOfDay
	End        slot.TimeOfDay
	// ExcludeID is the booking being edited or approved, which must not
	// collide with itself.
	ExcludeID string
}

type Detector struct {
	finder OccupancyFinder
}

func NewDetector(finder OccupancyFinder) *Detector {
	return &Detector{finder: finder}
}

// FindConflict returns the earliest approved booking colliding with q, or nil.
func (d *Detector) FindConflict(ctx context.Context, q Query) (*model.Booking, error) {
	candidates, err := d.finder.FindApprovedOverlapping(ctx, q.FacilityID, q.Date, q.Start, q.End, q.ExcludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}

	// The store filter already applies the overlap test; it is repeated here
	// so a loose finder can never report a false conflict.
	var first *model.Booking
	for _, b := range candidates {
		if b.Status != model.StatusApproved || (q.ExcludeID != "" && b.ID == q.ExcludeID) {
			continue
		}
		if b.FacilityID != q.FacilityID || b.Date != q.Date {
			continue
		}
		if !slot.Overlaps(q.Start, q.End, b.StartSlot, b.EndSlot) {
			continue
		}
		if first == nil || b.StartSlot < first.StartSlot {
			first = b
		}
	}
	return first, nil
}

func (d *Detector) HasConflict(ctx context.Context, q Query) (bool, error) {
	b, err := d.FindConflict(ctx, q)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}
