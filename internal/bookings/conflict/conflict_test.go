package conflict

import (
	"context"
	"errors"
	"testing"

	"facilitybook/pkg/model"
	"facilitybook/pkg/slot"
)

// mockFinder applies no filtering so the detector's own checks are exercised.
type mockFinder struct {
	bookings []*model.Booking
	err      error
}

func (m *mockFinder) FindApprovedOverlapping(_ context.Context, _, _ string, _, _ slot.TimeOfDay, _ string) ([]*model.Booking, error) {
	return m.bookings, m.err
}

func booking(id string, status model.BookingStatus, startH, startM, endH, endM int) *model.Booking {
	return &model.Booking{
		ID:         id,
		FacilityID: "f1",
		Date:       "2026-10-15",
		StartSlot:  slot.MustNew(startH, startM),
		EndSlot:    slot.MustNew(endH, endM),
		Status:     status,
	}
}

func query(startH, startM, endH, endM int, exclude string) Query {
	return Query{
		FacilityID: "f1",
		Date:       "2026-10-15",
		Start:      slot.MustNew(startH, startM),
		End:        slot.MustNew(endH, endM),
		ExcludeID:  exclude,
	}
}

func TestDetector_HasConflict(t *testing.T) {
	existing := []*model.Booking{
		booking("a", model.StatusApproved, 9, 0, 10, 0),
		booking("p", model.StatusPending, 11, 0, 12, 0),
		booking("r", model.StatusRejected, 13, 0, 14, 0),
		booking("c", model.StatusCanceled, 15, 0, 16, 0),
	}

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"overlaps approved", query(9, 30, 10, 30, ""), true},
		{"contains approved", query(8, 0, 11, 0, ""), true},
		{"inside approved", query(9, 30, 10, 0, ""), true},
		{"touching end is free", query(10, 0, 11, 0, ""), false},
		{"touching start is free", query(8, 0, 9, 0, ""), false},
		{"pending is not occupancy", query(11, 0, 12, 0, ""), false},
		{"rejected is not occupancy", query(13, 0, 14, 0, ""), false},
		{"canceled is not occupancy", query(15, 0, 16, 0, ""), false},
		{"self is excluded", query(9, 0, 10, 0, "a"), false},
	}

	d := NewDetector(&mockFinder{bookings: existing})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.HasConflict(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetector_IgnoresOtherFacilityAndDate(t *testing.T) {
	other := booking("x", model.StatusApproved, 9, 0, 10, 0)
	other.FacilityID = "f2"
	otherDay := booking("y", model.StatusApproved, 9, 0, 10, 0)
	otherDay.Date = "2026-10-16"

	d := NewDetector(&mockFinder{bookings: []*model.Booking{other, otherDay}})
	got, err := d.HasConflict(context.Background(), query(9, 0, 10, 0, ""))
	if err != nil || got {
		t.Errorf("expected no conflict, got %v err=%v", got, err)
	}
}

func TestDetector_FindConflictReturnsEarliest(t *testing.T) {
	d := NewDetector(&mockFinder{bookings: []*model.Booking{
		booking("late", model.StatusApproved, 10, 0, 11, 0),
		booking("early", model.StatusApproved, 8, 30, 9, 30),
	}})

	got, err := d.FindConflict(context.Background(), query(9, 0, 10, 30, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "early" {
		t.Errorf("expected earliest conflict, got %+v", got)
	}
}

func TestDetector_PropagatesFinderError(t *testing.T) {
	boom := errors.New("store unavailable")
	d := NewDetector(&mockFinder{err: boom})

	if _, err := d.HasConflict(context.Background(), query(9, 0, 10, 0, "")); !errors.Is(err, boom) {
		t.Errorf("expected wrapped finder error, got %v", err)
	}
}
