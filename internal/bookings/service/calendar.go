package service

import (
	"context"
	"time"

	apperrors "facilitybook/pkg/errors"
	"facilitybook/pkg/model"
)

// GetCalendar projects PENDING and APPROVED bookings onto a month or week
// window around reference. Every day of the window is present, empty or not.
// Any view other than week is treated as month.
func (s *bookingService) GetCalendar(ctx context.Context, view model.CalendarView, reference time.Time) (*model.Calendar, error) {
	if view != model.ViewWeek {
		view = model.ViewMonth
	}
	if reference.IsZero() {
		loc := s.cfg.Location
		if loc == nil {
			loc = time.UTC
		}
		reference = time.Now().In(loc)
	}
	reference = dateOnly(reference)

	var start, end time.Time
	if view == model.ViewWeek {
		start, end = weekRange(reference)
	} else {
		start, end = monthRange(reference)
	}

	from, to := start.Format(model.DateLayout), end.Format(model.DateLayout)
	bookings, err := s.repo.FindInRange(ctx, from, to, model.CalendarStatuses)
	if err != nil {
		s.log(ctx).Error("Failed to load calendar bookings", "from", from, "to", to, "error", err)
		return nil, apperrors.Internal("Failed to load calendar", err)
	}

	facilities, err := s.facilities.FindActive(ctx)
	if err != nil {
		s.log(ctx).Error("Failed to load facilities", "error", err)
		return nil, apperrors.Internal("Failed to load facilities", err)
	}

	byDay := make(map[string][]*model.Booking)
	for _, b := range bookings {
		byDay[b.Date] = append(byDay[b.Date], b)
	}

	cal := &model.Calendar{
		View:       view,
		Reference:  reference.Format(model.DateLayout),
		Start:      from,
		End:        to,
		Facilities: facilities,
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(model.DateLayout)
		dayBookings := byDay[date]
		if dayBookings == nil {
			dayBookings = []*model.Booking{}
		}
		cal.Days = append(cal.Days, model.CalendarDay{Date: date, Bookings: dayBookings})
	}
	if view == model.ViewMonth {
		cal.MonthGrid = monthGrid(reference)
	}

	return cal, nil
}

func (s *bookingService) ListFacilities(ctx context.Context) ([]*model.Facility, error) {
	facilities, err := s.facilities.FindActive(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load facilities", err)
	}
	return facilities, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// weekRange returns the Monday..Sunday week containing t.
func weekRange(t time.Time) (time.Time, time.Time) {
	monday := t.AddDate(0, 0, -mondayOffset(t))
	return monday, monday.AddDate(0, 0, 6)
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// monthGrid lays out whole Monday-first weeks covering t's month, including
// the neighbouring months' days that fill the first and last weeks.
func monthGrid(t time.Time) [][]string {
	first, last := monthRange(t)
	day := first.AddDate(0, 0, -mondayOffset(first))

	var grid [][]string
	for !day.After(last) {
		week := make([]string, 7)
		for i := range week {
			week[i] = day.Format(model.DateLayout)
			day = day.AddDate(0, 0, 1)
		}
		grid = append(grid, week)
	}
	return grid
}
