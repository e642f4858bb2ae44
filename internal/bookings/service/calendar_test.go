package service

import (
	"context"
	"testing"
	"time"

	"facilitybook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(date string) time.Time {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(days []model.CalendarDay) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Date)
	}
	return out
}

func seedCalendar(f *fixture) (approved, pending *model.Booking) {
	approved = f.seed(facilityF, "13:00", "14:00", model.StatusApproved)
	pending = f.seed(facilityG, "09:00", "10:00", model.StatusPending)
	f.seed(facilityF, "15:00", "16:00", model.StatusRejected)
	f.seed(facilityF, "16:00", "17:00", model.StatusCanceled)

	nextWeek := f.seed(facilityF, "09:00", "10:00", model.StatusPending)
	nextWeek.Date = "2026-10-19"
	f.repo.put(nextWeek)

	nextMonth := f.seed(facilityF, "09:00", "10:00", model.StatusApproved)
	nextMonth.Date = "2026-11-01"
	f.repo.put(nextMonth)
	return approved, pending
}

func TestGetCalendar_Week(t *testing.T) {
	f := newFixture(t)
	approved, pending := seedCalendar(f)

	cal, err := f.svc.GetCalendar(context.Background(), model.ViewWeek, day(testDate))
	require.NoError(t, err)

	assert.Equal(t, model.ViewWeek, cal.View)
	assert.Equal(t, "2026-10-12", cal.Start)
	assert.Equal(t, "2026-10-18", cal.End)
	assert.Equal(t, []string{
		"2026-10-12", "2026-10-13", "2026-10-14", "2026-10-15",
		"2026-10-16", "2026-10-17", "2026-10-18",
	}, dates(cal.Days))
	assert.Nil(t, cal.MonthGrid)

	thursday := cal.Days[3]
	require.Len(t, thursday.Bookings, 2, "rejected and canceled bookings are hidden")
	assert.Equal(t, pending.ID, thursday.Bookings[0].ID, "ordered by start time")
	assert.Equal(t, approved.ID, thursday.Bookings[1].ID)

	for _, d := range cal.Days {
		assert.NotNil(t, d.Bookings, "empty days carry an empty list")
	}
}

func TestGetCalendar_WeekBoundaries(t *testing.T) {
	f := newFixture(t)

	for _, ref := range []string{"2026-10-12", "2026-10-18"} {
		cal, err := f.svc.GetCalendar(context.Background(), model.ViewWeek, day(ref))
		require.NoError(t, err)
		assert.Equal(t, "2026-10-12", cal.Start, ref)
		assert.Equal(t, "2026-10-18", cal.End, ref)
	}

	cal, err := f.svc.GetCalendar(context.Background(), model.ViewWeek, day("2026-12-30"))
	require.NoError(t, err)
	assert.Equal(t, "2026-12-28", cal.Start)
	assert.Equal(t, "2027-01-03", cal.End, "weeks may span a year boundary")
}

func TestGetCalendar_Month(t *testing.T) {
	f := newFixture(t)
	seedCalendar(f)

	cal, err := f.svc.GetCalendar(context.Background(), model.ViewMonth, day(testDate))
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01", cal.Start)
	assert.Equal(t, "2026-10-31", cal.End)
	assert.Len(t, cal.Days, 31)

	total := 0
	for _, d := range cal.Days {
		total += len(d.Bookings)
	}
	assert.Equal(t, 3, total, "next month's booking is outside the window")

	require.Len(t, cal.MonthGrid, 5)
	assert.Equal(t, "2026-09-28", cal.MonthGrid[0][0])
	assert.Equal(t, "2026-11-01", cal.MonthGrid[4][6])
	for _, week := range cal.MonthGrid {
		assert.Len(t, week, 7)
	}
}

func TestGetCalendar_UnknownViewFallsBackToMonth(t *testing.T) {
	f := newFixture(t)

	cal, err := f.svc.GetCalendar(context.Background(), model.CalendarView("year"), day("2027-02-10"))
	require.NoError(t, err)
	assert.Equal(t, model.ViewMonth, cal.View)
	assert.Equal(t, "2027-02-01", cal.Start)
	assert.Equal(t, "2027-02-28", cal.End)
	assert.Len(t, cal.MonthGrid, 4, "February 2027 starts on a Monday and spans four weeks")
}

func TestGetCalendar_ListsActiveFacilitiesByName(t *testing.T) {
	f := newFixture(t)

	cal, err := f.svc.GetCalendar(context.Background(), model.ViewWeek, day(testDate))
	require.NoError(t, err)

	var names []string
	for _, facility := range cal.Facilities {
		names = append(names, facility.Name)
	}
	assert.Equal(t, []string{"Board Room", "Conference Room F", "Gym", "Orphan Room"}, names)

	listed, err := f.svc.ListFacilities(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 4)
}

func TestGetCalendar_DefaultsToToday(t *testing.T) {
	f := newFixture(t)

	cal, err := f.svc.GetCalendar(context.Background(), model.ViewWeek, time.Time{})
	require.NoError(t, err)
	assert.Len(t, cal.Days, 7)
	assert.Equal(t, time.Now().UTC().Format(model.DateLayout), cal.Reference)
}
