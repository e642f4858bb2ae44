package model

type CalendarView string

const (
	ViewMonth CalendarView = "month"
	ViewWeek  CalendarView = "week"
)

type CalendarDay struct {
	Date     string     `json:"date"`
	Bookings []*Booking `json:"bookings"`
}

// Calendar is a read-only projection of bookings over a date window.
type Calendar struct {
	View       CalendarView  `json:"view"`
	Reference  string        `json:"reference_date"`
	Start      string        `json:"start"`
	End        string        `json:"end"`
	Days       []CalendarDay `json:"days"`
	Facilities []*Facility   `json:"facilities"`
	// MonthGrid holds Monday-first weeks covering the month; month view only.
	MonthGrid [][]string `json:"month_grid,omitempty"`
}
