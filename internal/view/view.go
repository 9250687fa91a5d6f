// Package view derives per-day display state: it overlays event
// occurrences, fixed holidays and the weekend rule into the single
// classification the month grid is colored by.
package view

import (
	"time"

	"daycal/internal/holiday"
	"daycal/internal/model"
	"daycal/internal/store"
)

// Classifier combines the event store, the holiday table and the
// weekend rule. It only reads; all mutation goes through the store.
type Classifier struct {
	store    *store.Store
	holidays *holiday.Table

	// ShowHolidays toggles the holiday layer. Events and weekends are
	// always classified.
	ShowHolidays bool
}

// NewClassifier builds a classifier over the given store and table.
func NewClassifier(s *store.Store, h *holiday.Table, showHolidays bool) *Classifier {
	return &Classifier{store: s, holidays: h, ShowHolidays: showHolidays}
}

// Classify computes the display state of one date.
//
// Priority, highest first: a date with any event occurrence is
// "events" regardless of what lies underneath; then holiday (when
// enabled), then weekend, then ordinary. The holiday name, weekend
// flag and event list are reported alongside either way, so a caller
// can render an event marker on top of a holiday background.
func (c *Classifier) Classify(date model.Date) model.DayState {
	state := model.DayState{
		Date:      date,
		IsWeekend: date.IsWeekend(),
		Events:    c.store.QueryOnDate(date),
	}
	if name, ok := c.holidays.Lookup(date); ok {
		state.IsHoliday = true
		state.HolidayName = name
	}

	switch {
	case len(state.Events) > 0:
		state.Kind = model.DayEvents
	case c.ShowHolidays && state.IsHoliday:
		state.Kind = model.DayHoliday
	case state.IsWeekend:
		state.Kind = model.DayWeekend
	default:
		state.Kind = model.DayOrdinary
	}
	return state
}

// Week is one row of a month grid.
type Week [7]model.DayState

// MonthGrid is the classified month view: full weeks covering the
// month, padded with leading/trailing days of the adjacent months so
// every row is complete.
type MonthGrid struct {
	Year      int
	Month     time.Month
	WeekStart time.Weekday
	Weeks     []Week
}

// Month classifies every visible cell of the month view for the given
// year and month. weekStart selects the first column of the grid
// (Monday or Sunday; anything else falls back to Monday).
func (c *Classifier) Month(year int, month time.Month, weekStart time.Weekday) MonthGrid {
	if weekStart != time.Sunday && weekStart != time.Monday {
		weekStart = time.Monday
	}

	first := model.NewDate(year, month, 1)
	// Walk back to the week-start column.
	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	cursor := first.AddDays(-lead)

	grid := MonthGrid{Year: year, Month: month, WeekStart: weekStart}
	for {
		var week Week
		for i := 0; i < 7; i++ {
			week[i] = c.Classify(cursor)
			cursor = cursor.AddDays(1)
		}
		grid.Weeks = append(grid.Weeks, week)
		if cursor.Year > year || (cursor.Year == year && cursor.Month != month) {
			break
		}
	}
	return grid
}
