// Package recur decides occurrence membership for events: whether a
// given event, per its recurrence rule, is active on a given civil
// date, and which concrete dates a rule produces within a year.
package recur

import (
	"time"

	"daycal/internal/model"
)

// OccursOn reports whether the event occurs on the candidate date.
//
// The end-date cutoff is checked before any recurrence logic and
// applies to every kind, including non-recurring events. An end date
// earlier than the anchor therefore yields no occurrences at all.
//
// Pure and deterministic: no side effects, same inputs always give
// the same answer.
func OccursOn(ev model.Event, date model.Date) bool {
	if ev.End != nil && date.After(*ev.End) {
		return false
	}

	switch ev.Recurrence {
	case model.RecurNone:
		return date == ev.Anchor
	case model.RecurDaily:
		return !date.Before(ev.Anchor)
	case model.RecurWeekly:
		if date.Before(ev.Anchor) {
			return false
		}
		return date.DaysSince(ev.Anchor)%7 == 0
	case model.RecurMonthly:
		// Months shorter than the anchor's day-of-month simply have
		// no occurrence: no rollover, no clamping to month end.
		if date.Before(ev.Anchor) {
			return false
		}
		return date.Day == ev.Anchor.Day
	case model.RecurYearly:
		if date.Before(ev.Anchor) {
			return false
		}
		return date.Month == ev.Anchor.Month && date.Day == ev.Anchor.Day
	default:
		return false
	}
}

// ExpandYear returns every occurrence of the event that falls within
// the given year, in ascending order. The walk steps forward from the
// later of the anchor and January 1st of the year, so it always
// terminates: the year end and the optional end date both bound it.
func ExpandYear(ev model.Event, year int) []model.Date {
	yearStart := model.NewDate(year, 1, 1)
	yearEnd := model.NewDate(year, 12, 31)

	last := yearEnd
	if ev.End != nil && ev.End.Before(last) {
		last = *ev.End
	}
	if last.Before(ev.Anchor) {
		return nil
	}

	var out []model.Date

	switch ev.Recurrence {
	case model.RecurNone:
		if ev.Anchor.Year == year {
			out = append(out, ev.Anchor)
		}
	case model.RecurDaily:
		d := ev.Anchor
		if d.Before(yearStart) {
			d = yearStart
		}
		for ; !d.After(last); d = d.AddDays(1) {
			out = append(out, d)
		}
	case model.RecurWeekly:
		d := ev.Anchor
		if d.Before(yearStart) {
			// Skip whole weeks up to the first occurrence on or
			// after the year start.
			behind := yearStart.DaysSince(d)
			d = d.AddDays((behind + 6) / 7 * 7)
		}
		for ; !d.After(last); d = d.AddDays(7) {
			out = append(out, d)
		}
	case model.RecurMonthly:
		for m := 1; m <= 12; m++ {
			d := model.NewDate(year, time.Month(m), ev.Anchor.Day)
			if !d.Valid() || d.Before(ev.Anchor) || d.After(last) {
				continue
			}
			out = append(out, d)
		}
	case model.RecurYearly:
		d := model.NewDate(year, ev.Anchor.Month, ev.Anchor.Day)
		if d.Valid() && !d.Before(ev.Anchor) && !d.After(last) {
			out = append(out, d)
		}
	}

	return out
}
