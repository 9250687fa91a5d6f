// Package ics bridges the event store to the iCalendar world: export
// of stored events as all-day VEVENTs with RRULEs, and import of
// simple ICS payloads back into store events.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"daycal/internal/model"
	"daycal/internal/recur"
	"daycal/internal/store"
)

const productID = "-//daycal//daycal//EN"

// Export renders the store's events as an iCalendar document. Events
// are all-day VEVENTs anchored on their anchor date; recurring events
// carry an RRULE with UNTIL when an end date is set. If year is
// non-zero, only events with at least one occurrence in that year are
// included.
func Export(s *store.Store, year int) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	now := time.Now().UTC()

	for _, anchor := range s.Anchors() {
		for i, ev := range s.EventsAnchoredOn(anchor) {
			if year != 0 && len(recur.ExpandYear(ev, year)) == 0 {
				continue
			}

			uid := fmt.Sprintf("%s-%d@daycal", ev.Anchor, i)
			ve := cal.AddEvent(uid)
			ve.SetDtStampTime(now)
			ve.SetSummary(ev.Title)
			ve.SetAllDayStartAt(ev.Anchor.Time())
			ve.SetAllDayEndAt(ev.Anchor.AddDays(1).Time())

			if ev.Recurrence != model.RecurNone {
				rule, err := ruleString(ev)
				if err != nil {
					return "", err
				}
				ve.AddRrule(rule)
			}
		}
	}

	return cal.Serialize(), nil
}

// ruleString builds the RRULE value for a recurring event.
func ruleString(ev model.Event) (string, error) {
	opt := rrule.ROption{Dtstart: ev.Anchor.Time()}

	switch ev.Recurrence {
	case model.RecurDaily:
		opt.Freq = rrule.DAILY
	case model.RecurWeekly:
		opt.Freq = rrule.WEEKLY
	case model.RecurMonthly:
		opt.Freq = rrule.MONTHLY
	case model.RecurYearly:
		opt.Freq = rrule.YEARLY
	default:
		return "", fmt.Errorf("no RRULE for recurrence %s", ev.Recurrence)
	}
	if ev.End != nil {
		opt.Until = ev.End.Time()
	}

	return opt.RRuleString(), nil
}
