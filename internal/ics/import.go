package ics

import (
	"bytes"
	"errors"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "daycal/internal/log"
	"daycal/internal/model"
)

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int
	// Skipped counts VEVENTs that could not be mapped onto the
	// engine's event model (timed events, complex RRULEs, missing
	// fields). Skipping is per-event and never aborts the import.
	Skipped int
}

// Import parses an ICS payload and maps its VEVENTs onto store
// events. Only all-day events are supported, and only RRULEs that the
// engine can represent: FREQ of DAILY/WEEKLY/MONTHLY/YEARLY with
// interval 1, optionally bounded by UNTIL (mapped to the inclusive
// end date). Anything else is skipped and logged.
func Import(body []byte) ([]model.Event, ImportResult, error) {
	var result ImportResult

	if len(body) == 0 {
		return nil, result, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, result, err
	}

	var events []model.Event
	for _, ve := range cal.Events() {
		ev, err := mapVEvent(ve)
		if err != nil {
			result.Skipped++
			appLog.Error("ics import: skipping event", err, "uid", uidOf(ve))
			continue
		}
		events = append(events, ev)
		result.Imported++
	}
	return events, result, nil
}

func mapVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if out.Title == "" {
		return out, errors.New("missing SUMMARY")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	if !isAllDay(dtStart) {
		return out, errors.New("timed events are not supported")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Anchor = model.DateOf(start)

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		recurrence, end, err := mapRRule(p.Value)
		if err != nil {
			return out, err
		}
		out.Recurrence = recurrence
		out.End = end
	}

	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// mapRRule classifies an RRULE string into one of the engine's
// recurrence kinds. Rules the engine cannot represent are rejected.
func mapRRule(value string) (model.Recurrence, *model.Date, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return model.RecurNone, nil, err
	}

	if opt.Interval > 1 {
		return model.RecurNone, nil, errors.New("intervals other than 1 are not supported")
	}
	if opt.Count > 0 {
		return model.RecurNone, nil, errors.New("COUNT-bounded rules are not supported")
	}
	if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 ||
		len(opt.Bysetpos) > 0 || len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 {
		return model.RecurNone, nil, errors.New("BY-part rules are not supported")
	}

	var recurrence model.Recurrence
	switch opt.Freq {
	case rrule.DAILY:
		recurrence = model.RecurDaily
	case rrule.WEEKLY:
		recurrence = model.RecurWeekly
	case rrule.MONTHLY:
		recurrence = model.RecurMonthly
	case rrule.YEARLY:
		recurrence = model.RecurYearly
	default:
		return model.RecurNone, nil, errors.New("unsupported FREQ")
	}

	var end *model.Date
	if !opt.Until.IsZero() {
		d := model.DateOf(opt.Until)
		end = &d
	}
	return recurrence, end, nil
}

// isAllDay reports whether DTSTART denotes a date (VALUE=DATE or a
// value without a time part).
func isAllDay(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && vs[0] == "DATE" {
			return true
		}
	}
	return !bytes.ContainsRune([]byte(p.Value), 'T')
}

func uidOf(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}
