package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form used everywhere a date crosses a
// boundary: the data file, the HTTP API, and log output.
const DateLayout = "2006-01-02"

// Date is a civil calendar date: a year/month/day triple with no
// time-of-day and no timezone. All calendar arithmetic goes through
// time.Date at UTC midnight so that month lengths and weekdays come
// out of the standard library instead of being reimplemented here.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date from its components. The components are
// taken as-is; use Valid to check that they name a real calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates a time.Time to its civil date, ignoring location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date as a time.Time at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// Valid reports whether the triple names an actual calendar day
// (e.g. rejects February 30).
func (d Date) Valid() bool {
	return DateOf(d.Time()) == d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// DaysSince returns the number of whole days from other to d
// (negative if d is earlier).
func (d Date) DaysSince(other Date) int {
	return int(d.Time().Sub(other.Time()) / (24 * time.Hour))
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the day of week for d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Recurrence is the stepping rule of an event. The five kinds share
// the anchor/end-date fields and differ only in how occurrences step
// forward from the anchor.
type Recurrence int

const (
	RecurNone Recurrence = iota
	RecurDaily
	RecurWeekly
	RecurMonthly
	RecurYearly
)

var recurrenceNames = map[Recurrence]string{
	RecurNone:    "none",
	RecurDaily:   "daily",
	RecurWeekly:  "weekly",
	RecurMonthly: "monthly",
	RecurYearly:  "yearly",
}

func (r Recurrence) String() string {
	if name, ok := recurrenceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("recurrence(%d)", int(r))
}

// ParseRecurrence maps a recurrence name (any case) to its kind.
func ParseRecurrence(s string) (Recurrence, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for r, n := range recurrenceNames {
		if n == name {
			return r, nil
		}
	}
	return RecurNone, fmt.Errorf("unknown recurrence %q", s)
}

// MarshalJSON encodes the recurrence as its lower-case name.
func (r Recurrence) MarshalJSON() ([]byte, error) {
	name, ok := recurrenceNames[r]
	if !ok {
		return nil, fmt.Errorf("cannot encode recurrence %d", int(r))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a recurrence name, accepting any case.
func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRecurrence(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Event is one user-declared occurrence rule. Events are immutable
// once created: deletion replaces, never mutates in place.
type Event struct {
	// Title is the display label; never empty for a stored event.
	Title string

	// Anchor is the first occurrence of the rule.
	Anchor Date

	Recurrence Recurrence

	// End, if non-nil, is the inclusive last day on which an
	// occurrence may fall. An end before the anchor means the event
	// has no occurrences at all.
	End *Date
}

// Validate checks the constraints a caller must satisfy before
// handing an event to the store.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrValidation)
	}
	if !e.Anchor.Valid() {
		return fmt.Errorf("%w: invalid anchor date", ErrValidation)
	}
	if e.End != nil {
		if !e.End.Valid() {
			return fmt.Errorf("%w: invalid end date", ErrValidation)
		}
		if e.End.Before(e.Anchor) {
			return fmt.Errorf("%w: end date %s before anchor %s", ErrValidation, e.End, e.Anchor)
		}
	}
	return nil
}

// DayKind is the single display classification of a date after
// overlay priority is applied.
type DayKind int

const (
	DayOrdinary DayKind = iota
	DayWeekend
	DayHoliday
	DayEvents
)

func (k DayKind) String() string {
	switch k {
	case DayEvents:
		return "events"
	case DayHoliday:
		return "holiday"
	case DayWeekend:
		return "weekend"
	default:
		return "ordinary"
	}
}

// DayState is the derived view of one date. It is computed on demand
// and must not be cached across store mutations.
type DayState struct {
	Date        Date
	Kind        DayKind
	IsHoliday   bool
	HolidayName string
	IsWeekend   bool

	// Events are the occurrences active on Date, in stable query
	// order. The events must not be retained past the next mutation.
	Events []Event
}

// Sentinel errors for the engine's failure taxonomy. Persistence
// failures are recoverable by contract: a load failure yields an
// empty store, a save failure leaves the in-memory store intact.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
)
