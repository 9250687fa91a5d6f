// Package holiday provides the fixed-date holiday table: a static
// mapping from (day, month) to a holiday name, independent of year.
package holiday

import (
	"time"

	"daycal/internal/model"
)

type key struct {
	Month time.Month
	Day   int
}

// Table maps (day, month) pairs to holiday names. It is built once at
// startup and read-only afterwards.
type Table struct {
	names map[key]string
}

// Entry is one fixed holiday, as supplied by configuration.
type Entry struct {
	Month time.Month
	Day   int
	Name  string
}

// DefaultEntries is the built-in table of fixed public holidays.
var DefaultEntries = []Entry{
	{time.January, 1, "Новый год"},
	{time.January, 2, "Новогодние каникулы"},
	{time.January, 3, "Новогодние каникулы"},
	{time.January, 4, "Новогодние каникулы"},
	{time.January, 5, "Новогодние каникулы"},
	{time.January, 6, "Новогодние каникулы"},
	{time.January, 7, "Рождество Христово"},
	{time.January, 8, "Новогодние каникулы"},
	{time.February, 23, "День защитника Отечества"},
	{time.March, 8, "Международный женский день"},
	{time.May, 1, "Праздник Весны и Труда"},
	{time.May, 9, "День Победы"},
	{time.June, 12, "День России"},
	{time.November, 4, "День народного единства"},
}

// New builds a table from the default entries plus any extras.
// Extras override defaults on the same (day, month).
func New(extras ...Entry) *Table {
	t := &Table{names: make(map[key]string)}
	for _, e := range DefaultEntries {
		t.add(e)
	}
	for _, e := range extras {
		t.add(e)
	}
	return t
}

// NewFromEntries builds a table from the given entries only, without
// the built-in defaults.
func NewFromEntries(entries []Entry) *Table {
	t := &Table{names: make(map[key]string)}
	for _, e := range entries {
		t.add(e)
	}
	return t
}

func (t *Table) add(e Entry) {
	if e.Day < 1 || e.Day > 31 || e.Month < time.January || e.Month > time.December || e.Name == "" {
		return
	}
	t.names[key{Month: e.Month, Day: e.Day}] = e.Name
}

// Lookup returns the holiday name for the date's (day, month) pair.
// The same calendar day is a holiday every year.
func (t *Table) Lookup(d model.Date) (string, bool) {
	name, ok := t.names[key{Month: d.Month, Day: d.Day}]
	return name, ok
}

// Len returns the number of fixed holidays in the table.
func (t *Table) Len() int {
	return len(t.names)
}
