// Package store owns the event records: a mapping from anchor date to
// the insertion-ordered list of events anchored there, plus the
// queries that run the recurrence rules over them.
package store

import (
	"fmt"
	"sort"

	"daycal/internal/model"
	"daycal/internal/recur"
)

// Persister writes the store's contents to durable storage. Mutations
// call it synchronously before returning, so a caller that sees Add
// succeed knows the data file reflects it (or has been told it does
// not: a failed save is reported but never rolls back memory).
type Persister interface {
	Save(events map[model.Date][]model.Event) error
}

// Store holds all events, keyed by anchor date. Not safe for
// concurrent use; the host serializes access (see internal/web).
type Store struct {
	events    map[model.Date][]model.Event
	persister Persister
}

// New returns an empty store. persister may be nil (tests, or a
// read-only host), in which case mutations skip the save step.
func New(persister Persister) *Store {
	return &Store{
		events:    make(map[model.Date][]model.Event),
		persister: persister,
	}
}

// SetPersister attaches or replaces the persister.
func (s *Store) SetPersister(p Persister) {
	s.persister = p
}

// Len returns the total number of stored events.
func (s *Store) Len() int {
	n := 0
	for _, list := range s.events {
		n += len(list)
	}
	return n
}

// Add appends the event to the list anchored on its anchor date,
// creating the key if absent. Identical titles are not deduplicated.
// The store is saved before Add returns; a save failure is returned
// wrapped in model.ErrPersistence but the event stays in memory.
func (s *Store) Add(ev model.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	s.events[ev.Anchor] = append(s.events[ev.Anchor], ev)
	return s.save()
}

// ManualEventsOn returns the non-recurring events anchored on the
// given date, in insertion order. The indices into the returned slice
// are the stable indices RemoveManual expects.
func (s *Store) ManualEventsOn(date model.Date) []model.Event {
	var out []model.Event
	for _, ev := range s.events[date] {
		if ev.Recurrence == model.RecurNone {
			out = append(out, ev)
		}
	}
	return out
}

// RemoveManual removes the index-th manual (non-recurring) event
// anchored on date. Recurring events are never removable through this
// operation. index counts within the manual subset only, matching
// ManualEventsOn. If the anchor list becomes empty its key is removed,
// so no key ever maps to an empty list.
func (s *Store) RemoveManual(date model.Date, index int) error {
	list, ok := s.events[date]
	if !ok {
		return fmt.Errorf("%w: no events on %s", model.ErrNotFound, date)
	}

	// Map the manual-subset index back to the full-list position.
	pos := -1
	seen := 0
	for i, ev := range list {
		if ev.Recurrence != model.RecurNone {
			continue
		}
		if seen == index {
			pos = i
			break
		}
		seen++
	}
	if index < 0 || pos == -1 {
		return fmt.Errorf("%w: no manual event at index %d on %s", model.ErrNotFound, index, date)
	}

	list = append(list[:pos], list[pos+1:]...)
	if len(list) == 0 {
		delete(s.events, date)
	} else {
		s.events[date] = list
	}
	return s.save()
}

// QueryOnDate returns every stored event that occurs on the given
// date, running the recurrence rule over all anchors. Order is sorted
// anchor-date order, then insertion order within an anchor, so the
// result is reproducible for a given insertion history.
func (s *Store) QueryOnDate(date model.Date) []model.Event {
	var out []model.Event
	for _, anchor := range s.sortedAnchors() {
		for _, ev := range s.events[anchor] {
			if recur.OccursOn(ev, date) {
				out = append(out, ev)
			}
		}
	}
	return out
}

// OccurrencesInYear expands every stored event into its concrete
// occurrence dates within the given year, honoring end-date cutoffs.
// Dates are returned in ascending order; a date occupied by several
// events appears once per event.
func (s *Store) OccurrencesInYear(year int) []model.Date {
	var out []model.Date
	for _, anchor := range s.sortedAnchors() {
		for _, ev := range s.events[anchor] {
			out = append(out, recur.ExpandYear(ev, year)...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Anchors returns the anchor dates that currently hold events, in
// ascending order.
func (s *Store) Anchors() []model.Date {
	return s.sortedAnchors()
}

// EventsAnchoredOn returns the full insertion-ordered list anchored
// on date (recurring and manual alike), without running recurrence.
func (s *Store) EventsAnchoredOn(date model.Date) []model.Event {
	list := s.events[date]
	out := make([]model.Event, len(list))
	copy(out, list)
	return out
}

// Replace swaps in a complete event mapping, used by persistence
// load. Lists are re-keyed by the events' own anchors and empty lists
// dropped, enforcing the store invariants regardless of what the data
// file contained.
func (s *Store) Replace(events map[model.Date][]model.Event) {
	s.events = make(map[model.Date][]model.Event, len(events))
	for _, list := range events {
		for _, ev := range list {
			s.events[ev.Anchor] = append(s.events[ev.Anchor], ev)
		}
	}
}

// Snapshot returns a copy of the event mapping for serialization.
func (s *Store) Snapshot() map[model.Date][]model.Event {
	out := make(map[model.Date][]model.Event, len(s.events))
	for anchor, list := range s.events {
		cp := make([]model.Event, len(list))
		copy(cp, list)
		out[anchor] = cp
	}
	return out
}

func (s *Store) sortedAnchors() []model.Date {
	anchors := make([]model.Date, 0, len(s.events))
	for anchor := range s.events {
		anchors = append(anchors, anchor)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })
	return anchors
}

func (s *Store) save() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.Snapshot()); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}
