package store

import (
	"errors"
	"testing"
	"time"

	"daycal/internal/model"
)

func date(y int, m time.Month, d int) model.Date {
	return model.NewDate(y, m, d)
}

func datePtr(y int, m time.Month, d int) *model.Date {
	dt := model.NewDate(y, m, d)
	return &dt
}

func mustAdd(t *testing.T, s *Store, ev model.Event) {
	t.Helper()
	if err := s.Add(ev); err != nil {
		t.Fatalf("Add(%v): %v", ev, err)
	}
}

func TestAddValidation(t *testing.T) {
	s := New(nil)

	err := s.Add(model.Event{Title: "   ", Anchor: date(2024, 5, 1)})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty title should fail validation, got %v", err)
	}
	err = s.Add(model.Event{Title: "x", Anchor: date(2024, 5, 10), End: datePtr(2024, 5, 1)})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("end before anchor should fail validation, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("failed adds must not change the store, len=%d", s.Len())
	}
}

func TestAddDoesNotDeduplicate(t *testing.T) {
	s := New(nil)
	ev := model.Event{Title: "Standup", Anchor: date(2024, 5, 6)}
	mustAdd(t, s, ev)
	mustAdd(t, s, ev)

	if got := len(s.EventsAnchoredOn(date(2024, 5, 6))); got != 2 {
		t.Errorf("identical titles should both be stored, got %d", got)
	}
}

func TestQueryOnDateOrder(t *testing.T) {
	s := New(nil)
	// Insert anchors out of order; query order must be sorted by
	// anchor then by insertion within an anchor.
	mustAdd(t, s, model.Event{Title: "later-anchor", Anchor: date(2024, 5, 10), Recurrence: model.RecurDaily})
	mustAdd(t, s, model.Event{Title: "early-anchor-first", Anchor: date(2024, 5, 1), Recurrence: model.RecurDaily})
	mustAdd(t, s, model.Event{Title: "early-anchor-second", Anchor: date(2024, 5, 1), Recurrence: model.RecurDaily})

	got := s.QueryOnDate(date(2024, 5, 20))
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	want := []string{"early-anchor-first", "early-anchor-second", "later-anchor"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d: want %q, got %q", i, title, got[i].Title)
		}
	}
}

func TestQueryOnDateRunsRecurrenceAcrossAnchors(t *testing.T) {
	s := New(nil)
	mustAdd(t, s, model.Event{Title: "weekly", Anchor: date(2024, 5, 6), Recurrence: model.RecurWeekly})
	mustAdd(t, s, model.Event{Title: "manual", Anchor: date(2024, 5, 13), Recurrence: model.RecurNone})
	mustAdd(t, s, model.Event{Title: "unrelated", Anchor: date(2024, 5, 7), Recurrence: model.RecurNone})

	got := s.QueryOnDate(date(2024, 5, 13))
	if len(got) != 2 {
		t.Fatalf("expected weekly + manual on 2024-05-13, got %d: %v", len(got), got)
	}
	if got[0].Title != "weekly" || got[1].Title != "manual" {
		t.Errorf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestRemoveManual(t *testing.T) {
	s := New(nil)
	d := date(2024, 5, 6)
	mustAdd(t, s, model.Event{Title: "recurring", Anchor: d, Recurrence: model.RecurWeekly})
	mustAdd(t, s, model.Event{Title: "first", Anchor: d})
	mustAdd(t, s, model.Event{Title: "second", Anchor: d})

	// Index 1 within the manual subset is "second", even though the
	// recurring event sits ahead of both in the full list.
	if err := s.RemoveManual(d, 1); err != nil {
		t.Fatalf("RemoveManual: %v", err)
	}

	manual := s.ManualEventsOn(d)
	if len(manual) != 1 || manual[0].Title != "first" {
		t.Errorf("expected only %q to remain, got %v", "first", manual)
	}
	if got := len(s.EventsAnchoredOn(d)); got != 2 {
		t.Errorf("recurring event must survive, list len=%d", got)
	}
}

func TestRemoveManualNeverTouchesRecurring(t *testing.T) {
	s := New(nil)
	d := date(2024, 5, 6)
	mustAdd(t, s, model.Event{Title: "recurring", Anchor: d, Recurrence: model.RecurMonthly})

	err := s.RemoveManual(d, 0)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("removing with only a recurring event present should be NotFound, got %v", err)
	}
	if got := len(s.EventsAnchoredOn(d)); got != 1 {
		t.Errorf("recurring event must remain, list len=%d", got)
	}
}

func TestRemoveManualErrors(t *testing.T) {
	s := New(nil)
	d := date(2024, 5, 6)

	if err := s.RemoveManual(d, 0); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("empty date should be NotFound, got %v", err)
	}

	mustAdd(t, s, model.Event{Title: "only", Anchor: d})
	if err := s.RemoveManual(d, 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("out-of-range index should be NotFound, got %v", err)
	}
	if err := s.RemoveManual(d, -1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("negative index should be NotFound, got %v", err)
	}
}

func TestRemoveManualDropsEmptyKey(t *testing.T) {
	s := New(nil)
	d := date(2024, 5, 6)
	mustAdd(t, s, model.Event{Title: "only", Anchor: d})

	if err := s.RemoveManual(d, 0); err != nil {
		t.Fatalf("RemoveManual: %v", err)
	}
	if got := len(s.Anchors()); got != 0 {
		t.Errorf("emptied key must be removed entirely, anchors=%d", got)
	}
	if err := s.RemoveManual(d, 0); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second removal should be NotFound, got %v", err)
	}
}

func TestOccurrencesInYear(t *testing.T) {
	s := New(nil)
	mustAdd(t, s, model.Event{
		Title: "standup", Anchor: date(2024, 5, 6),
		Recurrence: model.RecurWeekly, End: datePtr(2024, 5, 20),
	})
	mustAdd(t, s, model.Event{Title: "oneoff", Anchor: date(2024, 5, 13)})

	got := s.OccurrencesInYear(2024)
	want := []model.Date{
		date(2024, 5, 6), date(2024, 5, 13), date(2024, 5, 13), date(2024, 5, 20),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: want %s, got %s", i, want[i], got[i])
		}
	}

	if extra := s.OccurrencesInYear(2025); len(extra) != 0 {
		t.Errorf("end-dated events must not leak into 2025, got %v", extra)
	}
}

// failingPersister always fails, to exercise the no-rollback contract.
type failingPersister struct{}

func (failingPersister) Save(map[model.Date][]model.Event) error {
	return errors.New("disk full")
}

func TestSaveFailureKeepsMemoryIntact(t *testing.T) {
	s := New(failingPersister{})

	err := s.Add(model.Event{Title: "kept", Anchor: date(2024, 5, 6)})
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected a persistence error, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("failed save must not roll back the in-memory store, len=%d", s.Len())
	}
}
