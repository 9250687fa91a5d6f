package recur

import (
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

func TestOccursOnNone(t *testing.T) {
	ev := model.Event{Title: "Dentist", Anchor: date(2024, 5, 14), Recurrence: model.RecurNone}

	if !OccursOn(ev, date(2024, 5, 14)) {
		t.Error("non-recurring event should occur on its anchor date")
	}
	for _, d := range []model.Date{
		date(2024, 5, 13),
		date(2024, 5, 15),
		date(2025, 5, 14),
		date(2024, 6, 14),
	} {
		if OccursOn(ev, d) {
			t.Errorf("non-recurring event should not occur on %s", d)
		}
	}
}

func TestOccursOnDaily(t *testing.T) {
	ev := model.Event{Title: "Workout", Anchor: date(2024, 3, 10), Recurrence: model.RecurDaily}

	if OccursOn(ev, date(2024, 3, 9)) {
		t.Error("daily event should not occur before its anchor")
	}
	for _, d := range []model.Date{
		date(2024, 3, 10),
		date(2024, 3, 11),
		date(2024, 12, 31),
		date(2030, 1, 1),
	} {
		if !OccursOn(ev, d) {
			t.Errorf("daily event should occur on %s", d)
		}
	}
}

func TestOccursOnWeekly(t *testing.T) {
	// 2024-05-06 is a Monday.
	ev := model.Event{Title: "Standup", Anchor: date(2024, 5, 6), Recurrence: model.RecurWeekly}

	for _, d := range []model.Date{
		date(2024, 5, 6),
		date(2024, 5, 13),
		date(2024, 5, 20),
		date(2024, 7, 1),
	} {
		if !OccursOn(ev, d) {
			t.Errorf("weekly event should occur on %s", d)
		}
	}
	for _, d := range []model.Date{
		date(2024, 4, 29), // one week before anchor
		date(2024, 5, 7),
		date(2024, 5, 12),
	} {
		if OccursOn(ev, d) {
			t.Errorf("weekly event should not occur on %s", d)
		}
	}
}

func TestOccursOnWeeklyWithEndDate(t *testing.T) {
	ev := model.Event{
		Title:      "Standup",
		Anchor:     date(2024, 5, 6),
		Recurrence: model.RecurWeekly,
		End:        datePtr(2024, 5, 20),
	}

	for _, d := range []model.Date{date(2024, 5, 6), date(2024, 5, 13), date(2024, 5, 20)} {
		if !OccursOn(ev, d) {
			t.Errorf("should occur on %s (end date is inclusive)", d)
		}
	}
	if OccursOn(ev, date(2024, 5, 27)) {
		t.Error("should not occur after the end date")
	}
}

func TestOccursOnMonthly(t *testing.T) {
	ev := model.Event{Title: "Rent", Anchor: date(2024, 5, 1), Recurrence: model.RecurMonthly}

	if !OccursOn(ev, date(2024, 6, 1)) {
		t.Error("monthly event should occur on the same day next month")
	}
	if OccursOn(ev, date(2024, 7, 15)) {
		t.Error("monthly event should not occur on a different day of month")
	}
	if OccursOn(ev, date(2024, 4, 1)) {
		t.Error("monthly event should not occur before its anchor")
	}
}

func TestOccursOnMonthlyShortMonths(t *testing.T) {
	// Anchored on the 31st: months without a 31st get no occurrence,
	// and in particular February never rolls over or clamps.
	ev := model.Event{Title: "Payday", Anchor: date(2024, 1, 31), Recurrence: model.RecurMonthly}

	if OccursOn(ev, date(2024, 2, 29)) {
		t.Error("no occurrence on Feb 29: February has no 31st")
	}
	if !OccursOn(ev, date(2024, 3, 31)) {
		t.Error("should occur on Mar 31")
	}
	if OccursOn(ev, date(2024, 4, 30)) {
		t.Error("no occurrence on Apr 30: April has no 31st")
	}
	if !OccursOn(ev, date(2024, 5, 31)) {
		t.Error("should occur on May 31")
	}
}

func TestOccursOnYearly(t *testing.T) {
	ev := model.Event{Title: "Birthday", Anchor: date(2020, 8, 15), Recurrence: model.RecurYearly}

	for _, d := range []model.Date{date(2020, 8, 15), date(2021, 8, 15), date(2035, 8, 15)} {
		if !OccursOn(ev, d) {
			t.Errorf("yearly event should occur on %s", d)
		}
	}
	for _, d := range []model.Date{
		date(2019, 8, 15), // before anchor
		date(2021, 8, 14),
		date(2021, 9, 15),
	} {
		if OccursOn(ev, d) {
			t.Errorf("yearly event should not occur on %s", d)
		}
	}
}

func TestEndDateCutoffAppliesToEveryKind(t *testing.T) {
	end := datePtr(2024, 6, 1)
	after := date(2024, 6, 2)

	kinds := []model.Recurrence{
		model.RecurNone, model.RecurDaily, model.RecurWeekly,
		model.RecurMonthly, model.RecurYearly,
	}
	for _, kind := range kinds {
		ev := model.Event{Title: "x", Anchor: date(2024, 1, 1), Recurrence: kind, End: end}
		if OccursOn(ev, after) {
			t.Errorf("recurrence %s: occurrence found after end date", kind)
		}
	}
}

func TestEndDateBeforeAnchorMeansNoOccurrences(t *testing.T) {
	ev := model.Event{
		Title:      "x",
		Anchor:     date(2024, 5, 10),
		Recurrence: model.RecurDaily,
		End:        datePtr(2024, 5, 1),
	}
	for _, d := range []model.Date{date(2024, 5, 1), date(2024, 5, 10), date(2024, 5, 11)} {
		if OccursOn(ev, d) {
			t.Errorf("event with end before anchor should never occur, got %s", d)
		}
	}
}

func TestExpandYearDaily(t *testing.T) {
	ev := model.Event{
		Title:      "x",
		Anchor:     date(2024, 12, 28),
		Recurrence: model.RecurDaily,
		End:        datePtr(2025, 1, 3),
	}

	got := ExpandYear(ev, 2024)
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences in 2024, got %d (%v)", len(got), got)
	}
	if got[0] != date(2024, 12, 28) || got[3] != date(2024, 12, 31) {
		t.Errorf("unexpected range: %v", got)
	}

	got = ExpandYear(ev, 2025)
	if len(got) != 3 {
		t.Fatalf("expected 3 occurrences in 2025, got %d (%v)", len(got), got)
	}
	if got[2] != date(2025, 1, 3) {
		t.Errorf("expansion should stop at the inclusive end date, got %v", got)
	}
}

func TestExpandYearWeeklyAlignment(t *testing.T) {
	// Anchor in a previous year: the walk must land only on exact
	// 7-day multiples from the anchor.
	ev := model.Event{Title: "x", Anchor: date(2023, 12, 25), Recurrence: model.RecurWeekly}

	got := ExpandYear(ev, 2024)
	if len(got) == 0 {
		t.Fatal("expected occurrences in 2024")
	}
	if got[0] != date(2024, 1, 1) {
		t.Errorf("first 2024 occurrence should be Jan 1, got %s", got[0])
	}
	for _, d := range got {
		if d.DaysSince(ev.Anchor)%7 != 0 {
			t.Errorf("occurrence %s is not a whole-week multiple from the anchor", d)
		}
		if d.Year != 2024 {
			t.Errorf("occurrence %s leaked outside the target year", d)
		}
	}
}

func TestExpandYearMonthlySkipsShortMonths(t *testing.T) {
	ev := model.Event{Title: "x", Anchor: date(2024, 1, 31), Recurrence: model.RecurMonthly}

	got := ExpandYear(ev, 2024)
	// Jan, Mar, May, Jul, Aug, Oct, Dec have a 31st.
	if len(got) != 7 {
		t.Fatalf("expected 7 occurrences, got %d (%v)", len(got), got)
	}
	for _, d := range got {
		if d.Day != 31 {
			t.Errorf("occurrence %s is not on the 31st", d)
		}
		switch d.Month {
		case time.February, time.April, time.June, time.September, time.November:
			t.Errorf("occurrence %s falls in a month without a 31st", d)
		}
	}
}

func TestExpandYearYearlyFeb29(t *testing.T) {
	ev := model.Event{Title: "x", Anchor: date(2024, 2, 29), Recurrence: model.RecurYearly}

	if got := ExpandYear(ev, 2025); len(got) != 0 {
		t.Errorf("no Feb 29 in 2025, got %v", got)
	}
	got := ExpandYear(ev, 2028)
	if len(got) != 1 || got[0] != date(2028, 2, 29) {
		t.Errorf("expected single occurrence on 2028-02-29, got %v", got)
	}
}

func TestExpandYearNone(t *testing.T) {
	ev := model.Event{Title: "x", Anchor: date(2024, 5, 14), Recurrence: model.RecurNone}

	if got := ExpandYear(ev, 2024); len(got) != 1 || got[0] != ev.Anchor {
		t.Errorf("expected the anchor only, got %v", got)
	}
	if got := ExpandYear(ev, 2025); len(got) != 0 {
		t.Errorf("expected no occurrences outside the anchor year, got %v", got)
	}
}
