package holiday

import (
	"testing"
	"time"

	"daycal/internal/model"
)

func TestLookupYearIndependent(t *testing.T) {
	table := New()

	for _, year := range []int{1999, 2024, 2077} {
		name, ok := table.Lookup(model.NewDate(year, time.May, 9))
		if !ok {
			t.Errorf("May 9 %d should be a holiday", year)
		}
		if name != "День Победы" {
			t.Errorf("May 9 %d: unexpected name %q", year, name)
		}
	}

	if _, ok := table.Lookup(model.NewDate(2024, time.May, 15)); ok {
		t.Error("May 15 should not be a holiday")
	}
}

func TestExtrasOverrideDefaults(t *testing.T) {
	table := New(
		Entry{Month: time.May, Day: 9, Name: "Victory Day"},
		Entry{Month: time.July, Day: 4, Name: "Independence Day"},
	)

	if name, _ := table.Lookup(model.NewDate(2024, time.May, 9)); name != "Victory Day" {
		t.Errorf("extra should override default, got %q", name)
	}
	if name, _ := table.Lookup(model.NewDate(2024, time.July, 4)); name != "Independence Day" {
		t.Errorf("extra holiday missing, got %q", name)
	}
}

func TestBadEntriesIgnored(t *testing.T) {
	table := NewFromEntries([]Entry{
		{Month: time.May, Day: 32, Name: "bad day"},
		{Month: 0, Day: 1, Name: "bad month"},
		{Month: time.May, Day: 1, Name: ""},
	})
	if table.Len() != 0 {
		t.Errorf("invalid entries must be ignored, len=%d", table.Len())
	}
}
