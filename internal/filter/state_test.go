package filter

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func march31() time.Time { return time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC) }

func TestNewDefaults(t *testing.T) {
	s := New(march31())
	if s.TimeFrame() != Month || s.Year() != 2024 || s.Month() != 3 || s.Day() != 31 {
		t.Errorf("unexpected defaults: %+v", s.Snapshot())
	}
	if !s.ShowOpen() || !s.ShowInProgress() || !s.ShowClosed() {
		t.Error("status flags should default to true")
	}
	if len(s.Categories()) != 0 {
		t.Error("categories should start empty")
	}
}

func TestSetMonthClampsDay(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    int
		wantDay  int
		startDay int
		clearDay bool
	}{
		{"leap february", 2024, 2, 29, 31, false},
		{"plain february", 2023, 2, 28, 31, false},
		{"april", 2024, 4, 30, 31, false},
		{"no clamp needed", 2024, 1, 15, 15, false},
		{"unset day defaults to 1", 2024, 6, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(march31())
			if tt.clearDay {
				_ = s.SetDay(0)
			} else if err := s.SetDay(tt.startDay); err != nil {
				t.Fatalf("SetDay: %v", err)
			}
			s.SetYear(tt.year)
			if err := s.SetMonth(tt.month); err != nil {
				t.Fatalf("SetMonth: %v", err)
			}
			if s.Day() != tt.wantDay {
				t.Errorf("day = %d, want %d", s.Day(), tt.wantDay)
			}
		})
	}
}

func TestSetYearClampsLeapDay(t *testing.T) {
	s := New(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC))
	s.SetYear(2023)
	if s.Day() != 28 {
		t.Errorf("day = %d, want 28", s.Day())
	}
}

func TestSetDayRejectsOutOfRange(t *testing.T) {
	s := New(march31())
	_ = s.SetMonth(4)
	if err := s.SetDay(31); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got %v", err)
	}
	if err := s.SetMonth(13); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestViewCrossReset(t *testing.T) {
	s := New(march31())
	s.SetShowOpen(false)
	s.SetShowClosed(false)
	if err := s.SetView(ViewCategories); err != nil {
		t.Fatal(err)
	}
	if !s.ShowOpen() || !s.ShowInProgress() || !s.ShowClosed() {
		t.Error("categories view must reset status flags")
	}

	s.SelectCategory("Roads")
	s.SelectCategory("Lighting")
	if err := s.SetView(ViewTimeSeries); err != nil {
		t.Fatal(err)
	}
	if len(s.Categories()) != 0 {
		t.Errorf("time series view must clear categories, got %v", s.Categories())
	}
	if err := s.SetView("map"); !errors.Is(err, ErrInvalidView) {
		t.Errorf("expected ErrInvalidView, got %v", err)
	}
}

func TestCategorySelection(t *testing.T) {
	s := New(march31())
	s.ToggleCategory("Roads")
	if c, ok := s.SingleCategory(); !ok || c != "Roads" {
		t.Errorf("SingleCategory = %q, %v", c, ok)
	}
	s.SelectCategory("Lighting")
	if _, ok := s.SingleCategory(); ok {
		t.Error("two categories selected, SingleCategory should fail")
	}
	if !reflect.DeepEqual(s.Categories(), []string{"Lighting", "Roads"}) {
		t.Errorf("Categories() = %v", s.Categories())
	}
	s.ToggleCategory("Roads")
	if s.HasCategory("Roads") || !s.MatchesCategory("Lighting") || s.MatchesCategory("Parks") {
		t.Errorf("unexpected selection %v", s.Categories())
	}
	s.ClearCategories()
	if !s.MatchesCategory("anything") {
		t.Error("empty selection matches every category")
	}
}

func TestApplyQuery(t *testing.T) {
	s := New(march31())
	q := url.Values{
		"timeframe":   {"day"},
		"year":        {"2023"},
		"month":       {"2"},
		"day":         {"14"},
		"category":    {"Roads,Lighting", "Parks"},
		"show_closed": {"false"},
	}
	if err := s.Apply(q); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap := s.Snapshot()
	if snap.TimeFrame != Day || snap.Year != 2023 || snap.Month != 2 || snap.Day != 14 || snap.ShowClosed {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if !reflect.DeepEqual(snap.Categories, []string{"Lighting", "Parks", "Roads"}) {
		t.Errorf("categories = %v", snap.Categories)
	}

	if err := s.Apply(url.Values{"timeframe": {"decade"}}); !errors.Is(err, ErrInvalidTimeFrame) {
		t.Errorf("expected ErrInvalidTimeFrame, got %v", err)
	}
}

func TestApplyPatchIsAtomic(t *testing.T) {
	s := New(march31())
	month := 4
	day := 31
	if err := s.ApplyPatch(Patch{Month: &month, Day: &day}); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
	if s.Month() != 3 || s.Day() != 31 {
		t.Errorf("failed patch mutated state: %+v", s.Snapshot())
	}
}

func TestSessions(t *testing.T) {
	now := march31()
	reg := NewSessions(time.Minute, time.UTC, zap.NewNop().Sugar())
	reg.now = func() time.Time { return now }

	if _, err := reg.Update("a", func(s *State) error { s.SetTimeFrame(Year); return nil }); err != nil {
		t.Fatal(err)
	}
	if reg.Get("a").TimeFrame() != Year {
		t.Error("session state not kept")
	}
	if reg.Get("b").TimeFrame() != Month {
		t.Error("new session should start with defaults")
	}

	got := reg.Get("a")
	got.SetTimeFrame(Day)
	if reg.Get("a").TimeFrame() != Year {
		t.Error("Get must return a copy")
	}

	now = now.Add(2 * time.Minute)
	if n := reg.Evict(); n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d after eviction", reg.Len())
	}
}
