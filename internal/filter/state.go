// Package filter holds the session-scoped dashboard filter state shared by
// every aggregation and export.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimeFrame = errors.New("invalid time frame")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidDay       = errors.New("day out of range for month")
	ErrInvalidView      = errors.New("invalid view")
)

// TimeFrame is the granularity of the time-series chart.
type TimeFrame string

const (
	Day   TimeFrame = "day"
	Week  TimeFrame = "week"
	Month TimeFrame = "month"
	Year  TimeFrame = "year"
)

// ParseTimeFrame validates a time frame name.
func ParseTimeFrame(v string) (TimeFrame, error) {
	switch tf := TimeFrame(strings.ToLower(strings.TrimSpace(v))); tf {
	case Day, Week, Month, Year:
		return tf, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeFrame, v)
}

// View is the dashboard tab currently shown.
type View string

const (
	ViewTimeSeries View = "time_series"
	ViewCategories View = "categories"
)

// State is the filter selection of one dashboard session.
// Month is 1-based; zero Year, Month or Day means "not selected".
// State is not safe for concurrent use; Sessions serializes access.
type State struct {
	timeFrame      TimeFrame
	year           int
	month          int
	day            int
	showOpen       bool
	showInProgress bool
	showClosed     bool
	categories     map[string]struct{}
	view           View
	loc            *time.Location
}

// New returns a state initialized to the date of now.
func New(now time.Time) *State {
	return &State{
		timeFrame:      Month,
		year:           now.Year(),
		month:          int(now.Month()),
		day:            now.Day(),
		showOpen:       true,
		showInProgress: true,
		showClosed:     true,
		categories:     make(map[string]struct{}),
		view:           ViewTimeSeries,
		loc:            now.Location(),
	}
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := *s
	c.categories = make(map[string]struct{}, len(s.categories))
	for k := range s.categories {
		c.categories[k] = struct{}{}
	}
	return &c
}

func (s *State) TimeFrame() TimeFrame      { return s.timeFrame }
func (s *State) SetTimeFrame(tf TimeFrame) { s.timeFrame = tf }
func (s *State) Year() int                 { return s.year }
func (s *State) Month() int                { return s.month }
func (s *State) Day() int                  { return s.day }
func (s *State) ShowOpen() bool            { return s.showOpen }
func (s *State) ShowInProgress() bool      { return s.showInProgress }
func (s *State) ShowClosed() bool          { return s.showClosed }
func (s *State) SetShowOpen(v bool)        { s.showOpen = v }
func (s *State) SetShowInProgress(v bool)  { s.showInProgress = v }
func (s *State) SetShowClosed(v bool)      { s.showClosed = v }
func (s *State) View() View                { return s.view }

// Location is the time zone report timestamps are bucketed in.
func (s *State) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func (s *State) SetLocation(loc *time.Location) { s.loc = loc }

// SetYear selects a year and clamps the selected day into the new range.
func (s *State) SetYear(y int) {
	s.year = y
	s.clampDay()
}

// SetMonth selects a 1-based month and clamps the selected day into the new range.
func (s *State) SetMonth(m int) error {
	if m < 1 || m > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, m)
	}
	s.month = m
	s.clampDay()
	return nil
}

// SetDay selects a day of the current month. Zero clears the selection.
func (s *State) SetDay(d int) error {
	if d == 0 {
		s.day = 0
		return nil
	}
	if d < 1 || d > s.DaysInMonth() {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidDay, d, s.DaysInMonth())
	}
	s.day = d
	return nil
}

// DaysInMonth returns the number of days of the selected year and month,
// or 31 when no month is selected.
func (s *State) DaysInMonth() int {
	if s.month == 0 {
		return 31
	}
	return DaysIn(s.year, s.month)
}

func (s *State) clampDay() {
	if s.month == 0 {
		return
	}
	if s.day == 0 {
		s.day = 1
		return
	}
	if n := s.DaysInMonth(); s.day > n {
		s.day = n
	}
}

// DaysIn returns the number of days in the given 1-based month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SetView switches the dashboard tab. Entering the categories view shows
// every status again; entering the time-series view drops the category selection.
func (s *State) SetView(v View) error {
	switch v {
	case ViewCategories:
		s.showOpen, s.showInProgress, s.showClosed = true, true, true
	case ViewTimeSeries:
		s.ClearCategories()
	default:
		return fmt.Errorf("%w: %q", ErrInvalidView, v)
	}
	s.view = v
	return nil
}

// SelectCategory adds a category to the selection.
func (s *State) SelectCategory(c string) {
	c = strings.TrimSpace(c)
	if c == "" {
		return
	}
	if s.categories == nil {
		s.categories = make(map[string]struct{})
	}
	s.categories[c] = struct{}{}
}

// DeselectCategory removes a category from the selection.
func (s *State) DeselectCategory(c string) { delete(s.categories, strings.TrimSpace(c)) }

// ToggleCategory flips a category's membership, as a pie-slice click does.
func (s *State) ToggleCategory(c string) {
	if s.HasCategory(c) {
		s.DeselectCategory(c)
		return
	}
	s.SelectCategory(c)
}

// SetCategories replaces the selection.
func (s *State) SetCategories(cs []string) {
	s.ClearCategories()
	for _, c := range cs {
		s.SelectCategory(c)
	}
}

func (s *State) ClearCategories() { s.categories = make(map[string]struct{}) }

func (s *State) HasCategory(c string) bool {
	_, ok := s.categories[strings.TrimSpace(c)]
	return ok
}

// Categories returns the selection sorted.
func (s *State) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for c := range s.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SingleCategory returns the only selected category, if exactly one is selected.
func (s *State) SingleCategory() (string, bool) {
	if len(s.categories) != 1 {
		return "", false
	}
	for c := range s.categories {
		return c, true
	}
	return "", false
}

// MatchesCategory reports whether a category passes the selection.
// An empty selection matches everything.
func (s *State) MatchesCategory(c string) bool {
	if len(s.categories) == 0 {
		return true
	}
	return s.HasCategory(c)
}

// Apply overrides fields from query parameters. Year and month are applied
// before day so that the day is validated against the final month.
func (s *State) Apply(q url.Values) error {
	if v := q.Get("timeframe"); v != "" {
		tf, err := ParseTimeFrame(v)
		if err != nil {
			return err
		}
		s.SetTimeFrame(tf)
	}
	if v := q.Get("view"); v != "" {
		if err := s.SetView(View(v)); err != nil {
			return err
		}
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", v, err)
		}
		s.SetYear(y)
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid month %q: %w", v, err)
		}
		if err := s.SetMonth(m); err != nil {
			return err
		}
	}
	if v := q.Get("day"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", v, err)
		}
		if err := s.SetDay(d); err != nil {
			return err
		}
	}
	if vs, ok := q["category"]; ok {
		var cs []string
		for _, v := range vs {
			cs = append(cs, strings.Split(v, ",")...)
		}
		s.SetCategories(cs)
	}
	flags := []struct {
		key string
		set func(bool)
	}{
		{"show_open", s.SetShowOpen},
		{"show_in_progress", s.SetShowInProgress},
		{"show_closed", s.SetShowClosed},
	}
	for _, f := range flags {
		if v := q.Get(f.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
			}
			f.set(b)
		}
	}
	return nil
}

// Snapshot is the JSON form of a State.
type Snapshot struct {
	TimeFrame      TimeFrame `json:"timeframe"`
	Year           int       `json:"year,omitempty"`
	Month          int       `json:"month,omitempty"`
	Day            int       `json:"day,omitempty"`
	DaysInMonth    int       `json:"days_in_month"`
	ShowOpen       bool      `json:"show_open"`
	ShowInProgress bool      `json:"show_in_progress"`
	ShowClosed     bool      `json:"show_closed"`
	Categories     []string  `json:"categories"`
	View           View      `json:"view"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		TimeFrame:      s.timeFrame,
		Year:           s.year,
		Month:          s.month,
		Day:            s.day,
		DaysInMonth:    s.DaysInMonth(),
		ShowOpen:       s.showOpen,
		ShowInProgress: s.showInProgress,
		ShowClosed:     s.showClosed,
		Categories:     s.Categories(),
		View:           s.view,
	}
}

// Patch is a partial update of a State, as sent by PATCH /filter.
type Patch struct {
	TimeFrame      *TimeFrame `json:"timeframe,omitempty"`
	Year           *int       `json:"year,omitempty"`
	Month          *int       `json:"month,omitempty"`
	Day            *int       `json:"day,omitempty"`
	ShowOpen       *bool      `json:"show_open,omitempty"`
	ShowInProgress *bool      `json:"show_in_progress,omitempty"`
	ShowClosed     *bool      `json:"show_closed,omitempty"`
	Categories     []string   `json:"categories,omitempty"`
	Toggle         string     `json:"toggle_category,omitempty"`
}

// ApplyPatch applies p in the same order as Apply. On error the state is left unchanged.
func (s *State) ApplyPatch(p Patch) error {
	next := s.Clone()
	if p.TimeFrame != nil {
		tf, err := ParseTimeFrame(string(*p.TimeFrame))
		if err != nil {
			return err
		}
		next.SetTimeFrame(tf)
	}
	if p.Year != nil {
		next.SetYear(*p.Year)
	}
	if p.Month != nil {
		if err := next.SetMonth(*p.Month); err != nil {
			return err
		}
	}
	if p.Day != nil {
		if err := next.SetDay(*p.Day); err != nil {
			return err
		}
	}
	if p.ShowOpen != nil {
		next.SetShowOpen(*p.ShowOpen)
	}
	if p.ShowInProgress != nil {
		next.SetShowInProgress(*p.ShowInProgress)
	}
	if p.ShowClosed != nil {
		next.SetShowClosed(*p.ShowClosed)
	}
	if p.Categories != nil {
		next.SetCategories(p.Categories)
	}
	if p.Toggle != "" {
		next.ToggleCategory(p.Toggle)
	}
	*s = *next
	return nil
}
