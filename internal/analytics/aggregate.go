// Package analytics turns a flat list of reports into the series the
// dashboard charts and exports display. Every function here is pure.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/models"
)

// TimeBucket is one slot of the time-series chart.
type TimeBucket struct {
	Name       string `json:"name"`
	Open       int    `json:"open"`
	InProgress int    `json:"inProgress"`
	Closed     int    `json:"closed"`
}

// Total returns the sum of the three series.
func (b TimeBucket) Total() int { return b.Open + b.InProgress + b.Closed }

// CategoryCount is one slice of the category distribution.
type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Hotspot is a location label with the number of reports filed there.
type Hotspot struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary backs the dashboard stat cards.
type Summary struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

// DefaultTopN is the hotspot count used when none is given.
const DefaultTopN = 5

var (
	monthNames   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

// Skeleton returns the ordered, zero-filled buckets for the state's time frame.
func Skeleton(st *filter.State) []TimeBucket {
	var names []string
	switch st.TimeFrame() {
	case filter.Year:
		names = monthNames
	case filter.Week:
		names = weekdayNames
	case filter.Day:
		names = make([]string, 24)
		for h := range names {
			names[h] = fmt.Sprintf("%d:00", h)
		}
	default:
		names = make([]string, st.DaysInMonth())
		for d := range names {
			names[d] = fmt.Sprintf("%d", d+1)
		}
	}
	out := make([]TimeBucket, len(names))
	for i, n := range names {
		out[i].Name = n
	}
	return out
}

// bucketIndex returns the skeleton slot for t. The week frame shows the
// weekday distribution inside the selected month, not one calendar week.
func bucketIndex(tf filter.TimeFrame, t time.Time) int {
	switch tf {
	case filter.Year:
		return int(t.Month()) - 1
	case filter.Week:
		return int(t.Weekday())
	case filter.Day:
		return t.Hour()
	default:
		return t.Day() - 1
	}
}

// Matches reports whether r falls inside the state's date window and category selection.
// Year is checked when set; month for the month, week and day frames; day for the day frame.
func Matches(r models.Report, st *filter.State) bool {
	if !st.MatchesCategory(r.Category) {
		return false
	}
	t := r.CreatedAt.In(st.Location())
	if st.Year() != 0 && t.Year() != st.Year() {
		return false
	}
	tf := st.TimeFrame()
	if tf == filter.Year {
		return true
	}
	if st.Month() != 0 && int(t.Month()) != st.Month() {
		return false
	}
	if tf == filter.Day && st.Day() != 0 && t.Day() != st.Day() {
		return false
	}
	return true
}

// Filter returns the reports passing Matches, in input order.
func Filter(reports []models.Report, st *filter.State) []models.Report {
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if Matches(r, st) {
			out = append(out, r)
		}
	}
	return out
}

// BucketByTimeFrame counts matching reports per bucket, split by status.
// The full skeleton is returned even when nothing matches.
func BucketByTimeFrame(reports []models.Report, st *filter.State) []TimeBucket {
	buckets := Skeleton(st)
	tf := st.TimeFrame()
	for _, r := range reports {
		if !Matches(r, st) {
			continue
		}
		i := bucketIndex(tf, r.CreatedAt.In(st.Location()))
		if i < 0 || i >= len(buckets) {
			continue
		}
		switch r.Status.Bucket() {
		case models.BucketOpen:
			buckets[i].Open++
		case models.BucketInProgress:
			buckets[i].InProgress++
		default:
			buckets[i].Closed++
		}
	}
	return buckets
}

// ByCategory counts reports per category label, largest first.
func ByCategory(reports []models.Report) []CategoryCount {
	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, v := range counts {
		out = append(out, CategoryCount{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CategoriesInPeriod is the distribution of the reports in the state's
// period. The category selection is ignored so every category shows.
func CategoriesInPeriod(reports []models.Report, st *filter.State) []CategoryCount {
	period := st.Clone()
	period.ClearCategories()
	return ByCategory(Filter(reports, period))
}

// LocationHotspots returns the topN most reported location labels.
func LocationHotspots(reports []models.Report, topN int) []Hotspot {
	if topN <= 0 {
		topN = DefaultTopN
	}
	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.Location.Label()]++
	}
	out := make([]Hotspot, 0, len(counts))
	for name, c := range counts {
		out = append(out, Hotspot{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Summarize counts reports by status bucket.
func Summarize(reports []models.Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		switch r.Status.Bucket() {
		case models.BucketOpen:
			s.Open++
		case models.BucketInProgress:
			s.InProgress++
		default:
			s.Closed++
		}
	}
	return s
}

// Series names one status column of the time-series chart.
type Series string

const (
	SeriesOpen       Series = "open"
	SeriesInProgress Series = "inProgress"
	SeriesClosed     Series = "closed"
)

// VisibleSeries lists the series shown under the state's status toggles, in chart order.
func VisibleSeries(st *filter.State) []Series {
	var out []Series
	if st.ShowOpen() {
		out = append(out, SeriesOpen)
	}
	if st.ShowInProgress() {
		out = append(out, SeriesInProgress)
	}
	if st.ShowClosed() {
		out = append(out, SeriesClosed)
	}
	return out
}

// Value returns the count of series s in b.
func (b TimeBucket) Value(s Series) int {
	switch s {
	case SeriesOpen:
		return b.Open
	case SeriesInProgress:
		return b.InProgress
	case SeriesClosed:
		return b.Closed
	}
	return 0
}
