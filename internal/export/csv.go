// Package export serializes dashboard data to CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/urbanpulse/report-server/internal/analytics"
	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/models"
)

// ErrNothingToExport is returned for an empty row set; no file is produced.
var ErrNothingToExport = errors.New("nothing to export")

// ContentType is the media type of every export.
const ContentType = "text/csv; charset=utf-8"

// Kind names what an export contains.
type Kind string

const (
	KindTimeSeries Kind = "timeseries"
	KindCategories Kind = "categories"
	KindReports    Kind = "reports"
	KindHotspots   Kind = "hotspots"
)

// ParseKind validates an export kind.
func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(v)); k {
	case KindTimeSeries, KindCategories, KindReports, KindHotspots:
		return k, nil
	}
	return "", fmt.Errorf("unknown export kind %q", v)
}

// ToCSV renders headers and rows. Lines end with "\n"; fields containing a
// comma, quote or line break are quoted with inner quotes doubled.
func ToCSV(rows [][]string, headers []string) (string, error) {
	if len(rows) == 0 {
		return "", ErrNothingToExport
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write rows: %w", err)
	}
	return b.String(), nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Filename derives the download name from the filter state. Two exports
// under the same state differ only in the trailing export date.
func Filename(kind Kind, st *filter.State, now time.Time) string {
	parts := []string{"reports", string(kind), string(st.TimeFrame())}
	if st.Year() != 0 {
		date := fmt.Sprintf("%04d", st.Year())
		if st.TimeFrame() != filter.Year && st.Month() != 0 {
			date += fmt.Sprintf("-%02d", st.Month())
			if st.TimeFrame() == filter.Day && st.Day() != 0 {
				date += fmt.Sprintf("-%02d", st.Day())
			}
		}
		parts = append(parts, date)
	}
	if cats := st.Categories(); len(cats) > 0 {
		slugs := make([]string, 0, len(cats))
		for _, c := range cats {
			if s := slug(c); s != "" {
				slugs = append(slugs, s)
			}
		}
		if len(slugs) > 0 {
			parts = append(parts, strings.Join(slugs, "+"))
		}
	}
	parts = append(parts, now.Format("2006-01-02"))
	return strings.Join(parts, "-") + ".csv"
}

// TimeSeriesRows renders buckets with one column per visible series.
func TimeSeriesRows(buckets []analytics.TimeBucket, st *filter.State) ([]string, [][]string) {
	series := analytics.VisibleSeries(st)
	headers := []string{"name"}
	for _, s := range series {
		headers = append(headers, string(s))
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		row := []string{b.Name}
		for _, s := range series {
			row = append(row, strconv.Itoa(b.Value(s)))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// CategoryRows renders the category distribution.
func CategoryRows(counts []analytics.CategoryCount) ([]string, [][]string) {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Value)})
	}
	return []string{"category", "count"}, rows
}

// HotspotRows renders location hotspots.
func HotspotRows(hotspots []analytics.Hotspot) ([]string, [][]string) {
	rows := make([][]string, 0, len(hotspots))
	for _, h := range hotspots {
		rows = append(rows, []string{h.Name, strconv.Itoa(h.Count)})
	}
	return []string{"location", "count"}, rows
}

// ReportRows renders one line per report.
func ReportRows(reports []models.Report) ([]string, [][]string) {
	headers := []string{"id", "title", "description", "category", "status", "priority",
		"latitude", "longitude", "location", "assigned_to", "tags", "created_at"}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		assignee := r.Assignee()
		if assignee == "" {
			assignee = "Unassigned"
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Description,
			r.Category,
			string(r.Status),
			string(r.Priority),
			strconv.FormatFloat(r.Location.Lat, 'f', 6, 64),
			strconv.FormatFloat(r.Location.Lng, 'f', 6, 64),
			r.Location.Name,
			assignee,
			strings.Join(r.Tags, ";"),
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return headers, rows
}

// Build renders one export kind from every report and the active filter.
// A time series over a period with no matching reports has no rows, so it
// is reported as nothing to export like the other kinds.
func Build(kind Kind, reports []models.Report, st *filter.State, top int) ([]string, [][]string) {
	switch kind {
	case KindTimeSeries:
		headers, rows := TimeSeriesRows(analytics.BucketByTimeFrame(reports, st), st)
		if len(analytics.Filter(reports, st)) == 0 {
			return headers, nil
		}
		return headers, rows
	case KindCategories:
		return CategoryRows(analytics.CategoriesInPeriod(reports, st))
	case KindHotspots:
		return HotspotRows(analytics.LocationHotspots(analytics.Filter(reports, st), top))
	default:
		return ReportRows(analytics.Filter(reports, st))
	}
}
