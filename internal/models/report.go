package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Location is the structured position of a report.
type Location struct {
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsZero reports whether no position or name was given.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0 && strings.TrimSpace(l.Name) == ""
}

// String renders the legacy "lat, lng (name)" form.
func (l Location) String() string {
	s := fmt.Sprintf("%.5f, %.5f", l.Lat, l.Lng)
	if l.Name != "" {
		s += " (" + l.Name + ")"
	}
	return s
}

// Label is the key used to group reports by place.
func (l Location) Label() string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%.3f, %.3f", l.Lat, l.Lng)
}

var legacyLocation = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*(?:\((.*)\))?\s*$`)

// ParseLocation migrates a free-text location into a structured one.
// Accepts "lat, lng (name)", "lat, lng" or a bare place name.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	m := legacyLocation.FindStringSubmatch(raw)
	if m == nil {
		return Location{Name: raw}, nil
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Location{}, fmt.Errorf("coordinates out of range: %s", raw)
	}
	return Location{Lat: lat, Lng: lng, Name: strings.TrimSpace(m[3])}, nil
}

// Report is a single submitted incident.
type Report struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Location    Location  `json:"location"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (r Report) Clone() Report {
	out := r
	if r.AssignedTo != nil {
		a := *r.AssignedTo
		out.AssignedTo = &a
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}

// Assignee returns the assignee or "" when unassigned.
func (r Report) Assignee() string {
	if r.AssignedTo == nil {
		return ""
	}
	return *r.AssignedTo
}

// NormalizeAssignee treats empty and "Unassigned" as no assignee.
func NormalizeAssignee(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.EqualFold(s, "unassigned") {
		return nil
	}
	return &s
}

// NormalizeTags lowercases, trims and dedupes, keeping first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ReportInput is the request body for creating a report.
type ReportInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Location    Location `json:"location"`
	// LocationText is accepted from legacy clients and parsed when Location is empty.
	LocationText string   `json:"location_text,omitempty"`
	AssignedTo   *string  `json:"assigned_to,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// ReportPatch carries a partial update; nil fields are left untouched.
// An AssignedTo pointing at "" or "Unassigned" clears the assignee.
type ReportPatch struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Status       *string   `json:"status,omitempty"`
	Priority     *string   `json:"priority,omitempty"`
	Location     *Location `json:"location,omitempty"`
	LocationText *string   `json:"location_text,omitempty"`
	AssignedTo   *string   `json:"assigned_to,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch touches no field.
func (p ReportPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Status == nil && p.Priority == nil && p.Location == nil &&
		p.LocationText == nil && p.AssignedTo == nil && p.Tags == nil
}

// ReportFilter narrows a report listing. Zero values match everything.
type ReportFilter struct {
	Status     Status
	Category   string
	AssignedTo string
}

// Matches reports whether r passes the filter.
func (f ReportFilter) Matches(r Report) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	if f.AssignedTo != "" && r.Assignee() != f.AssignedTo {
		return false
	}
	return true
}
