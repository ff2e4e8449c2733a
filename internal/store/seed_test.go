package store

import (
	"strings"
	"testing"

	"github.com/urbanpulse/report-server/internal/models"
)

func TestLoadSeed_Embedded(t *testing.T) {
	seed, err := LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(seed.Reports) != 8 {
		t.Fatalf("reports = %d, want 8", len(seed.Reports))
	}
	if len(seed.Categories) != 5 {
		t.Errorf("categories = %d, want 5", len(seed.Categories))
	}

	byID := make(map[int64]models.Report)
	for _, r := range seed.Reports {
		byID[r.ID] = r
	}

	tests := []struct {
		id       int64
		status   models.Status
		assignee string
		location string
	}{
		{1, models.StatusOpen, "", "Main Street"},
		{2, models.StatusInProgress, "Maria Lopez", "Central Park Gate"},
		{3, models.StatusResolved, "John Park", "Harbor Road"},
		{7, models.StatusOpen, "", ""},
	}
	for _, tt := range tests {
		r, ok := byID[tt.id]
		if !ok {
			t.Errorf("report %d missing", tt.id)
			continue
		}
		if r.Status != tt.status {
			t.Errorf("report %d status = %s, want %s", tt.id, r.Status, tt.status)
		}
		if r.Assignee() != tt.assignee {
			t.Errorf("report %d assignee = %q, want %q", tt.id, r.Assignee(), tt.assignee)
		}
		if r.Location.Name != tt.location {
			t.Errorf("report %d location name = %q, want %q", tt.id, r.Location.Name, tt.location)
		}
	}

	// Tags are normalized on load.
	if got := byID[4].Tags; len(got) != 2 || got[0] != "playground" || got[1] != "children" {
		t.Errorf("report 4 tags = %v", got)
	}
	if byID[7].Tags == nil {
		t.Error("empty tags decoded as nil")
	}
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "unknown status",
			data: `
reports:
  - id: 1
    title: x
    status: Pending
    priority: Low
    location: "1, 2"
    date: 2024-01-01T00:00:00Z
`,
			want: "report 1",
		},
		{
			name: "duplicate id",
			data: `
reports:
  - {id: 1, title: x, status: Open, priority: Low, location: "1, 2", date: 2024-01-01T00:00:00Z}
  - {id: 1, title: y, status: Open, priority: Low, location: "1, 2", date: 2024-01-01T00:00:00Z}
`,
			want: "duplicate id",
		},
		{
			name: "non-positive id",
			data: `
reports:
  - {id: 0, title: x, status: Open, priority: Low, location: "1, 2", date: 2024-01-01T00:00:00Z}
`,
			want: "id must be positive",
		},
		{
			name: "malformed yaml",
			data: "reports: [",
			want: "decode seed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestMarshalSeed_UsesMockVocabulary(t *testing.T) {
	seed, err := LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	out, err := MarshalSeed(seed)
	if err != nil {
		t.Fatalf("MarshalSeed: %v", err)
	}
	text := string(out)
	for _, want := range []string{"status: In Progress", "assignedTo: Unassigned", "priority: High"} {
		if !strings.Contains(text, want) {
			t.Errorf("marshalled seed missing %q", want)
		}
	}

	again, err := ParseSeed(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(again.Reports) != len(seed.Reports) {
		t.Errorf("re-parsed %d reports, want %d", len(again.Reports), len(seed.Reports))
	}
}
