package models

import (
	"reflect"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{"40.7128, -74.0060 (City Hall)", Location{Lat: 40.7128, Lng: -74.006, Name: "City Hall"}, false},
		{"40.7128,-74.0060", Location{Lat: 40.7128, Lng: -74.006}, false},
		{"Main Street Bridge", Location{Name: "Main Street Bridge"}, false},
		{"  ", Location{}, true},
		{"95.0, 10.0", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocationLabel(t *testing.T) {
	if got := (Location{Lat: 1.23456, Lng: 2.5, Name: "Park"}).Label(); got != "Park" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Location{Lat: 1.23456, Lng: 2.5}).Label(); got != "1.235, 2.500" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Location{Lat: 1, Lng: 2, Name: "Park"}).String(); got != "1.00000, 2.00000 (Park)" {
		t.Errorf("String() = %q", got)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Pothole", " road ", "pothole", "", "ROAD", "night"})
	want := []string{"pothole", "road", "night"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeAssignee(t *testing.T) {
	for _, in := range []string{"", "  ", "Unassigned", "unassigned"} {
		v := in
		if NormalizeAssignee(&v) != nil {
			t.Errorf("NormalizeAssignee(%q) should be nil", in)
		}
	}
	v := " alice "
	if got := NormalizeAssignee(&v); got == nil || *got != "alice" {
		t.Errorf("NormalizeAssignee trimmed value wrong: %v", got)
	}
	if NormalizeAssignee(nil) != nil {
		t.Error("nil stays nil")
	}
}

func TestReportCloneIsDeep(t *testing.T) {
	who := "bob"
	r := Report{ID: 1, Tags: []string{"a"}, AssignedTo: &who}
	c := r.Clone()
	c.Tags[0] = "changed"
	*c.AssignedTo = "eve"
	if r.Tags[0] != "a" || *r.AssignedTo != "bob" {
		t.Errorf("clone shares memory with original: %+v", r)
	}
}

func TestActivityQueryMatches(t *testing.T) {
	a := Activity{Type: ActivityStatusChanged, ReportID: ID64(7)}
	tests := []struct {
		name string
		q    ActivityQuery
		want bool
	}{
		{"empty", ActivityQuery{}, true},
		{"report match", ActivityQuery{ReportID: ID64(7)}, true},
		{"report mismatch", ActivityQuery{ReportID: ID64(8)}, false},
		{"user missing", ActivityQuery{UserID: ID64(1)}, false},
		{"type match", ActivityQuery{Types: []ActivityType{ActivityReportCreated, ActivityStatusChanged}}, true},
		{"type mismatch", ActivityQuery{Types: []ActivityType{ActivityReportDeleted}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Matches(a); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportFilterMatches(t *testing.T) {
	who := "alice"
	r := Report{Status: StatusOpen, Category: "Roads", AssignedTo: &who}
	if !(ReportFilter{Category: "roads", AssignedTo: "alice"}).Matches(r) {
		t.Error("expected match")
	}
	if (ReportFilter{Status: StatusClosed}).Matches(r) {
		t.Error("status should not match")
	}
	if (ReportFilter{AssignedTo: "bob"}).Matches(r) {
		t.Error("assignee should not match")
	}
}
