package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urbanpulse/report-server/internal/activity"
	"github.com/urbanpulse/report-server/internal/events"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap/zaptest"
)

type reportFixture struct {
	svc   *ReportService
	log   *activity.Memory
	hub   *events.Hub
	users *UserService
}

func newReportFixture(t *testing.T, policy models.TransitionPolicy) reportFixture {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	seed, err := store.LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	log := activity.NewMemory()
	acts := NewActivityService(log, logger)
	hub := events.NewHub()
	t.Cleanup(hub.Close)
	return reportFixture{
		svc:   NewReportService(store.NewMemoryReports(seed.Reports), acts, hub, policy, logger),
		log:   log,
		hub:   hub,
		users: NewUserService(store.NewMemoryUsers(), acts, logger),
	}
}

func strPtr(s string) *string { return &s }

func TestReportService_Create(t *testing.T) {
	f := newReportFixture(t, nil)
	ctx := context.Background()
	sub, cancel := f.hub.Subscribe(ctx)
	defer cancel()

	r, err := f.svc.Create(ctx, models.ReportInput{
		Title:        "  Fallen tree  ",
		Category:     "Parks",
		LocationText: "40.7, -74.0 (Riverside)",
		AssignedTo:   strPtr("Unassigned"),
		Tags:         []string{"Storm", "storm", " "},
	}, "maria@example.com")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID != 9 {
		t.Errorf("ID = %d, want 9", r.ID)
	}
	if r.Title != "Fallen tree" || r.Status != models.StatusOpen || r.Priority != models.PriorityMedium {
		t.Errorf("defaults not applied: %+v", r)
	}
	if r.AssignedTo != nil {
		t.Errorf("AssignedTo = %q, want nil", *r.AssignedTo)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "storm" {
		t.Errorf("Tags = %v", r.Tags)
	}
	if r.Location.Name != "Riverside" {
		t.Errorf("Location = %+v", r.Location)
	}

	acts, _ := f.log.Query(ctx, models.ActivityQuery{ReportID: models.ID64(r.ID)})
	if len(acts) != 1 || acts[0].Type != models.ActivityReportCreated {
		t.Fatalf("activities = %+v, want one report_created", acts)
	}
	if acts[0].Actor != "maria@example.com" {
		t.Errorf("Actor = %q", acts[0].Actor)
	}

	select {
	case e := <-sub:
		if e.Type != events.ReportCreated || e.ReportID != r.ID {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("no event published")
	}
}

func TestReportService_CreateValidation(t *testing.T) {
	f := newReportFixture(t, nil)
	tests := []struct {
		name  string
		in    models.ReportInput
		field string
	}{
		{"missing title", models.ReportInput{LocationText: "Main Street"}, "title"},
		{"missing location", models.ReportInput{Title: "x"}, "location"},
		{"bad coordinates", models.ReportInput{Title: "x", Location: models.Location{Lat: 120, Lng: 0}}, "location"},
		{"bad status", models.ReportInput{Title: "x", LocationText: "a", Status: "pending-review"}, "status"},
		{"bad priority", models.ReportInput{Title: "x", LocationText: "a", Priority: "urgent"}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in, "")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field = %v, want %s", err, tt.field)
			}
		})
	}
	if f.log.Len() != 0 {
		t.Errorf("failed creates logged %d activities", f.log.Len())
	}
}

func TestReportService_UpdateSameStatusLogsNothing(t *testing.T) {
	f := newReportFixture(t, nil)
	ctx := context.Background()

	before, _ := f.svc.Get(ctx, 3)
	r, err := f.svc.Update(ctx, 3, models.ReportPatch{Status: strPtr("Resolved")}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.Status != models.StatusResolved {
		t.Errorf("Status = %s", r.Status)
	}
	if !r.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("no-op update touched UpdatedAt")
	}
	if f.log.Len() != 0 {
		t.Errorf("no-op update logged %d activities", f.log.Len())
	}
}

func TestReportService_EmptyPatchLogsNothing(t *testing.T) {
	f := newReportFixture(t, nil)
	if _, err := f.svc.Update(context.Background(), 1, models.ReportPatch{}, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.log.Len() != 0 {
		t.Errorf("empty patch logged %d activities", f.log.Len())
	}
}

func TestReportService_UpdateTrackedFields(t *testing.T) {
	f := newReportFixture(t, nil)
	ctx := context.Background()

	before, _ := f.svc.Get(ctx, 1)
	r, err := f.svc.Update(ctx, 1, models.ReportPatch{
		Status:      strPtr("in_progress"),
		AssignedTo:  strPtr("John Park"),
		Priority:    strPtr("high"), // unchanged
		Category:    strPtr("Water"),
		Location:    &models.Location{Lat: 40.1, Lng: -74.1, Name: "Dock"},
		Description: strPtr("Now larger."),
	}, "admin")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !r.CreatedAt.Equal(before.CreatedAt) {
		t.Error("CreatedAt changed")
	}
	if r.Description != "Now larger." || r.Assignee() != "John Park" || r.Category != "Water" {
		t.Errorf("fields not merged: %+v", r)
	}

	acts, _ := f.log.Query(ctx, models.ActivityQuery{ReportID: models.ID64(1)})
	got := make(map[models.ActivityType]int)
	for _, a := range acts {
		got[a.Type]++
	}
	want := map[models.ActivityType]int{
		models.ActivityStatusChanged:     1,
		models.ActivityAssignmentChanged: 1,
		models.ActivityCategoryChanged:   1,
		models.ActivityLocationChanged:   1,
	}
	if len(got) != len(want) {
		t.Errorf("activity types = %v, want %v", got, want)
	}
	for typ, n := range want {
		if got[typ] != n {
			t.Errorf("%s count = %d, want %d", typ, got[typ], n)
		}
	}
}

func TestReportService_UntrackedFieldChangeSavesWithoutActivity(t *testing.T) {
	f := newReportFixture(t, nil)
	ctx := context.Background()

	r, err := f.svc.Update(ctx, 2, models.ReportPatch{Title: strPtr("Street light still out")}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.Title != "Street light still out" {
		t.Errorf("Title = %q", r.Title)
	}
	stored, _ := f.svc.Get(ctx, 2)
	if stored.Title != r.Title {
		t.Error("title change not persisted")
	}
	if f.log.Len() != 0 {
		t.Errorf("logged %d activities for an untracked field", f.log.Len())
	}
}

func TestReportService_UpdateUnknownID(t *testing.T) {
	f := newReportFixture(t, nil)
	_, err := f.svc.Update(context.Background(), 404, models.ReportPatch{Status: strPtr("closed")}, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReportService_StrictPolicy(t *testing.T) {
	f := newReportFixture(t, models.Strict{})
	ctx := context.Background()

	// Report 3 is resolved; resolved cannot move to in_progress.
	_, err := f.svc.Update(ctx, 3, models.ReportPatch{Status: strPtr("in_progress")}, "")
	if !errors.Is(err, models.ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
	r, _ := f.svc.Get(ctx, 3)
	if r.Status != models.StatusResolved {
		t.Errorf("rejected transition changed status to %s", r.Status)
	}
	if f.log.Len() != 0 {
		t.Error("rejected transition was logged")
	}

	if _, err := f.svc.Update(ctx, 3, models.ReportPatch{Status: strPtr("closed")}, ""); err != nil {
		t.Errorf("resolved to closed: %v", err)
	}
}

func TestReportService_DeleteKeepsAssignee(t *testing.T) {
	f := newReportFixture(t, nil)
	ctx := context.Background()

	maria, err := f.users.Create(ctx, models.UserInput{Name: "Maria Lopez", Email: "maria@example.com", Password: "s3cret-pass"}, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	ok, err := f.svc.Delete(ctx, 2, "admin")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, _ := f.svc.Delete(ctx, 2, "admin"); ok {
		t.Error("second Delete reported true")
	}

	if _, err := f.users.Get(ctx, maria.ID); err != nil {
		t.Errorf("assignee was removed: %v", err)
	}
	assigned, err := f.svc.List(ctx, models.ReportFilter{AssignedTo: "Maria Lopez"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, r := range assigned {
		if r.ID == 2 {
			t.Error("deleted report still listed for its assignee")
		}
	}
	if len(assigned) != 1 {
		t.Errorf("assigned reports = %d, want 1", len(assigned))
	}

	acts, _ := f.log.Query(ctx, models.ActivityQuery{Types: []models.ActivityType{models.ActivityReportDeleted}})
	if len(acts) != 1 {
		t.Errorf("report_deleted activities = %d, want 1", len(acts))
	}
}

func TestReportService_ListFilters(t *testing.T) {
	f := newReportFixture(t, nil)
	tests := []struct {
		name   string
		filter models.ReportFilter
		want   int
	}{
		{"all", models.ReportFilter{}, 8},
		{"open", models.ReportFilter{Status: models.StatusOpen}, 4},
		{"category", models.ReportFilter{Category: "lighting"}, 2},
		{"assignee", models.ReportFilter{AssignedTo: "John Park"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
