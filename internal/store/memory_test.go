package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
)

func sampleReports() []models.Report {
	at := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	return []models.Report{
		{ID: 3, Title: "a", Category: "Roads", Status: models.StatusOpen, Priority: models.PriorityLow, Tags: []string{"x"}, CreatedAt: at, UpdatedAt: at},
		{ID: 7, Title: "b", Category: "Water", Status: models.StatusResolved, Priority: models.PriorityHigh, Tags: []string{}, CreatedAt: at, UpdatedAt: at},
	}
}

func TestMemoryReports_InsertUsesMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryReports(sampleReports())

	r := &models.Report{Title: "new", Status: models.StatusOpen, Priority: models.PriorityMedium}
	if err := m.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if r.ID != 8 {
		t.Errorf("ID = %d, want 8", r.ID)
	}

	empty := NewMemoryReports(nil)
	r2 := &models.Report{Title: "first"}
	if err := empty.Insert(ctx, r2); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if r2.ID != 1 {
		t.Errorf("ID on empty store = %d, want 1", r2.ID)
	}
}

func TestMemoryReports_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryReports(sampleReports())

	got, err := m.Get(ctx, 3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, _ := m.Get(ctx, 3)
	if again.Title != "a" || again.Tags[0] != "x" {
		t.Errorf("store was mutated through a returned value: %+v", again)
	}

	list, _ := m.List(ctx)
	list[0].Tags[0] = "mutated"
	again, _ = m.Get(ctx, 3)
	if again.Tags[0] != "x" {
		t.Error("store was mutated through List")
	}
}

func TestMemoryReports_ListOrderedByID(t *testing.T) {
	m := NewMemoryReports(sampleReports())
	list, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != 3 || list[1].ID != 7 {
		t.Errorf("List order = %+v", list)
	}
}

func TestMemoryReports_SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryReports(sampleReports())

	err := m.Save(ctx, models.Report{ID: 99})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Save unknown id: err = %v, want ErrNotFound", err)
	}

	r, _ := m.Get(ctx, 7)
	r.Status = models.StatusClosed
	if err := m.Save(ctx, *r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r, _ = m.Get(ctx, 7)
	if r.Status != models.StatusClosed {
		t.Errorf("Status = %s, want closed", r.Status)
	}

	ok, err := m.Delete(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("Delete existing = %v, %v", ok, err)
	}
	ok, err = m.Delete(ctx, 7)
	if err != nil || ok {
		t.Errorf("Delete twice = %v, %v; want false, nil", ok, err)
	}
	if _, err := m.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted: err = %v", err)
	}
}

func TestMemoryUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryUsers()

	a := &models.User{Name: "A", Email: "a@example.com", Role: models.RoleCitizen}
	if err := m.Insert(ctx, a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b := &models.User{Name: "B", Email: "a@example.com", Role: models.RoleCitizen}
	if err := m.Insert(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Insert: err = %v, want ErrDuplicate", err)
	}

	got, err := m.GetByEmail(ctx, "  A@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("GetByEmail ID = %d, want %d", got.ID, a.ID)
	}

	// Saving a user under its own email is not a conflict.
	a.Name = "Renamed"
	if err := m.Save(ctx, *a); err != nil {
		t.Errorf("Save: %v", err)
	}
}

func TestMemoryCategories_CaseInsensitiveNames(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCategories()

	if err := m.Insert(ctx, &models.Category{Name: "Roads"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Insert(ctx, &models.Category{Name: "roads"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if ok, _ := m.Delete(ctx, 42); ok {
		t.Error("Delete unknown category reported true")
	}
}
