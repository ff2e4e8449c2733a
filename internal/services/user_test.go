package services

import (
	"context"
	"errors"
	"testing"

	"github.com/urbanpulse/report-server/internal/activity"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap/zaptest"
)

func newUserFixture(t *testing.T) (*UserService, *CategoryService, *activity.Memory) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	log := activity.NewMemory()
	acts := NewActivityService(log, logger)
	return NewUserService(store.NewMemoryUsers(), acts, logger),
		NewCategoryService(store.NewMemoryCategories(), acts, logger),
		log
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	users, _, log := newUserFixture(t)
	ctx := context.Background()

	u, err := users.Create(ctx, models.UserInput{Name: "Ana", Email: " Ana@Example.com ", Password: "correct-horse"}, "admin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != models.RoleCitizen {
		t.Errorf("user = %+v", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct-horse" {
		t.Error("password not hashed")
	}

	if _, err := users.Authenticate(ctx, "ana@example.com", "correct-horse"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}
	if _, err := users.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}

	acts, _ := log.Query(ctx, models.ActivityQuery{UserID: models.ID64(u.ID)})
	if len(acts) != 1 || acts[0].Type != models.ActivityUserCreated {
		t.Errorf("activities = %+v", acts)
	}
}

func TestUserService_Validation(t *testing.T) {
	users, _, _ := newUserFixture(t)
	tests := []struct {
		name string
		in   models.UserInput
	}{
		{"no name", models.UserInput{Email: "a@b.co", Password: "long-enough"}},
		{"bad email", models.UserInput{Name: "A", Email: "not-an-email", Password: "long-enough"}},
		{"short password", models.UserInput{Name: "A", Email: "a@b.co", Password: "short"}},
		{"bad role", models.UserInput{Name: "A", Email: "a@b.co", Password: "long-enough", Role: "mayor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := users.Create(context.Background(), tt.in, ""); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUserService_EnsureAdminIsIdempotent(t *testing.T) {
	users, _, _ := newUserFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := users.EnsureAdmin(ctx, "admin@example.com", "admin-password"); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i, err)
		}
	}
	list, _ := users.List(ctx)
	if len(list) != 1 || list[0].Role != models.RoleAdmin {
		t.Errorf("users = %+v", list)
	}
}

func TestCategoryService_Lifecycle(t *testing.T) {
	_, cats, log := newUserFixture(t)
	ctx := context.Background()

	c, err := cats.Create(ctx, models.CategoryInput{Name: "Noise", Color: "#123abc"}, "admin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := cats.Create(ctx, models.CategoryInput{Name: "noise"}, "admin"); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := cats.Create(ctx, models.CategoryInput{Name: "Odd", Color: "red"}, "admin"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad color: err = %v", err)
	}

	// Unchanged update records nothing.
	if _, err := cats.Update(ctx, c.ID, models.CategoryInput{Name: "Noise", Color: "#123abc"}, "admin"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := cats.Update(ctx, c.ID, models.CategoryInput{Name: "Noise complaints", Color: "#123abc"}, "admin"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	ok, err := cats.Delete(ctx, c.ID, "admin")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}

	acts, _ := log.Query(ctx, models.ActivityQuery{CategoryID: models.ID64(c.ID)})
	want := []models.ActivityType{models.ActivityCategoryDeleted, models.ActivityCategoryUpdated, models.ActivityCategoryCreated}
	if len(acts) != len(want) {
		t.Fatalf("activities = %d, want %d", len(acts), len(want))
	}
	for i, typ := range want {
		if acts[i].Type != typ {
			t.Errorf("activity %d = %s, want %s", i, acts[i].Type, typ)
		}
	}
}

func TestCategoryService_SeedSkipsExisting(t *testing.T) {
	_, cats, log := newUserFixture(t)
	ctx := context.Background()
	in := []models.CategoryInput{{Name: "Roads"}, {Name: "Water"}}
	if err := cats.Seed(ctx, in); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := cats.Seed(ctx, in); err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	list, _ := cats.List(ctx)
	if len(list) != 2 {
		t.Errorf("categories = %d, want 2", len(list))
	}
	if log.Len() != 0 {
		t.Error("seeding logged activity")
	}
}
