package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryService manages report categories
type CategoryService struct {
	repo     store.CategoryRepository
	activity *ActivityService
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewCategoryService(repo store.CategoryRepository, activity *ActivityService, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{repo: repo, activity: activity, logger: logger, now: time.Now}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.repo.Get(ctx, id)
}

func validateCategory(in models.CategoryInput) (models.CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.TrimSpace(in.Color)
	if in.Name == "" {
		return in, invalid("name", "is required")
	}
	if in.Color != "" && !hexColor.MatchString(in.Color) {
		return in, invalid("color", "must look like #rrggbb")
	}
	return in, nil
}

func (s *CategoryService) Create(ctx context.Context, in models.CategoryInput, actor string) (*models.Category, error) {
	in, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	c := &models.Category{Name: in.Name, Description: in.Description, Color: in.Color, CreatedAt: s.now()}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityCategoryCreated,
		Title:       "Category created",
		Description: fmt.Sprintf("Category %q was added", c.Name),
		CategoryID:  models.ID64(c.ID),
		Actor:       actor,
	})
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in models.CategoryInput, actor string) (*models.Category, error) {
	in, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Name == in.Name && c.Description == in.Description && c.Color == in.Color {
		return c, nil
	}
	previous := c.Name
	c.Name, c.Description, c.Color = in.Name, in.Description, in.Color
	if err := s.repo.Save(ctx, *c); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}

	desc := fmt.Sprintf("Category %q was updated", c.Name)
	if previous != c.Name {
		desc = fmt.Sprintf("Category %q was renamed to %q", previous, c.Name)
	}
	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityCategoryUpdated,
		Title:       "Category updated",
		Description: desc,
		CategoryID:  models.ID64(id),
		Actor:       actor,
	})
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64, actor string) (bool, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityCategoryDeleted,
		Title:       "Category deleted",
		Description: fmt.Sprintf("Category %q was removed", c.Name),
		CategoryID:  models.ID64(id),
		Actor:       actor,
	})
	return true, nil
}

// Seed inserts categories that do not exist yet, without logging activity.
func (s *CategoryService) Seed(ctx context.Context, inputs []models.CategoryInput) error {
	for _, in := range inputs {
		in, err := validateCategory(in)
		if err != nil {
			return err
		}
		c := &models.Category{Name: in.Name, Description: in.Description, Color: in.Color, CreatedAt: s.now()}
		if err := s.repo.Insert(ctx, c); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("seed category %q: %w", in.Name, err)
		}
	}
	return nil
}
