// Package services contains business logic layers.
// Services are called by handlers and work through the store and activity
// interfaces, so the same logic runs on every backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urbanpulse/report-server/internal/events"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap"
)

// ErrValidation is the sentinel every ValidationError unwraps to.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReportService handles report business logic
type ReportService struct {
	repo     store.ReportRepository
	activity *ActivityService
	broker   events.Broker
	policy   models.TransitionPolicy
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewReportService creates a new report service. A nil policy allows every transition.
func NewReportService(repo store.ReportRepository, activity *ActivityService, broker events.Broker, policy models.TransitionPolicy, logger *zap.SugaredLogger) *ReportService {
	if policy == nil {
		policy = models.Unrestricted{}
	}
	return &ReportService{
		repo:     repo,
		activity: activity,
		broker:   broker,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns copies of the reports passing f, ordered by id
func (s *ReportService) List(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]models.Report, 0, len(all))
	for _, r := range all {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns one report
func (s *ReportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	return s.repo.Get(ctx, id)
}

// Ping checks the backing store
func (s *ReportService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func resolveLocation(loc models.Location, text string) (models.Location, error) {
	if !loc.IsZero() {
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return loc, invalid("location", "coordinates out of range")
		}
		loc.Name = strings.TrimSpace(loc.Name)
		return loc, nil
	}
	if strings.TrimSpace(text) == "" {
		return loc, invalid("location", "is required")
	}
	parsed, err := models.ParseLocation(text)
	if err != nil {
		return loc, invalid("location", "%v", err)
	}
	return parsed, nil
}

// Create validates and stores a new report, then records it in the activity log
func (s *ReportService) Create(ctx context.Context, in models.ReportInput, actor string) (*models.Report, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	loc, err := resolveLocation(in.Location, in.LocationText)
	if err != nil {
		return nil, err
	}

	status := models.StatusOpen
	if in.Status != "" {
		if status, err = models.ParseStatus(in.Status); err != nil {
			return nil, invalid("status", "%v", err)
		}
	}
	priority := models.PriorityMedium
	if in.Priority != "" {
		if priority, err = models.ParsePriority(in.Priority); err != nil {
			return nil, invalid("priority", "%v", err)
		}
	}

	now := s.now()
	r := &models.Report{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Status:      status,
		Priority:    priority,
		Location:    loc,
		AssignedTo:  models.NormalizeAssignee(in.AssignedTo),
		Tags:        models.NormalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.Infow("Report created", "id", r.ID, "category", r.Category, "actor", actor)
	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityReportCreated,
		Title:       "Report created",
		Description: fmt.Sprintf("%q was reported at %s", r.Title, r.Location.Label()),
		ReportID:    models.ID64(r.ID),
		Actor:       actor,
	})
	s.publish(ctx, events.ReportCreated, r.ID)
	return r, nil
}

// Update merges the non-nil fields of p into the report. Changes to status,
// assignee, priority, category and location each append one activity; a
// patch that changes nothing appends nothing and leaves UpdatedAt alone.
func (s *ReportService) Update(ctx context.Context, id int64, p models.ReportPatch, actor string) (*models.Report, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return current, nil
	}

	next := current.Clone()
	var entries []models.ActivityEntry
	track := func(typ models.ActivityType, title, from, to string) {
		entries = append(entries, models.ActivityEntry{
			Type:        typ,
			Title:       title,
			Description: fmt.Sprintf("Report #%d changed from %s to %s", id, from, to),
			ReportID:    models.ID64(id),
			Actor:       actor,
		})
	}
	changed := false

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		changed = changed || title != next.Title
		next.Title = title
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		changed = changed || d != next.Description
		next.Description = d
	}
	if p.Tags != nil {
		tags := models.NormalizeTags(p.Tags)
		changed = changed || !equalTags(tags, next.Tags)
		next.Tags = tags
	}
	if p.Status != nil {
		status, err := models.ParseStatus(*p.Status)
		if err != nil {
			return nil, invalid("status", "%v", err)
		}
		if status != current.Status {
			if !s.policy.Allow(current.Status, status) {
				return nil, fmt.Errorf("%s to %s: %w", current.Status, status, models.ErrIllegalTransition)
			}
			next.Status = status
			track(models.ActivityStatusChanged, "Status changed", string(current.Status), string(status))
		}
	}
	if p.AssignedTo != nil {
		assignee := models.NormalizeAssignee(p.AssignedTo)
		next.AssignedTo = assignee
		if next.Assignee() != current.Assignee() {
			track(models.ActivityAssignmentChanged, "Assignment changed", orUnassigned(current.Assignee()), orUnassigned(next.Assignee()))
		}
	}
	if p.Priority != nil {
		priority, err := models.ParsePriority(*p.Priority)
		if err != nil {
			return nil, invalid("priority", "%v", err)
		}
		if priority != current.Priority {
			next.Priority = priority
			track(models.ActivityPriorityChanged, "Priority changed", string(current.Priority), string(priority))
		}
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category != current.Category {
			next.Category = category
			track(models.ActivityCategoryChanged, "Category changed", orNone(current.Category), orNone(category))
		}
	}
	if p.Location != nil || p.LocationText != nil {
		var (
			loc  models.Location
			text string
		)
		if p.Location != nil {
			loc = *p.Location
		}
		if p.LocationText != nil {
			text = *p.LocationText
		}
		loc, err := resolveLocation(loc, text)
		if err != nil {
			return nil, err
		}
		if loc != current.Location {
			next.Location = loc
			track(models.ActivityLocationChanged, "Location changed", current.Location.Label(), loc.Label())
		}
	}

	if !changed && len(entries) == 0 {
		return current, nil
	}

	next.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("update report %d: %w", id, err)
	}

	s.logger.Infow("Report updated", "id", id, "tracked_changes", len(entries), "actor", actor)
	for _, e := range entries {
		s.activity.Record(ctx, e)
	}
	s.publish(ctx, events.ReportUpdated, id)
	return &next, nil
}

// Delete removes a report. Users it was assigned to are not touched.
func (s *ReportService) Delete(ctx context.Context, id int64, actor string) (bool, error) {
	current, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete report %d: %w", id, err)
	}
	if !ok {
		return false, nil
	}

	s.logger.Infow("Report deleted", "id", id, "actor", actor)
	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityReportDeleted,
		Title:       "Report deleted",
		Description: fmt.Sprintf("%q was removed", current.Title),
		ReportID:    models.ID64(id),
		Actor:       actor,
	})
	s.publish(ctx, events.ReportDeleted, id)
	return true, nil
}

func (s *ReportService) publish(ctx context.Context, typ events.Type, id int64) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, events.Event{Type: typ, ReportID: id, At: s.now()}); err != nil {
		s.logger.Warnw("Failed to publish report event", "type", typ, "id", id, "error", err)
	}
}

func orUnassigned(s string) string {
	if s == "" {
		return "Unassigned"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
