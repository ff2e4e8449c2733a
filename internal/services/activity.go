package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/urbanpulse/report-server/internal/activity"
	"github.com/urbanpulse/report-server/internal/models"
	"go.uber.org/zap"
)

// ActivityView is an activity as served to clients, with its age rendered
// at read time.
type ActivityView struct {
	models.Activity
	RelativeTime string `json:"relative_time"`
}

// ActivityService handles activity log business logic
type ActivityService struct {
	log    activity.Log
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewActivityService creates a new activity service
func NewActivityService(log activity.Log, logger *zap.SugaredLogger) *ActivityService {
	return &ActivityService{log: log, logger: logger, now: time.Now}
}

// Record appends an entry. The change it describes has already been
// stored, so a failed append is logged rather than returned.
func (s *ActivityService) Record(ctx context.Context, e models.ActivityEntry) {
	a, err := s.log.Append(ctx, e)
	if err != nil {
		s.logger.Errorw("Failed to record activity", "type", e.Type, "error", err)
		return
	}
	s.logger.Infow("Activity logged",
		"actor", a.Actor,
		"type", a.Type,
		"title", a.Title,
	)
}

// Fetch returns matching activities, newest first
func (s *ActivityService) Fetch(ctx context.Context, q models.ActivityQuery) ([]ActivityView, error) {
	items, err := s.log.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	now := s.now()
	out := make([]ActivityView, len(items))
	for i, a := range items {
		out[i] = ActivityView{Activity: a, RelativeTime: activity.RelativeTime(a.CreatedAt, now)}
	}
	return out, nil
}

// FetchRecent returns the latest activities across all reports, users and categories
func (s *ActivityService) FetchRecent(ctx context.Context, limit int) ([]ActivityView, error) {
	return s.Fetch(ctx, models.ActivityQuery{Limit: limit})
}

// LeafHashes returns one hash per activity in append order, oldest first.
func (s *ActivityService) LeafHashes(ctx context.Context) ([]string, error) {
	items, err := s.log.Query(ctx, models.ActivityQuery{})
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	hashes := make([]string, len(items))
	for i, a := range items {
		hashes[len(items)-1-i] = HashActivity(a)
	}
	return hashes, nil
}

// HashActivity is the digest leaf for a single activity.
func HashActivity(a models.Activity) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s",
		a.ID, a.Type, a.Title, a.Description,
		optID(a.ReportID), optID(a.UserID), optID(a.CategoryID),
		a.Actor, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}

func optID(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}
