// Package activity is the append-only change log shown next to reports,
// users and categories.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urbanpulse/report-server/internal/models"
)

// Log is an append-only activity store. Query results are most recent first.
type Log interface {
	Append(ctx context.Context, e models.ActivityEntry) (models.Activity, error)
	Query(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error)
}

// Memory keeps activities in a slice, newest first.
type Memory struct {
	mu      sync.RWMutex
	entries []models.Activity
	now     func() time.Time
}

// NewMemory creates an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Append assigns an id and timestamp and prepends the entry.
func (m *Memory) Append(_ context.Context, e models.ActivityEntry) (models.Activity, error) {
	a := newActivity(e, m.now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, models.Activity{})
	copy(m.entries[1:], m.entries)
	m.entries[0] = a
	return a, nil
}

// Query returns copies of matching entries, newest first.
func (m *Memory) Query(_ context.Context, q models.ActivityQuery) ([]models.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Activity, 0)
	for _, a := range m.entries {
		if !q.Matches(a) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func newActivity(e models.ActivityEntry, now time.Time) models.Activity {
	actor := e.Actor
	if actor == "" {
		actor = "SYSTEM"
	}
	return models.Activity{
		ID:          uuid.New(),
		Type:        e.Type,
		Title:       e.Title,
		Description: e.Description,
		ReportID:    e.ReportID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		Actor:       actor,
		CreatedAt:   now,
	}
}

// RelativeTime renders how long ago t was, as seen at now. Anything older
// than 30 days falls back to the calendar date. Callers compute it per read.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d <= 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
