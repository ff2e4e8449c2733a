package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType identifies what kind of change an Activity records.
type ActivityType string

const (
	ActivityReportCreated     ActivityType = "report_created"
	ActivityReportUpdated     ActivityType = "report_updated"
	ActivityReportDeleted     ActivityType = "report_deleted"
	ActivityStatusChanged     ActivityType = "status_changed"
	ActivityAssignmentChanged ActivityType = "assignment_changed"
	ActivityPriorityChanged   ActivityType = "priority_changed"
	ActivityCategoryChanged   ActivityType = "category_changed"
	ActivityLocationChanged   ActivityType = "location_changed"
	ActivityUserCreated       ActivityType = "user_created"
	ActivityUserUpdated       ActivityType = "user_updated"
	ActivityUserDeleted       ActivityType = "user_deleted"
	ActivityCategoryCreated   ActivityType = "category_created"
	ActivityCategoryUpdated   ActivityType = "category_updated"
	ActivityCategoryDeleted   ActivityType = "category_deleted"
	ActivityExportGenerated   ActivityType = "export_generated"
)

// Activity is an immutable log entry describing a change.
type Activity struct {
	ID          uuid.UUID    `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ReportID    *int64       `json:"report_id,omitempty"`
	UserID      *int64       `json:"user_id,omitempty"`
	CategoryID  *int64       `json:"category_id,omitempty"`
	Actor       string       `json:"actor"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ActivityEntry is what callers hand to the log; id and timestamp are assigned on append.
type ActivityEntry struct {
	Type        ActivityType
	Title       string
	Description string
	ReportID    *int64
	UserID      *int64
	CategoryID  *int64
	Actor       string
}

// ActivityQuery selects activities by related ids and types.
// Nil ids and an empty type list match everything.
type ActivityQuery struct {
	ReportID   *int64
	UserID     *int64
	CategoryID *int64
	Types      []ActivityType
	Limit      int
}

// Matches reports whether a passes the query.
func (q ActivityQuery) Matches(a Activity) bool {
	if q.ReportID != nil && (a.ReportID == nil || *a.ReportID != *q.ReportID) {
		return false
	}
	if q.UserID != nil && (a.UserID == nil || *a.UserID != *q.UserID) {
		return false
	}
	if q.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *q.CategoryID) {
		return false
	}
	if len(q.Types) == 0 {
		return true
	}
	for _, t := range q.Types {
		if a.Type == t {
			return true
		}
	}
	return false
}

// ID64 returns a pointer to v, for optional id fields.
func ID64(v int64) *int64 { return &v }
