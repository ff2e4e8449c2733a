package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrUnknownPriority   = errors.New("unknown priority")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Status is the canonical report status. Each store speaks its own
// vocabulary; the Mock*, Geo* and DB* functions below are the only place
// where values cross between them.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// Statuses lists every canonical status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusRejected}

// Valid reports whether s is a canonical status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusBucket is the three-way split used by dashboard charts.
type StatusBucket int

const (
	BucketOpen StatusBucket = iota
	BucketInProgress
	BucketClosed
)

func (b StatusBucket) String() string {
	switch b {
	case BucketOpen:
		return "open"
	case BucketInProgress:
		return "inProgress"
	default:
		return "closed"
	}
}

// Bucket folds the canonical status into the chart split.
func (s Status) Bucket() StatusBucket {
	switch s {
	case StatusDraft, StatusOpen:
		return BucketOpen
	case StatusInProgress:
		return BucketInProgress
	default:
		return BucketClosed
	}
}

// Mock store vocabulary.
const (
	MockOpen       = "Open"
	MockInProgress = "In Progress"
	MockResolved   = "Resolved"
)

// StatusFromMock maps the mock store vocabulary to the canonical status.
func StatusFromMock(v string) (Status, error) {
	switch v {
	case MockOpen:
		return StatusOpen, nil
	case MockInProgress:
		return StatusInProgress, nil
	case MockResolved:
		return StatusResolved, nil
	}
	return "", fmt.Errorf("%w: mock %q", ErrUnknownStatus, v)
}

// MockStatus maps a canonical status to the mock store vocabulary.
// The mock store has no draft, closed or rejected; those collapse.
func MockStatus(s Status) string {
	switch s {
	case StatusDraft, StatusOpen:
		return MockOpen
	case StatusInProgress:
		return MockInProgress
	default:
		return MockResolved
	}
}

// Geo-report store vocabulary.
const (
	GeoDraft     = "draft"
	GeoSubmitted = "submitted"
	GeoApproved  = "approved"
	GeoRejected  = "rejected"
)

// StatusFromGeo maps the geo-report store vocabulary to the canonical status.
func StatusFromGeo(v string) (Status, error) {
	switch v {
	case GeoDraft:
		return StatusDraft, nil
	case GeoSubmitted:
		return StatusOpen, nil
	case GeoApproved:
		return StatusInProgress, nil
	case GeoRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: geo %q", ErrUnknownStatus, v)
}

// GeoStatus maps a canonical status to the geo-report store vocabulary.
func GeoStatus(s Status) string {
	switch s {
	case StatusDraft:
		return GeoDraft
	case StatusOpen:
		return GeoSubmitted
	case StatusRejected:
		return GeoRejected
	default:
		return GeoApproved
	}
}

// Relational schema vocabulary.
const (
	DBPending    = "pending"
	DBInProgress = "in_progress"
	DBAssigned   = "assigned"
	DBResolved   = "resolved"
	DBClosed     = "closed"
	DBRejected   = "rejected"
)

// StatusFromDB maps the relational schema vocabulary to the canonical status.
func StatusFromDB(v string) (Status, error) {
	switch v {
	case DBPending:
		return StatusOpen, nil
	case DBInProgress, DBAssigned:
		return StatusInProgress, nil
	case DBResolved:
		return StatusResolved, nil
	case DBClosed:
		return StatusClosed, nil
	case DBRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: db %q", ErrUnknownStatus, v)
}

// DBStatus maps a canonical status to the relational schema vocabulary.
func DBStatus(s Status) string {
	switch s {
	case StatusDraft, StatusOpen:
		return DBPending
	case StatusInProgress:
		return DBInProgress
	case StatusResolved:
		return DBResolved
	case StatusClosed:
		return DBClosed
	default:
		return DBRejected
	}
}

// ParseStatus accepts a canonical value or any vocabulary value, ignoring case.
func ParseStatus(v string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(v))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	if s := Status(norm); s.Valid() {
		return s, nil
	}
	if s, err := StatusFromGeo(norm); err == nil {
		return s, nil
	}
	if s, err := StatusFromDB(norm); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, v)
}

// Priority is the canonical report priority. The relational schema uses it as-is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority accepts canonical or mock-cased values.
func ParsePriority(v string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, v)
}

// PriorityFromMock maps {Low, Medium, High} to the canonical priority.
func PriorityFromMock(v string) (Priority, error) {
	switch v {
	case "Low":
		return PriorityLow, nil
	case "Medium":
		return PriorityMedium, nil
	case "High":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: mock %q", ErrUnknownPriority, v)
}

// MockPriority maps a canonical priority to the mock vocabulary; critical becomes High.
func MockPriority(p Priority) string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	default:
		return "High"
	}
}

// TransitionPolicy decides whether a status change is allowed.
type TransitionPolicy interface {
	Allow(from, to Status) bool
}

// Unrestricted allows any transition.
type Unrestricted struct{}

func (Unrestricted) Allow(from, to Status) bool { return true }

// Strict allows only the transitions in its table. Same-status is always allowed.
type Strict struct{}

var strictTransitions = map[Status][]Status{
	StatusDraft:      {StatusOpen, StatusRejected},
	StatusOpen:       {StatusInProgress, StatusRejected, StatusClosed},
	StatusInProgress: {StatusResolved, StatusOpen, StatusRejected},
	StatusResolved:   {StatusClosed, StatusOpen},
	StatusClosed:     {StatusOpen},
	StatusRejected:   {StatusOpen},
}

func (Strict) Allow(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range strictTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
