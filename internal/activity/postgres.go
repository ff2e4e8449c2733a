package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urbanpulse/report-server/internal/models"
	"go.uber.org/zap"
)

// Postgres stores activities in the activity_logs table.
type Postgres struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgres creates a Postgres-backed activity log
func NewPostgres(db *pgxpool.Pool, logger *zap.SugaredLogger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// Append records an activity
func (p *Postgres) Append(ctx context.Context, e models.ActivityEntry) (models.Activity, error) {
	a := newActivity(e, time.Now().UTC())

	query := `
		INSERT INTO activity_logs (id, activity_type, title, description, report_id, user_id, category_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.db.Exec(ctx, query,
		a.ID,
		string(a.Type),
		a.Title,
		a.Description,
		a.ReportID,
		a.UserID,
		a.CategoryID,
		a.Actor,
		a.CreatedAt,
	)
	if err != nil {
		return models.Activity{}, fmt.Errorf("insert activity log: %w", err)
	}

	p.logger.Debugw("Activity logged",
		"actor", a.Actor,
		"type", a.Type,
		"title", a.Title,
	)

	return a, nil
}

// selectActivities builds the filtered query. Rows sharing a timestamp
// are ordered by id so the digest leaves keep a stable order.
func selectActivities(q models.ActivityQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.ReportID != nil {
		add("report_id = $%d", *q.ReportID)
	}
	if q.UserID != nil {
		add("user_id = $%d", *q.UserID)
	}
	if q.CategoryID != nil {
		add("category_id = $%d", *q.CategoryID)
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		add("activity_type = ANY($%d)", types)
	}

	query := `SELECT id, activity_type, title, description, report_id, user_id, category_id, actor, created_at
		FROM activity_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// Query returns matching activities, newest first
func (p *Postgres) Query(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error) {
	query, args := selectActivities(q)
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.Activity, 0)
	for rows.Next() {
		var (
			a     models.Activity
			aType string
		)
		if err := rows.Scan(&a.ID, &aType, &a.Title, &a.Description,
			&a.ReportID, &a.UserID, &a.CategoryID, &a.Actor, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		a.Type = models.ActivityType(aType)
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
