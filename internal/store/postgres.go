package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urbanpulse/report-server/internal/models"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

func pgErr(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// nonNilTags keeps the NOT NULL tags column from receiving NULL.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// PostgresReports stores reports in the relational schema. Statuses are
// written in the relational vocabulary with the canonical value beside it
// in status_detail.
type PostgresReports struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgresReports creates a new Postgres report repository
func NewPostgresReports(db *pgxpool.Pool, logger *zap.SugaredLogger) *PostgresReports {
	return &PostgresReports{db: db, logger: logger}
}

const reportColumns = `id, title, description, category, status, status_detail, priority, lat, lng, location_name, assigned_to, tags, created_at, updated_at`

func scanReport(row pgx.Row) (models.Report, error) {
	var (
		r        models.Report
		status   string
		detail   string
		priority string
	)
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &status, &detail, &priority,
		&r.Location.Lat, &r.Location.Lng, &r.Location.Name, &r.AssignedTo, &r.Tags,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if r.Status, err = readStatus(detail, status, models.StatusFromDB); err != nil {
		return r, err
	}
	if r.Priority, err = models.ParsePriority(priority); err != nil {
		return r, err
	}
	return r, nil
}

// List returns all reports ordered by id
func (s *PostgresReports) List(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id`)
	if err != nil {
		return nil, pgErr("list reports", err)
	}
	defer rows.Close()

	out := make([]models.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			// A row outside the vocabulary is skipped rather than failing the listing.
			s.logger.Warnw("Skipping unreadable report row", "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one report by id
func (s *PostgresReports) Get(ctx context.Context, id int64) (*models.Report, error) {
	r, err := scanReport(s.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return nil, pgErr(fmt.Sprintf("report %d", id), err)
	}
	return &r, nil
}

// Insert stores a new report and assigns its id
func (s *PostgresReports) Insert(ctx context.Context, r *models.Report) error {
	query := `
		INSERT INTO reports (title, description, category, status, status_detail, priority, lat, lng, location_name, assigned_to, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		r.Title, r.Description, r.Category,
		models.DBStatus(r.Status), string(r.Status), string(r.Priority),
		r.Location.Lat, r.Location.Lng, r.Location.Name,
		r.AssignedTo, nonNilTags(r.Tags), r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return pgErr("insert report", err)
	}
	return nil
}

// Save overwrites every mutable column of an existing report
func (s *PostgresReports) Save(ctx context.Context, r models.Report) error {
	query := `
		UPDATE reports SET title = $2, description = $3, category = $4, status = $5, status_detail = $6,
			priority = $7, lat = $8, lng = $9, location_name = $10, assigned_to = $11, tags = $12, updated_at = $13
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		r.ID, r.Title, r.Description, r.Category,
		models.DBStatus(r.Status), string(r.Status), string(r.Priority),
		r.Location.Lat, r.Location.Lng, r.Location.Name,
		r.AssignedTo, nonNilTags(r.Tags), r.UpdatedAt,
	)
	if err != nil {
		return pgErr("update report", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a report; false when it did not exist
func (s *PostgresReports) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return false, pgErr("delete report", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks database connectivity
func (s *PostgresReports) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// PostgresUsers stores user accounts.
type PostgresUsers struct {
	db *pgxpool.Pool
}

func NewPostgresUsers(db *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{db: db}
}

const userColumns = `id, name, email, role, password_hash, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CreatedAt)
	u.Role = models.Role(role)
	return u, err
}

func (s *PostgresUsers) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, pgErr("list users", err)
	}
	defer rows.Close()

	out := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, pgErr("scan user", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, pgErr(fmt.Sprintf("user %d", id), err)
	}
	return &u, nil
}

func (s *PostgresUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, pgErr("user "+email, err)
	}
	return &u, nil
}

func (s *PostgresUsers) Insert(ctx context.Context, u *models.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, role, password_hash, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Name, u.Email, string(u.Role), u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return pgErr("insert user", err)
	}
	return nil
}

func (s *PostgresUsers) Save(ctx context.Context, u models.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, role = $4, password_hash = $5 WHERE id = $1`,
		u.ID, u.Name, u.Email, string(u.Role), u.PasswordHash,
	)
	if err != nil {
		return pgErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresUsers) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, pgErr("delete user", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PostgresCategories stores report categories.
type PostgresCategories struct {
	db *pgxpool.Pool
}

func NewPostgresCategories(db *pgxpool.Pool) *PostgresCategories {
	return &PostgresCategories{db: db}
}

const categoryColumns = `id, name, description, color, created_at`

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt)
	return c, err
}

func (s *PostgresCategories) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, pgErr("list categories", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, pgErr("scan category", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCategories) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, pgErr(fmt.Sprintf("category %d", id), err)
	}
	return &c, nil
}

func (s *PostgresCategories) Insert(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO categories (name, description, color, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Name, c.Description, c.Color, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return pgErr("insert category", err)
	}
	return nil
}

func (s *PostgresCategories) Save(ctx context.Context, c models.Category) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE categories SET name = $2, description = $3, color = $4 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Color,
	)
	if err != nil {
		return pgErr("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresCategories) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, pgErr("delete category", err)
	}
	return tag.RowsAffected() > 0, nil
}
