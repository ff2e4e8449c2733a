// Package store persists reports, users and categories. Each backend maps
// its own status vocabulary to the canonical one at its boundary.
package store

import (
	"context"
	"errors"

	"github.com/urbanpulse/report-server/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// readStatus resolves a stored status. The canonical value kept in detail
// wins; rows written before it existed fall back to the backend vocabulary,
// which cannot tell every canonical status apart.
func readStatus(detail, native string, fromNative func(string) (models.Status, error)) (models.Status, error) {
	if s := models.Status(detail); s.Valid() {
		return s, nil
	}
	return fromNative(native)
}

// ReportRepository persists reports. List and Get return copies.
type ReportRepository interface {
	List(ctx context.Context) ([]models.Report, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	// Insert assigns r.ID.
	Insert(ctx context.Context, r *models.Report) error
	Save(ctx context.Context, r models.Report) error
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// UserRepository persists user accounts. Emails are unique.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// CategoryRepository persists report categories. Names are unique.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Insert(ctx context.Context, c *models.Category) error
	Save(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, id int64) (bool, error)
}
