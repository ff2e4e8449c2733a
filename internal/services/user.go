package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for any bad email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// UserService manages user accounts
type UserService struct {
	repo     store.UserRepository
	activity *ActivityService
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewUserService(repo store.UserRepository, activity *ActivityService, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: repo, activity: activity, logger: logger, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

func validateUser(in models.UserInput, requirePassword bool) (models.UserInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	if in.Name == "" {
		return in, invalid("name", "is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, invalid("email", "is not a valid address")
	}
	if in.Role == "" {
		in.Role = models.RoleCitizen
	}
	if !in.Role.Valid() {
		return in, invalid("role", "unknown role %q", in.Role)
	}
	if (requirePassword || in.Password != "") && len(in.Password) < minPasswordLength {
		return in, invalid("password", "must be at least %d characters", minPasswordLength)
	}
	return in, nil
}

// Create hashes the password and stores a new account
func (s *UserService) Create(ctx context.Context, in models.UserInput, actor string) (*models.User, error) {
	in, err := validateUser(in, true)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityUserCreated,
		Title:       "User created",
		Description: fmt.Sprintf("%s joined as %s", u.Name, u.Role),
		UserID:      models.ID64(u.ID),
		Actor:       actor,
	})
	return u, nil
}

// Update replaces name, email and role; the password changes only when given
func (s *UserService) Update(ctx context.Context, id int64, in models.UserInput, actor string) (*models.User, error) {
	in, err := validateUser(in, false)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name, u.Email, u.Role = in.Name, in.Email, in.Role
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if err := s.repo.Save(ctx, *u); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.activity.Record(ctx, models.ActivityEntry{
		Type:        models.ActivityUserUpdated,
		Title:       "User updated",
		Description: fmt.Sprintf("%s (%s) was updated", u.Name, u.Role),
		UserID:      models.ID64(u.ID),
		Actor:       actor,
	})
	return u, nil
}

// Delete removes an account. Reports assigned to the user keep their assignee text.
func (s *UserService) Delete(ctx context.Context, id int64, actor string) (bool, error) {
	u, err := s.repo.Get(ctx, id)
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
		Type:        models.ActivityUserDeleted,
		Title:       "User deleted",
		Description: fmt.Sprintf("%s was removed", u.Name),
		UserID:      models.ID64(id),
		Actor:       actor,
	})
	return true, nil
}

// Authenticate checks an email/password pair
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account if no user has that email yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err = s.Create(ctx, models.UserInput{Name: "Administrator", Email: email, Role: models.RoleAdmin, Password: password}, "SYSTEM")
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.Infow("Bootstrap admin created", "email", models.NormalizeEmail(email))
	return nil
}
