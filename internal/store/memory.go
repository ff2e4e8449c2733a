package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/urbanpulse/report-server/internal/models"
)

// MemoryReports is the mock report store. IDs are max existing + 1.
type MemoryReports struct {
	mu      sync.RWMutex
	reports map[int64]models.Report
}

// NewMemoryReports creates a store holding copies of seed.
func NewMemoryReports(seed []models.Report) *MemoryReports {
	m := &MemoryReports{reports: make(map[int64]models.Report, len(seed))}
	for _, r := range seed {
		m.reports[r.ID] = r.Clone()
	}
	return m
}

func (m *MemoryReports) List(_ context.Context) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryReports) Get(_ context.Context, id int64) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	c := r.Clone()
	return &c, nil
}

func (m *MemoryReports) Insert(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int64
	for id := range m.reports {
		if id > max {
			max = id
		}
	}
	r.ID = max + 1
	m.reports[r.ID] = r.Clone()
	return nil
}

func (m *MemoryReports) Save(_ context.Context, r models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return fmt.Errorf("report %d: %w", r.ID, ErrNotFound)
	}
	m.reports[r.ID] = r.Clone()
	return nil
}

func (m *MemoryReports) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return false, nil
	}
	delete(m.reports, id)
	return true, nil
}

func (m *MemoryReports) Ping(_ context.Context) error { return nil }

// MemoryUsers keeps user accounts in memory.
type MemoryUsers struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	nextID int64
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[int64]models.User), nextID: 1}
}

func (m *MemoryUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryUsers) Get(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = models.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (m *MemoryUsers) emailTaken(email string, except int64) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, 0) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryUsers) Save(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	if m.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryUsers) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

// MemoryCategories keeps categories in memory.
type MemoryCategories struct {
	mu         sync.RWMutex
	categories map[int64]models.Category
	nextID     int64
}

func NewMemoryCategories() *MemoryCategories {
	return &MemoryCategories{categories: make(map[int64]models.Category), nextID: 1}
}

func (m *MemoryCategories) List(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryCategories) Get(_ context.Context, id int64) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (m *MemoryCategories) nameTaken(name string, except int64) bool {
	for id, c := range m.categories {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (m *MemoryCategories) Insert(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(c.Name, 0) {
		return fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
	}
	c.ID = m.nextID
	m.nextID++
	m.categories[c.ID] = *c
	return nil
}

func (m *MemoryCategories) Save(_ context.Context, c models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return fmt.Errorf("category %d: %w", c.ID, ErrNotFound)
	}
	if m.nameTaken(c.Name, c.ID) {
		return fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
	}
	m.categories[c.ID] = c
	return nil
}

func (m *MemoryCategories) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return false, nil
	}
	delete(m.categories, id)
	return true, nil
}
