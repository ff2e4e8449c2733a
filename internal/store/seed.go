package store

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/mock_reports.yaml
var defaultSeed []byte

// Seed is the decoded mock data set.
type Seed struct {
	Reports    []models.Report
	Categories []models.CategoryInput
}

type seedFile struct {
	Categories []models.CategoryInput `yaml:"categories"`
	Reports    []mockReport           `yaml:"reports"`
}

// mockReport is a report in the mock vocabulary.
type mockReport struct {
	ID          int64     `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	Status      string    `yaml:"status"`
	Priority    string    `yaml:"priority"`
	Location    string    `yaml:"location"`
	Date        time.Time `yaml:"date"`
	AssignedTo  string    `yaml:"assignedTo"`
	Tags        []string  `yaml:"tags"`
}

func (m mockReport) toReport() (models.Report, error) {
	status, err := models.StatusFromMock(m.Status)
	if err != nil {
		return models.Report{}, err
	}
	priority, err := models.PriorityFromMock(m.Priority)
	if err != nil {
		return models.Report{}, err
	}
	loc, err := models.ParseLocation(m.Location)
	if err != nil {
		return models.Report{}, fmt.Errorf("location: %w", err)
	}
	assignee := m.AssignedTo
	return models.Report{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Status:      status,
		Priority:    priority,
		Location:    loc,
		AssignedTo:  models.NormalizeAssignee(&assignee),
		Tags:        models.NormalizeTags(m.Tags),
		CreatedAt:   m.Date,
		UpdatedAt:   m.Date,
	}, nil
}

// ParseSeed decodes a YAML seed file. Every invalid report is reported in
// the joined error; duplicate ids are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	seed := &Seed{Categories: f.Categories}
	seen := make(map[int64]bool, len(f.Reports))
	var errs []error
	for i, m := range f.Reports {
		if m.ID <= 0 {
			errs = append(errs, fmt.Errorf("report #%d: id must be positive", i))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("report %d: duplicate id", m.ID))
			continue
		}
		seen[m.ID] = true
		r, err := m.toReport()
		if err != nil {
			errs = append(errs, fmt.Errorf("report %d: %w", m.ID, err))
			continue
		}
		seed.Reports = append(seed.Reports, r)
	}
	if len(errs) > 0 {
		return seed, errors.Join(errs...)
	}
	return seed, nil
}

// LoadSeed reads the seed at path, or the embedded mock data when path is empty.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = b
	}
	return ParseSeed(data)
}

// MarshalSeed renders reports back into the mock vocabulary.
func MarshalSeed(s *Seed) ([]byte, error) {
	f := seedFile{Categories: s.Categories}
	for _, r := range s.Reports {
		assignee := r.Assignee()
		if assignee == "" {
			assignee = "Unassigned"
		}
		f.Reports = append(f.Reports, mockReport{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Status:      models.MockStatus(r.Status),
			Priority:    models.MockPriority(r.Priority),
			Location:    r.Location.String(),
			Date:        r.CreatedAt,
			AssignedTo:  assignee,
			Tags:        r.Tags,
		})
	}
	return yaml.Marshal(f)
}
