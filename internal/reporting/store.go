package reporting

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/ledgerlens/pkg/models"
)

// Store keeps completed reconciliation reports in memory. Reports are
// immutable once saved; a new run always produces a new report.
type Store struct {
	mu      sync.RWMutex
	reports map[string]*models.ReconciliationReport
}

// NewStore creates an empty report store.
func NewStore() *Store {
	return &Store{
		reports: make(map[string]*models.ReconciliationReport),
	}
}

// Save assigns the report an id and generation time and stores it.
func (s *Store) Save(report *models.ReconciliationReport) *models.ReconciliationReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report.ID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()
	s.reports[report.ID] = report
	return report
}

// Get retrieves a report by id.
func (s *Store) Get(id string) (*models.ReconciliationReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	return report, ok
}

// List returns stored reports, newest first.
func (s *Store) List() []*models.ReconciliationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.ReconciliationReport, 0, len(s.reports))
	for _, report := range s.reports {
		results = append(results, report)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].GeneratedAt.Equal(results[j].GeneratedAt) {
			return results[i].GeneratedAt.After(results[j].GeneratedAt)
		}
		return results[i].ID < results[j].ID
	})

	return results
}
