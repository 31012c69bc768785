package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihouse/diet-service/internal/storage"
)

type planReportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*storage.PlanReportRow
}

func newPlanReportStore() *planReportStore {
	return &planReportStore{
		reports: make(map[uuid.UUID]*storage.PlanReportRow),
	}
}

func (s *planReportStore) CreateReport(ctx context.Context, report *storage.PlanReportRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()

	stored := *report
	s.reports[report.ID] = &stored

	return nil
}

func (s *planReportStore) GetReport(ctx context.Context, id uuid.UUID) (*storage.PlanReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := *report
	return &copied, nil
}

func (s *planReportStore) ListReports(ctx context.Context, patientID int64, limit, offset int) ([]storage.PlanReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []storage.PlanReportRow
	for _, report := range s.reports {
		if report.PatientID == patientID {
			reports = append(reports, *report)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	if offset >= len(reports) {
		return []storage.PlanReportRow{}, nil
	}
	reports = reports[offset:]
	if limit > 0 && limit < len(reports) {
		reports = reports[:limit]
	}

	return reports, nil
}

func (s *planReportStore) DeleteReport(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reports, id)

	return nil
}
