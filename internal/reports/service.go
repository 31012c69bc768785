package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nutrihouse/diet-service/internal/blob"
	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/summary"
)

// Service handles plan report business logic
type Service struct {
	dietPlanItems storage.DietPlanItemStore
	reports       storage.PlanReportStore
	generator     *Generator
	blobStore     blob.Store
	presignTTL    int
	localMode     bool // true if no S3 configured
	logger        blob.Logger
}

// NewService creates a new reports service. A nil blobStore switches the
// service to local mode, where report data lives alongside the metadata —
// that requires a metadata store that retains the bytes (the memory backend;
// the postgres backend persists metadata only).
func NewService(
	dietPlanItems storage.DietPlanItemStore,
	reports storage.PlanReportStore,
	blobStore blob.Store,
	presignTTL int,
	logger blob.Logger,
) *Service {
	return &Service{
		dietPlanItems: dietPlanItems,
		reports:       reports,
		generator:     NewGenerator(),
		blobStore:     blobStore,
		presignTTL:    presignTTL,
		localMode:     blobStore == nil,
		logger:        logger,
	}
}

// CreateReport renders the plan's weekly PDF and persists it. Returns
// ErrPlanNotFound when the plan group has no active items.
func (s *Service) CreateReport(ctx context.Context, patientID int64, planTitle string) (*Report, error) {
	rows, err := s.dietPlanItems.ListPlanItems(ctx, patientID, planTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan items: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrPlanNotFound
	}

	planSummary := summary.Build(patientID, planTitle, rows)

	data, err := s.generator.GeneratePDF(&planSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	row := &storage.PlanReportRow{
		PatientID: patientID,
		PlanTitle: planTitle,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		row.Data = data
	} else {
		objectKey := fmt.Sprintf("plan-reports/%d/%s.pdf", patientID, uuid.New().String())

		if _, err := s.blobStore.PutObject(ctx, objectKey, data, "application/pdf"); err != nil {
			return nil, fmt.Errorf("failed to upload report: %w", err)
		}

		row.ObjectKey = &objectKey
	}

	if err := s.reports.CreateReport(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	return s.toReport(row), nil
}

// GetReport retrieves report metadata by ID
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	row, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}

	return s.toReport(row), nil
}

// ListReports lists a patient's reports, newest first
func (s *Service) ListReports(ctx context.Context, patientID int64, limit, offset int) ([]Report, error) {
	rows, err := s.reports.ListReports(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(rows))
	for i := range rows {
		reports[i] = *s.toReport(&rows[i])
	}

	return reports, nil
}

// DeleteReport deletes a report and its stored object
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	row, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return ErrReportNotFound
	}

	if !s.localMode && row.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *row.ObjectKey); err != nil {
			// Metadata deletion matters more than the orphaned object.
			s.logf("WARN reports: failed to delete report object %s: %v", *row.ObjectKey, err)
		}
	}

	if err := s.reports.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}

	return nil
}

// GetDownloadURL returns where the report can be fetched from: a local
// download endpoint in local mode, a presigned object URL otherwise
func (s *Service) GetDownloadURL(ctx context.Context, id uuid.UUID, baseURL string) (string, error) {
	row, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return "", ErrReportNotFound
	}

	if s.localMode {
		return fmt.Sprintf("%s/v1/plan-reports/%s/download", strings.TrimSuffix(baseURL, "/"), id.String()), nil
	}

	if row.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *row.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL, nil
}

// GetReportData returns the raw PDF bytes (for local mode download)
func (s *Service) GetReportData(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	row, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, "", ErrReportNotFound
	}

	if s.localMode {
		if len(row.Data) == 0 {
			return nil, "", fmt.Errorf("report %s has no stored data: the metadata store does not retain report bytes", id)
		}
		return row.Data, "application/pdf", nil
	}

	if row.ObjectKey == nil {
		return nil, "", fmt.Errorf("object key is missing")
	}

	data, err := s.blobStore.GetObject(ctx, *row.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch report object: %w", err)
	}

	return data, "application/pdf", nil
}

func (s *Service) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}

func (s *Service) toReport(row *storage.PlanReportRow) *Report {
	return &Report{
		ID:        row.ID,
		PatientID: row.PatientID,
		PlanTitle: row.PlanTitle,
		ObjectKey: row.ObjectKey,
		SizeBytes: row.SizeBytes,
		Status:    row.Status,
		Error:     row.Error,
		CreatedAt: row.CreatedAt,
		Data:      row.Data,
	}
}
