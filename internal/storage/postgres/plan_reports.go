package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihouse/diet-service/internal/storage"
)

type planReportStore struct {
	pool *pgxpool.Pool
}

func newPlanReportStore(pool *pgxpool.Pool) *planReportStore {
	return &planReportStore{pool: pool}
}

func (s *planReportStore) CreateReport(ctx context.Context, report *storage.PlanReportRow) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO plan_reports (id, patient_id, plan_title, object_key, size_bytes, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		report.ID,
		report.PatientID,
		report.PlanTitle,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Error,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan report: %w", err)
	}

	return nil
}

func (s *planReportStore) GetReport(ctx context.Context, id uuid.UUID) (*storage.PlanReportRow, error) {
	query := `
		SELECT id, patient_id, plan_title, object_key, size_bytes, status, error, created_at
		FROM plan_reports
		WHERE id = $1
	`

	var report storage.PlanReportRow
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.PatientID,
		&report.PlanTitle,
		&report.ObjectKey,
		&report.SizeBytes,
		&report.Status,
		&report.Error,
		&report.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan report: %w", err)
	}

	return &report, nil
}

func (s *planReportStore) ListReports(ctx context.Context, patientID int64, limit, offset int) ([]storage.PlanReportRow, error) {
	query := `
		SELECT id, patient_id, plan_title, object_key, size_bytes, status, error, created_at
		FROM plan_reports
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan reports: %w", err)
	}
	defer rows.Close()

	var reports []storage.PlanReportRow
	for rows.Next() {
		var report storage.PlanReportRow
		err := rows.Scan(
			&report.ID,
			&report.PatientID,
			&report.PlanTitle,
			&report.ObjectKey,
			&report.SizeBytes,
			&report.Status,
			&report.Error,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func (s *planReportStore) DeleteReport(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM plan_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
