package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihouse/diet-service/internal/storage"
)

// mealTypeOrderSQL orders meal types by time of day instead of alphabetically.
const mealTypeOrderSQL = `
	CASE meal_type
		WHEN 'BREAKFAST' THEN 1
		WHEN 'MORNING_SNACK' THEN 2
		WHEN 'LUNCH' THEN 3
		WHEN 'AFTERNOON_SNACK' THEN 4
		WHEN 'DINNER' THEN 5
		WHEN 'EVENING_SNACK' THEN 6
	END`

const dietPlanItemColumns = `id, patient_id, title, notes, day_of_week, meal_type, food_id, food_name,
	       quantity, unit, calories, proteins, carbs, fats, active, created_at, updated_at`

type dietPlanItemStore struct {
	pool *pgxpool.Pool
}

func newDietPlanItemStore(pool *pgxpool.Pool) *dietPlanItemStore {
	return &dietPlanItemStore{pool: pool}
}

func (s *dietPlanItemStore) Insert(ctx context.Context, row storage.DietPlanItemRow) (storage.DietPlanItemRow, error) {
	query := `
		INSERT INTO diet_plan_items (patient_id, title, notes, day_of_week, meal_type, food_id, food_name,
		                             quantity, unit, calories, proteins, carbs, fats, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true)
		RETURNING ` + dietPlanItemColumns

	var out storage.DietPlanItemRow
	err := s.pool.QueryRow(ctx, query,
		row.PatientID,
		row.Title,
		row.Notes,
		row.DayOfWeek,
		string(row.MealType),
		row.FoodID,
		row.FoodName,
		row.Quantity,
		row.Unit,
		row.Calories,
		row.Proteins,
		row.Carbs,
		row.Fats,
	).Scan(scanTargets(&out)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.DietPlanItemRow{}, storage.ErrDuplicate
		}
		return storage.DietPlanItemRow{}, fmt.Errorf("failed to insert diet plan item: %w", err)
	}

	return out, nil
}

func (s *dietPlanItemStore) GetByID(ctx context.Context, id int64) (storage.DietPlanItemRow, bool, error) {
	query := `SELECT ` + dietPlanItemColumns + ` FROM diet_plan_items WHERE id = $1`

	var row storage.DietPlanItemRow
	err := s.pool.QueryRow(ctx, query, id).Scan(scanTargets(&row)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DietPlanItemRow{}, false, nil
	}
	if err != nil {
		return storage.DietPlanItemRow{}, false, fmt.Errorf("failed to get diet plan item: %w", err)
	}

	return row, true, nil
}

func (s *dietPlanItemStore) ListPlanItems(ctx context.Context, patientID int64, title string) ([]storage.DietPlanItemRow, error) {
	query := `
		SELECT ` + dietPlanItemColumns + `
		FROM diet_plan_items
		WHERE patient_id = $1 AND title = $2 AND active = true
		ORDER BY day_of_week, ` + mealTypeOrderSQL + `, id`
	return s.queryRows(ctx, query, patientID, title)
}

func (s *dietPlanItemStore) ListByDay(ctx context.Context, patientID int64, title string, dayOfWeek int) ([]storage.DietPlanItemRow, error) {
	query := `
		SELECT ` + dietPlanItemColumns + `
		FROM diet_plan_items
		WHERE patient_id = $1 AND title = $2 AND day_of_week = $3 AND active = true
		ORDER BY ` + mealTypeOrderSQL + `, id`
	return s.queryRows(ctx, query, patientID, title, dayOfWeek)
}

func (s *dietPlanItemStore) ListByMealType(ctx context.Context, patientID int64, title string, mealType storage.MealType) ([]storage.DietPlanItemRow, error) {
	query := `
		SELECT ` + dietPlanItemColumns + `
		FROM diet_plan_items
		WHERE patient_id = $1 AND title = $2 AND meal_type = $3 AND active = true
		ORDER BY day_of_week, id`
	return s.queryRows(ctx, query, patientID, title, string(mealType))
}

func (s *dietPlanItemStore) ListTitles(ctx context.Context, patientID int64) ([]string, error) {
	query := `
		SELECT DISTINCT title
		FROM diet_plan_items
		WHERE patient_id = $1 AND active = true
		ORDER BY title
	`

	rows, err := s.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan plan title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

func (s *dietPlanItemStore) ExistsActive(ctx context.Context, patientID int64, title string, dayOfWeek int, mealType storage.MealType, foodID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM diet_plan_items
			WHERE patient_id = $1 AND title = $2 AND day_of_week = $3
			  AND meal_type = $4 AND food_id = $5 AND active = true
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query, patientID, title, dayOfWeek, string(mealType), foodID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check diet plan item: %w", err)
	}

	return exists, nil
}

func (s *dietPlanItemStore) HasActiveTitle(ctx context.Context, patientID int64, title string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM diet_plan_items
			WHERE patient_id = $1 AND title = $2 AND active = true
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query, patientID, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check plan title: %w", err)
	}

	return exists, nil
}

func (s *dietPlanItemStore) Update(ctx context.Context, row storage.DietPlanItemRow) (bool, error) {
	query := `
		UPDATE diet_plan_items
		SET title = $2, notes = $3, day_of_week = $4, meal_type = $5, food_id = $6, food_name = $7,
		    quantity = $8, unit = $9, calories = $10, proteins = $11, carbs = $12, fats = $13,
		    active = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		row.ID,
		row.Title,
		row.Notes,
		row.DayOfWeek,
		string(row.MealType),
		row.FoodID,
		row.FoodName,
		row.Quantity,
		row.Unit,
		row.Calories,
		row.Proteins,
		row.Carbs,
		row.Fats,
		row.Active,
		row.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, storage.ErrDuplicate
		}
		return false, fmt.Errorf("failed to update diet plan item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *dietPlanItemStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE diet_plan_items
		SET active = false, updated_at = now()
		WHERE id = $1 AND active = true
	`

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate diet plan item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *dietPlanItemStore) DeactivatePlan(ctx context.Context, patientID int64, title string) (int, error) {
	query := `
		UPDATE diet_plan_items
		SET active = false, updated_at = now()
		WHERE patient_id = $1 AND title = $2 AND active = true
	`

	result, err := s.pool.Exec(ctx, query, patientID, title)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate diet plan: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func (s *dietPlanItemStore) queryRows(ctx context.Context, query string, args ...any) ([]storage.DietPlanItemRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diet plan items: %w", err)
	}
	defer rows.Close()

	var items []storage.DietPlanItemRow
	for rows.Next() {
		var item storage.DietPlanItemRow
		if err := rows.Scan(scanTargets(&item)...); err != nil {
			return nil, fmt.Errorf("failed to scan diet plan item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanTargets(row *storage.DietPlanItemRow) []any {
	return []any{
		&row.ID,
		&row.PatientID,
		&row.Title,
		&row.Notes,
		&row.DayOfWeek,
		&row.MealType,
		&row.FoodID,
		&row.FoodName,
		&row.Quantity,
		&row.Unit,
		&row.Calories,
		&row.Proteins,
		&row.Carbs,
		&row.Fats,
		&row.Active,
		&row.CreatedAt,
		&row.UpdatedAt,
	}
}
