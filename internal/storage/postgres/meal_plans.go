package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihouse/diet-service/internal/storage"
)

type mealPlanStore struct {
	pool *pgxpool.Pool
}

func newMealPlanStore(pool *pgxpool.Pool) *mealPlanStore {
	return &mealPlanStore{pool: pool}
}

func (s *mealPlanStore) CreatePlan(ctx context.Context, patientID int64, title string, notes *string, days []storage.MealDayInput) (storage.MealPlanRow, []storage.MealDayRow, []storage.MealItemRow, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealPlanRow{}, nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	planQuery := `
		INSERT INTO meal_plans (patient_id, title, notes)
		VALUES ($1, $2, $3)
		RETURNING id, patient_id, title, notes, created_at, updated_at
	`

	var plan storage.MealPlanRow
	err = tx.QueryRow(ctx, planQuery, patientID, title, notes).Scan(
		&plan.ID,
		&plan.PatientID,
		&plan.Title,
		&plan.Notes,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return storage.MealPlanRow{}, nil, nil, fmt.Errorf("failed to create meal plan: %w", err)
	}

	dayQuery := `
		INSERT INTO meal_days (plan_id, day_index)
		VALUES ($1, $2)
		RETURNING id, plan_id, day_index, created_at
	`
	itemQuery := `
		INSERT INTO meal_items (day_id, food_id, quantity, unit, meal_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, day_id, food_id, quantity, unit, meal_type, created_at
	`

	var dayRows []storage.MealDayRow
	var itemRows []storage.MealItemRow
	for _, dayReq := range days {
		var day storage.MealDayRow
		err = tx.QueryRow(ctx, dayQuery, plan.ID, dayReq.DayIndex).Scan(
			&day.ID,
			&day.PlanID,
			&day.DayIndex,
			&day.CreatedAt,
		)
		if err != nil {
			return storage.MealPlanRow{}, nil, nil, fmt.Errorf("failed to insert meal day: %w", err)
		}
		dayRows = append(dayRows, day)

		for _, itemReq := range dayReq.Items {
			var item storage.MealItemRow
			err = tx.QueryRow(ctx, itemQuery, day.ID, itemReq.FoodID, itemReq.Quantity, itemReq.Unit, string(itemReq.MealType)).Scan(
				&item.ID,
				&item.DayID,
				&item.FoodID,
				&item.Quantity,
				&item.Unit,
				&item.MealType,
				&item.CreatedAt,
			)
			if err != nil {
				return storage.MealPlanRow{}, nil, nil, fmt.Errorf("failed to insert meal item: %w", err)
			}
			itemRows = append(itemRows, item)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealPlanRow{}, nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, dayRows, itemRows, nil
}

func (s *mealPlanStore) GetPlan(ctx context.Context, planID int64) (storage.MealPlanRow, []storage.MealDayRow, []storage.MealItemRow, bool, error) {
	planQuery := `
		SELECT id, patient_id, title, notes, created_at, updated_at
		FROM meal_plans
		WHERE id = $1
	`

	var plan storage.MealPlanRow
	err := s.pool.QueryRow(ctx, planQuery, planID).Scan(
		&plan.ID,
		&plan.PatientID,
		&plan.Title,
		&plan.Notes,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealPlanRow{}, nil, nil, false, nil
	}
	if err != nil {
		return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("failed to get meal plan: %w", err)
	}

	daysQuery := `
		SELECT id, plan_id, day_index, created_at
		FROM meal_days
		WHERE plan_id = $1
		ORDER BY day_index
	`

	rows, err := s.pool.Query(ctx, daysQuery, planID)
	if err != nil {
		return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("failed to get meal days: %w", err)
	}
	defer rows.Close()

	var days []storage.MealDayRow
	for rows.Next() {
		var day storage.MealDayRow
		if err := rows.Scan(&day.ID, &day.PlanID, &day.DayIndex, &day.CreatedAt); err != nil {
			return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("failed to scan meal day: %w", err)
		}
		days = append(days, day)
	}
	if rows.Err() != nil {
		return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("error iterating meal days: %w", rows.Err())
	}

	itemsQuery := `
		SELECT i.id, i.day_id, i.food_id, i.quantity, i.unit, i.meal_type, i.created_at
		FROM meal_items i
		INNER JOIN meal_days d ON d.id = i.day_id
		WHERE d.plan_id = $1
		ORDER BY d.day_index, i.id
	`

	itemRows, err := s.pool.Query(ctx, itemsQuery, planID)
	if err != nil {
		return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("failed to get meal items: %w", err)
	}
	defer itemRows.Close()

	var items []storage.MealItemRow
	for itemRows.Next() {
		var item storage.MealItemRow
		if err := itemRows.Scan(&item.ID, &item.DayID, &item.FoodID, &item.Quantity, &item.Unit, &item.MealType, &item.CreatedAt); err != nil {
			return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("failed to scan meal item: %w", err)
		}
		items = append(items, item)
	}
	if itemRows.Err() != nil {
		return storage.MealPlanRow{}, nil, nil, false, fmt.Errorf("error iterating meal items: %w", itemRows.Err())
	}

	return plan, days, items, true, nil
}

func (s *mealPlanStore) ListPlans(ctx context.Context, patientID int64) ([]storage.MealPlanRow, error) {
	query := `
		SELECT id, patient_id, title, notes, created_at, updated_at
		FROM meal_plans
		WHERE patient_id = $1
		ORDER BY id DESC
	`
	return s.queryPlans(ctx, query, patientID)
}

func (s *mealPlanStore) SearchPlans(ctx context.Context, patientID int64, query string) ([]storage.MealPlanRow, error) {
	sqlQuery := `
		SELECT id, patient_id, title, notes, created_at, updated_at
		FROM meal_plans
		WHERE patient_id = $1
		  AND (title ILIKE '%' || $2 || '%' OR notes ILIKE '%' || $2 || '%')
		ORDER BY id DESC
	`
	return s.queryPlans(ctx, sqlQuery, patientID, query)
}

func (s *mealPlanStore) queryPlans(ctx context.Context, query string, args ...any) ([]storage.MealPlanRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	var plans []storage.MealPlanRow
	for rows.Next() {
		var plan storage.MealPlanRow
		err := rows.Scan(
			&plan.ID,
			&plan.PatientID,
			&plan.Title,
			&plan.Notes,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

func (s *mealPlanStore) UpdatePlanHeader(ctx context.Context, planID int64, title string, notes *string) (storage.MealPlanRow, bool, error) {
	query := `
		UPDATE meal_plans
		SET title = $2, notes = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, patient_id, title, notes, created_at, updated_at
	`

	var plan storage.MealPlanRow
	err := s.pool.QueryRow(ctx, query, planID, title, notes, time.Now().UTC()).Scan(
		&plan.ID,
		&plan.PatientID,
		&plan.Title,
		&plan.Notes,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealPlanRow{}, false, nil
	}
	if err != nil {
		return storage.MealPlanRow{}, false, fmt.Errorf("failed to update meal plan header: %w", err)
	}

	return plan, true, nil
}

func (s *mealPlanStore) DeletePlan(ctx context.Context, planID int64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Children first: items, then days, then the plan itself.
	_, err = tx.Exec(ctx, `
		DELETE FROM meal_items
		WHERE day_id IN (SELECT id FROM meal_days WHERE plan_id = $1)
	`, planID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal items: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM meal_days WHERE plan_id = $1`, planID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal days: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM meal_plans WHERE id = $1`, planID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *mealPlanStore) AddOrGetDay(ctx context.Context, planID int64, dayIndex int) (storage.MealDayRow, bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM meal_plans WHERE id = $1)`, planID).Scan(&exists)
	if err != nil {
		return storage.MealDayRow{}, false, fmt.Errorf("failed to check meal plan: %w", err)
	}
	if !exists {
		return storage.MealDayRow{}, false, nil
	}

	// UNIQUE(plan_id, day_index) makes this race-free: the conflicting insert
	// is a no-op and the re-select picks up the winner's row.
	insertQuery := `
		INSERT INTO meal_days (plan_id, day_index)
		VALUES ($1, $2)
		ON CONFLICT (plan_id, day_index) DO NOTHING
		RETURNING id, plan_id, day_index, created_at
	`

	var day storage.MealDayRow
	err = s.pool.QueryRow(ctx, insertQuery, planID, dayIndex).Scan(
		&day.ID,
		&day.PlanID,
		&day.DayIndex,
		&day.CreatedAt,
	)
	if err == nil {
		return day, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storage.MealDayRow{}, false, fmt.Errorf("failed to insert meal day: %w", err)
	}

	day, found, err := s.GetDay(ctx, planID, dayIndex)
	if err != nil {
		return storage.MealDayRow{}, false, err
	}
	if !found {
		return storage.MealDayRow{}, false, fmt.Errorf("meal day disappeared after conflicting insert")
	}
	return day, true, nil
}

func (s *mealPlanStore) GetDay(ctx context.Context, planID int64, dayIndex int) (storage.MealDayRow, bool, error) {
	query := `
		SELECT id, plan_id, day_index, created_at
		FROM meal_days
		WHERE plan_id = $1 AND day_index = $2
	`

	var day storage.MealDayRow
	err := s.pool.QueryRow(ctx, query, planID, dayIndex).Scan(
		&day.ID,
		&day.PlanID,
		&day.DayIndex,
		&day.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealDayRow{}, false, nil
	}
	if err != nil {
		return storage.MealDayRow{}, false, fmt.Errorf("failed to get meal day: %w", err)
	}

	return day, true, nil
}

func (s *mealPlanStore) DeleteDay(ctx context.Context, dayID int64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM meal_items WHERE day_id = $1`, dayID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal items: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM meal_days WHERE id = $1`, dayID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal day: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *mealPlanStore) AddItem(ctx context.Context, dayID int64, item storage.MealItemInput) (storage.MealItemRow, error) {
	query := `
		INSERT INTO meal_items (day_id, food_id, quantity, unit, meal_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, day_id, food_id, quantity, unit, meal_type, created_at
	`

	var row storage.MealItemRow
	err := s.pool.QueryRow(ctx, query, dayID, item.FoodID, item.Quantity, item.Unit, string(item.MealType)).Scan(
		&row.ID,
		&row.DayID,
		&row.FoodID,
		&row.Quantity,
		&row.Unit,
		&row.MealType,
		&row.CreatedAt,
	)
	if err != nil {
		return storage.MealItemRow{}, fmt.Errorf("failed to insert meal item: %w", err)
	}

	return row, nil
}

func (s *mealPlanStore) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM meal_items WHERE id = $1`, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal item: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *mealPlanStore) ListItemsByDay(ctx context.Context, dayID int64) ([]storage.MealItemRow, error) {
	query := `
		SELECT id, day_id, food_id, quantity, unit, meal_type, created_at
		FROM meal_items
		WHERE day_id = $1
		ORDER BY id
	`
	return s.queryItems(ctx, query, dayID)
}

func (s *mealPlanStore) ListItemsByFood(ctx context.Context, planID int64, foodID int64) ([]storage.MealItemRow, error) {
	query := `
		SELECT i.id, i.day_id, i.food_id, i.quantity, i.unit, i.meal_type, i.created_at
		FROM meal_items i
		INNER JOIN meal_days d ON d.id = i.day_id
		WHERE d.plan_id = $1 AND i.food_id = $2
		ORDER BY d.day_index, i.id
	`
	return s.queryItems(ctx, query, planID, foodID)
}

func (s *mealPlanStore) queryItems(ctx context.Context, query string, args ...any) ([]storage.MealItemRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal items: %w", err)
	}
	defer rows.Close()

	var items []storage.MealItemRow
	for rows.Next() {
		var item storage.MealItemRow
		err := rows.Scan(
			&item.ID,
			&item.DayID,
			&item.FoodID,
			&item.Quantity,
			&item.Unit,
			&item.MealType,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *mealPlanStore) CountItemsByMealType(ctx context.Context, planID int64) (map[storage.MealType]int, error) {
	query := `
		SELECT i.meal_type, COUNT(*)
		FROM meal_items i
		INNER JOIN meal_days d ON d.id = i.day_id
		WHERE d.plan_id = $1
		GROUP BY i.meal_type
	`

	rows, err := s.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to count meal items: %w", err)
	}
	defer rows.Close()

	counts := make(map[storage.MealType]int)
	for rows.Next() {
		var mealType storage.MealType
		var count int
		if err := rows.Scan(&mealType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan meal item count: %w", err)
		}
		counts[mealType] = count
	}

	return counts, rows.Err()
}
