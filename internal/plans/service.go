package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutrihouse/diet-service/internal/storage"
)

// Service handles meal plan composition business logic.
type Service struct {
	storage storage.MealPlanStore
}

// NewService creates a new plan composition service.
func NewService(storage storage.MealPlanStore) *Service {
	return &Service{storage: storage}
}

// CreatePlan persists a plan with optional nested days and items.
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	days := make([]storage.MealDayInput, len(req.Days))
	for i, day := range req.Days {
		items := make([]storage.MealItemInput, len(day.Items))
		for j, item := range day.Items {
			mealType, err := storage.ParseMealType(item.MealType)
			if err != nil {
				return nil, err
			}
			items[j] = storage.MealItemInput{
				FoodID:   item.FoodID,
				Quantity: item.Quantity,
				Unit:     item.Unit,
				MealType: mealType,
			}
		}
		days[i] = storage.MealDayInput{DayIndex: day.DayIndex, Items: items}
	}

	plan, dayRows, itemRows, err := s.storage.CreatePlan(ctx, req.PatientID, req.Title, req.Notes, days)
	if err != nil {
		return nil, err
	}

	return assemblePlan(plan, dayRows, itemRows), nil
}

// GetPlan returns the full aggregate: days sorted by index, items by id.
func (s *Service) GetPlan(ctx context.Context, planID int64) (*Plan, error) {
	plan, dayRows, itemRows, found, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return assemblePlan(plan, dayRows, itemRows), nil
}

// ListPlansForPatient returns plan headers, newest first. Days are not loaded.
func (s *Service) ListPlansForPatient(ctx context.Context, patientID int64) ([]Plan, error) {
	rows, err := s.storage.ListPlans(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return toPlanHeaders(rows), nil
}

// SearchPlans returns plan headers whose title or notes match the query.
func (s *Service) SearchPlans(ctx context.Context, patientID int64, query string) ([]Plan, error) {
	rows, err := s.storage.SearchPlans(ctx, patientID, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}

	return toPlanHeaders(rows), nil
}

// UpdateHeader updates title and notes. A blank title leaves the current
// title in place; notes is always overwritten (nil clears it).
func (s *Service) UpdateHeader(ctx context.Context, planID int64, title string, notes *string) (*Plan, error) {
	current, _, _, found, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	newTitle := strings.TrimSpace(title)
	if newTitle == "" {
		newTitle = current.Title
	}

	if _, ok, err := s.storage.UpdatePlanHeader(ctx, planID, newTitle, notes); err != nil {
		return nil, err
	} else if !ok {
		return nil, storage.ErrNotFound
	}

	return s.GetPlan(ctx, planID)
}

// DeletePlan removes the plan and everything under it. Returns false when
// the plan does not exist.
func (s *Service) DeletePlan(ctx context.Context, planID int64) (bool, error) {
	return s.storage.DeletePlan(ctx, planID)
}

// AddOrGetDay returns the day for (plan, dayIndex), creating it when missing.
func (s *Service) AddOrGetDay(ctx context.Context, planID int64, dayIndex int) (*Day, error) {
	if dayIndex < 1 || dayIndex > 7 {
		return nil, fmt.Errorf("day_index must be 1-7")
	}

	dayRow, found, err := s.storage.AddOrGetDay(ctx, planID, dayIndex)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return s.loadDay(ctx, dayRow)
}

// RemoveDay deletes a day with its items. Returns false when absent.
func (s *Service) RemoveDay(ctx context.Context, dayID int64) (bool, error) {
	return s.storage.DeleteDay(ctx, dayID)
}

// AddItem appends an item to the given day of a plan, creating the day on
// demand.
func (s *Service) AddItem(ctx context.Context, planID int64, dayIndex int, input ItemInput) (*Item, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if dayIndex < 1 || dayIndex > 7 {
		return nil, fmt.Errorf("day_index must be 1-7")
	}
	mealType, err := storage.ParseMealType(input.MealType)
	if err != nil {
		return nil, err
	}

	dayRow, found, err := s.storage.AddOrGetDay(ctx, planID, dayIndex)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	row, err := s.storage.AddItem(ctx, dayRow.ID, storage.MealItemInput{
		FoodID:   input.FoodID,
		Quantity: input.Quantity,
		Unit:     input.Unit,
		MealType: mealType,
	})
	if err != nil {
		return nil, err
	}

	item := toItem(row)
	return &item, nil
}

// RemoveItem deletes a single item. Returns false when absent.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) (bool, error) {
	return s.storage.DeleteItem(ctx, itemID)
}

// ListItemsByFood returns items of a plan referencing a food.
func (s *Service) ListItemsByFood(ctx context.Context, planID int64, foodID int64) ([]Item, error) {
	rows, err := s.storage.ListItemsByFood(ctx, planID, foodID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = toItem(row)
	}

	return items, nil
}

// CountItemsByMealType returns per-slot item counts for a plan.
func (s *Service) CountItemsByMealType(ctx context.Context, planID int64) (map[storage.MealType]int, error) {
	return s.storage.CountItemsByMealType(ctx, planID)
}

func (s *Service) loadDay(ctx context.Context, dayRow storage.MealDayRow) (*Day, error) {
	itemRows, err := s.storage.ListItemsByDay(ctx, dayRow.ID)
	if err != nil {
		return nil, err
	}

	day := Day{
		ID:       dayRow.ID,
		PlanID:   dayRow.PlanID,
		DayIndex: dayRow.DayIndex,
		Items:    make([]Item, len(itemRows)),
	}
	for i, row := range itemRows {
		day.Items[i] = toItem(row)
	}

	return &day, nil
}

func assemblePlan(plan storage.MealPlanRow, dayRows []storage.MealDayRow, itemRows []storage.MealItemRow) *Plan {
	itemsByDay := make(map[int64][]Item)
	for _, row := range itemRows {
		itemsByDay[row.DayID] = append(itemsByDay[row.DayID], toItem(row))
	}

	days := make([]Day, len(dayRows))
	for i, dayRow := range dayRows {
		items := itemsByDay[dayRow.ID]
		if items == nil {
			items = []Item{}
		}
		days[i] = Day{
			ID:       dayRow.ID,
			PlanID:   dayRow.PlanID,
			DayIndex: dayRow.DayIndex,
			Items:    items,
		}
	}

	return &Plan{
		ID:        plan.ID,
		PatientID: plan.PatientID,
		Title:     plan.Title,
		Notes:     plan.Notes,
		Days:      days,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}

func toPlanHeaders(rows []storage.MealPlanRow) []Plan {
	plans := make([]Plan, len(rows))
	for i, row := range rows {
		plans[i] = Plan{
			ID:        row.ID,
			PatientID: row.PatientID,
			Title:     row.Title,
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return plans
}

func toItem(row storage.MealItemRow) Item {
	return Item{
		ID:        row.ID,
		DayID:     row.DayID,
		FoodID:    row.FoodID,
		Quantity:  row.Quantity,
		Unit:      row.Unit,
		MealType:  row.MealType,
		CreatedAt: row.CreatedAt,
	}
}
