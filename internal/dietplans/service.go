package dietplans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/summary"
)

// Service handles flat diet plan business logic. A plan is the group of
// active items sharing (patient_id, title).
type Service struct {
	storage storage.DietPlanItemStore
}

// NewService creates a new diet plan item service.
func NewService(storage storage.DietPlanItemStore) *Service {
	return &Service{storage: storage}
}

// Create persists a new plan item. Returns ErrDuplicateItem when an active
// item with the same (patient, title, day, meal type, food) tuple exists.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	mealType, err := storage.ParseMealType(req.MealType)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ExistsActive(ctx, req.PatientID, req.Title, req.DayOfWeek, mealType, req.FoodID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateItem
	}

	row, err := s.storage.Insert(ctx, storage.DietPlanItemRow{
		PatientID: req.PatientID,
		Title:     req.Title,
		Notes:     req.Notes,
		DayOfWeek: req.DayOfWeek,
		MealType:  mealType,
		FoodID:    req.FoodID,
		FoodName:  req.FoodName,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Calories:  req.Calories,
		Proteins:  req.Proteins,
		Carbs:     req.Carbs,
		Fats:      req.Fats,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost the race against a concurrent create of the same tuple.
		return nil, ErrDuplicateItem
	}
	if err != nil {
		return nil, err
	}

	item := toItem(row)
	return &item, nil
}

// FindByID returns an item by id, active or not.
func (s *Service) FindByID(ctx context.Context, id int64) (*Item, error) {
	row, found, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	item := toItem(row)
	return &item, nil
}

// FindPlanItems returns the active items of a plan ordered by day then meal type.
func (s *Service) FindPlanItems(ctx context.Context, patientID int64, title string) ([]Item, error) {
	rows, err := s.storage.ListPlanItems(ctx, patientID, title)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// FindByDay returns the active items of one plan day ordered by meal type.
func (s *Service) FindByDay(ctx context.Context, patientID int64, title string, dayOfWeek int) ([]Item, error) {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return nil, fmt.Errorf("day_of_week must be 1-7")
	}

	rows, err := s.storage.ListByDay(ctx, patientID, title, dayOfWeek)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// FindByMealType returns the active items of one plan slot ordered by day.
func (s *Service) FindByMealType(ctx context.Context, patientID int64, title string, mealType string) ([]Item, error) {
	mt, err := storage.ParseMealType(mealType)
	if err != nil {
		return nil, err
	}

	rows, err := s.storage.ListByMealType(ctx, patientID, title, mt)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// GetPlanTitles returns the distinct titles of the patient's active items,
// alphabetically.
func (s *Service) GetPlanTitles(ctx context.Context, patientID int64) ([]string, error) {
	return s.storage.ListTitles(ctx, patientID)
}

// Update applies the non-nil fields of req and stamps updated_at. A malformed
// meal type rejects the whole update, and so does moving the item onto
// another active item's (title, day, meal type, food) slot.
func (s *Service) Update(ctx context.Context, id int64, req UpdateItemRequest) (*Item, error) {
	row, found, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	if req.MealType != nil {
		mealType, err := storage.ParseMealType(*req.MealType)
		if err != nil {
			return nil, err
		}
		row.MealType = mealType
	}
	if req.Title != nil {
		row.Title = *req.Title
	}
	if req.Notes != nil {
		row.Notes = req.Notes
	}
	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 1 || *req.DayOfWeek > 7 {
			return nil, fmt.Errorf("day_of_week must be 1-7")
		}
		row.DayOfWeek = *req.DayOfWeek
	}
	if req.FoodID != nil {
		row.FoodID = *req.FoodID
	}
	if req.FoodName != nil {
		row.FoodName = req.FoodName
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		row.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		row.Unit = *req.Unit
	}
	if req.Calories != nil {
		row.Calories = req.Calories
	}
	if req.Proteins != nil {
		row.Proteins = req.Proteins
	}
	if req.Carbs != nil {
		row.Carbs = req.Carbs
	}
	if req.Fats != nil {
		row.Fats = req.Fats
	}

	now := time.Now().UTC()
	row.UpdatedAt = &now

	ok, err := s.storage.Update(ctx, row)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrDuplicateItem
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	item := toItem(row)
	return &item, nil
}

// DeleteItem soft-deletes one item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	row, found, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	if !row.Active {
		return nil // already deleted
	}

	if _, err := s.storage.Deactivate(ctx, id); err != nil {
		return err
	}

	return nil
}

// DeletePlan soft-deletes every active item of a plan. Deleting an empty
// group is a no-op.
func (s *Service) DeletePlan(ctx context.Context, patientID int64, title string) error {
	_, err := s.storage.DeactivatePlan(ctx, patientID, title)
	return err
}

// DuplicatePlan copies the active items of sourceTitle into a new plan named
// newTitle. Returns ErrTitleExists when newTitle is taken and
// storage.ErrNotFound when the source group is empty.
func (s *Service) DuplicatePlan(ctx context.Context, patientID int64, sourceTitle, newTitle string) ([]Item, error) {
	if newTitle == "" {
		return nil, fmt.Errorf("new title is required")
	}

	taken, err := s.storage.HasActiveTitle(ctx, patientID, newTitle)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTitleExists
	}

	sourceRows, err := s.storage.ListPlanItems(ctx, patientID, sourceTitle)
	if err != nil {
		return nil, err
	}
	if len(sourceRows) == 0 {
		return nil, storage.ErrNotFound
	}

	copies := make([]Item, 0, len(sourceRows))
	for _, src := range sourceRows {
		copied, err := s.storage.Insert(ctx, storage.DietPlanItemRow{
			PatientID: src.PatientID,
			Title:     newTitle,
			Notes:     src.Notes,
			DayOfWeek: src.DayOfWeek,
			MealType:  src.MealType,
			FoodID:    src.FoodID,
			FoodName:  src.FoodName,
			Quantity:  src.Quantity,
			Unit:      src.Unit,
			Calories:  src.Calories,
			Proteins:  src.Proteins,
			Carbs:     src.Carbs,
			Fats:      src.Fats,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to copy plan item %d: %w", src.ID, err)
		}
		copies = append(copies, toItem(copied))
	}

	return copies, nil
}

// GetPlanSummary builds the nutrition summary of a plan. Returns
// storage.ErrNotFound when the group has no active items.
func (s *Service) GetPlanSummary(ctx context.Context, patientID int64, title string) (*summary.PlanSummary, error) {
	rows, err := s.storage.ListPlanItems(ctx, patientID, title)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}

	result := summary.Build(patientID, title, rows)
	return &result, nil
}

// CreateBatch persists a batch of items with per-element isolation: each
// element fails or succeeds on its own and failures never roll back the rest.
func (s *Service) CreateBatch(ctx context.Context, reqs []CreateItemRequest) (*BatchResult, error) {
	result := &BatchResult{}

	for i, req := range reqs {
		item, err := s.Create(ctx, req)
		if err != nil {
			result.Failures = append(result.Failures, BatchFailure{
				Index:    i,
				FoodName: foodNameOf(req),
				Reason:   err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, *item)
	}

	switch {
	case len(result.Created) == 0:
		result.Outcome = BatchFailed
	case len(result.Failures) > 0:
		result.Outcome = BatchPartial
	default:
		result.Outcome = BatchCreated
	}

	return result, nil
}

// DeleteBatch soft-deletes the given ids best-effort, recording failures
// instead of aborting.
func (s *Service) DeleteBatch(ctx context.Context, ids []int64) *BatchDeleteResult {
	result := &BatchDeleteResult{}

	for _, id := range ids {
		if err := s.DeleteItem(ctx, id); err != nil {
			result.Failures = append(result.Failures, BatchDeleteFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	return result
}

func foodNameOf(req CreateItemRequest) string {
	if req.FoodName != nil {
		return *req.FoodName
	}
	return fmt.Sprintf("food %d", req.FoodID)
}

func toItem(row storage.DietPlanItemRow) Item {
	return Item{
		ID:        row.ID,
		PatientID: row.PatientID,
		Title:     row.Title,
		Notes:     row.Notes,
		DayOfWeek: row.DayOfWeek,
		MealType:  row.MealType,
		FoodID:    row.FoodID,
		FoodName:  row.FoodName,
		Quantity:  row.Quantity,
		Unit:      row.Unit,
		Calories:  row.Calories,
		Proteins:  row.Proteins,
		Carbs:     row.Carbs,
		Fats:      row.Fats,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toItems(rows []storage.DietPlanItemRow) []Item {
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = toItem(row)
	}
	return items
}
