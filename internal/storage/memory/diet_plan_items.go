package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutrihouse/diet-service/internal/storage"
)

type dietPlanItemStore struct {
	mu     sync.RWMutex
	rows   map[int64]*storage.DietPlanItemRow
	nextID int64
}

func newDietPlanItemStore() *dietPlanItemStore {
	return &dietPlanItemStore{
		rows: make(map[int64]*storage.DietPlanItemRow),
	}
}

func (s *dietPlanItemStore) Insert(ctx context.Context, row storage.DietPlanItemRow) (storage.DietPlanItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the partial unique index on the active tuple.
	for _, existing := range s.rows {
		if existing.Active &&
			existing.PatientID == row.PatientID &&
			existing.Title == row.Title &&
			existing.DayOfWeek == row.DayOfWeek &&
			existing.MealType == row.MealType &&
			existing.FoodID == row.FoodID {
			return storage.DietPlanItemRow{}, storage.ErrDuplicate
		}
	}

	s.nextID++
	row.ID = s.nextID
	row.Active = true
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = nil

	stored := row
	s.rows[row.ID] = &stored

	return row, nil
}

func (s *dietPlanItemStore) GetByID(ctx context.Context, id int64) (storage.DietPlanItemRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return storage.DietPlanItemRow{}, false, nil
	}

	return *row, true, nil
}

func (s *dietPlanItemStore) ListPlanItems(ctx context.Context, patientID int64, title string) ([]storage.DietPlanItemRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collectLocked(func(r *storage.DietPlanItemRow) bool {
		return r.Active && r.PatientID == patientID && r.Title == title
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].DayOfWeek != items[j].DayOfWeek {
			return items[i].DayOfWeek < items[j].DayOfWeek
		}
		if items[i].MealType.Order() != items[j].MealType.Order() {
			return items[i].MealType.Order() < items[j].MealType.Order()
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}

func (s *dietPlanItemStore) ListByDay(ctx context.Context, patientID int64, title string, dayOfWeek int) ([]storage.DietPlanItemRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collectLocked(func(r *storage.DietPlanItemRow) bool {
		return r.Active && r.PatientID == patientID && r.Title == title && r.DayOfWeek == dayOfWeek
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].MealType.Order() != items[j].MealType.Order() {
			return items[i].MealType.Order() < items[j].MealType.Order()
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}

func (s *dietPlanItemStore) ListByMealType(ctx context.Context, patientID int64, title string, mealType storage.MealType) ([]storage.DietPlanItemRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collectLocked(func(r *storage.DietPlanItemRow) bool {
		return r.Active && r.PatientID == patientID && r.Title == title && r.MealType == mealType
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].DayOfWeek != items[j].DayOfWeek {
			return items[i].DayOfWeek < items[j].DayOfWeek
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}

func (s *dietPlanItemStore) ListTitles(ctx context.Context, patientID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var titles []string
	for _, row := range s.rows {
		if row.Active && row.PatientID == patientID && !seen[row.Title] {
			seen[row.Title] = true
			titles = append(titles, row.Title)
		}
	}
	sort.Strings(titles)

	return titles, nil
}

func (s *dietPlanItemStore) ExistsActive(ctx context.Context, patientID int64, title string, dayOfWeek int, mealType storage.MealType, foodID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Active &&
			row.PatientID == patientID &&
			row.Title == title &&
			row.DayOfWeek == dayOfWeek &&
			row.MealType == mealType &&
			row.FoodID == foodID {
			return true, nil
		}
	}

	return false, nil
}

func (s *dietPlanItemStore) HasActiveTitle(ctx context.Context, patientID int64, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Active && row.PatientID == patientID && row.Title == title {
			return true, nil
		}
	}

	return false, nil
}

func (s *dietPlanItemStore) Update(ctx context.Context, row storage.DietPlanItemRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[row.ID]; !ok {
		return false, nil
	}

	// Mirrors the partial unique index: an update must not move an active
	// item onto another active item's slot tuple.
	if row.Active {
		for _, existing := range s.rows {
			if existing.ID != row.ID && existing.Active &&
				existing.PatientID == row.PatientID &&
				existing.Title == row.Title &&
				existing.DayOfWeek == row.DayOfWeek &&
				existing.MealType == row.MealType &&
				existing.FoodID == row.FoodID {
				return false, storage.ErrDuplicate
			}
		}
	}

	stored := row
	s.rows[row.ID] = &stored

	return true, nil
}

func (s *dietPlanItemStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.Active {
		return false, nil
	}

	now := time.Now().UTC()
	row.Active = false
	row.UpdatedAt = &now

	return true, nil
}

func (s *dietPlanItemStore) DeactivatePlan(ctx context.Context, patientID int64, title string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, row := range s.rows {
		if row.Active && row.PatientID == patientID && row.Title == title {
			row.Active = false
			updatedAt := now
			row.UpdatedAt = &updatedAt
			count++
		}
	}

	return count, nil
}

func (s *dietPlanItemStore) collectLocked(match func(*storage.DietPlanItemRow) bool) []storage.DietPlanItemRow {
	var items []storage.DietPlanItemRow
	for _, row := range s.rows {
		if match(row) {
			items = append(items, *row)
		}
	}
	return items
}
