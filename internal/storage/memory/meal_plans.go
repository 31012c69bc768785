package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nutrihouse/diet-service/internal/storage"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type mealPlanStore struct {
	mu    sync.RWMutex
	plans map[int64]*storage.MealPlanRow
	days  map[int64]*storage.MealDayRow
	items map[int64]*storage.MealItemRow
	// indexes
	daysByPlan map[int64][]int64 // plan_id -> []day_id
	itemsByDay map[int64][]int64 // day_id -> []item_id

	nextPlanID int64
	nextDayID  int64
	nextItemID int64
}

func newMealPlanStore() *mealPlanStore {
	return &mealPlanStore{
		plans:      make(map[int64]*storage.MealPlanRow),
		days:       make(map[int64]*storage.MealDayRow),
		items:      make(map[int64]*storage.MealItemRow),
		daysByPlan: make(map[int64][]int64),
		itemsByDay: make(map[int64][]int64),
	}
}

func (s *mealPlanStore) CreatePlan(ctx context.Context, patientID int64, title string, notes *string, days []storage.MealDayInput) (storage.MealPlanRow, []storage.MealDayRow, []storage.MealItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	s.nextPlanID++
	plan := &storage.MealPlanRow{
		ID:        s.nextPlanID,
		PatientID: patientID,
		Title:     title,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.plans[plan.ID] = plan

	var dayRows []storage.MealDayRow
	var itemRows []storage.MealItemRow
	for _, dayReq := range days {
		day := s.addDayLocked(plan.ID, dayReq.DayIndex, now)
		dayRows = append(dayRows, *day)

		for _, itemReq := range dayReq.Items {
			item := s.addItemLocked(day.ID, itemReq, now)
			itemRows = append(itemRows, *item)
		}
	}

	return *plan, dayRows, itemRows, nil
}

func (s *mealPlanStore) GetPlan(ctx context.Context, planID int64) (storage.MealPlanRow, []storage.MealDayRow, []storage.MealItemRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planID]
	if !ok {
		return storage.MealPlanRow{}, nil, nil, false, nil
	}

	days := s.daysOfPlanLocked(planID)
	var items []storage.MealItemRow
	for _, day := range days {
		items = append(items, s.itemsOfDayLocked(day.ID)...)
	}

	return *plan, days, items, true, nil
}

func (s *mealPlanStore) ListPlans(ctx context.Context, patientID int64) ([]storage.MealPlanRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plans []storage.MealPlanRow
	for _, plan := range s.plans {
		if plan.PatientID == patientID {
			plans = append(plans, *plan)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID > plans[j].ID })

	return plans, nil
}

func (s *mealPlanStore) SearchPlans(ctx context.Context, patientID int64, query string) ([]storage.MealPlanRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plans []storage.MealPlanRow
	for _, plan := range s.plans {
		if plan.PatientID != patientID {
			continue
		}
		if containsFold(plan.Title, query) || (plan.Notes != nil && containsFold(*plan.Notes, query)) {
			plans = append(plans, *plan)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID > plans[j].ID })

	return plans, nil
}

func (s *mealPlanStore) UpdatePlanHeader(ctx context.Context, planID int64, title string, notes *string) (storage.MealPlanRow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return storage.MealPlanRow{}, false, nil
	}

	plan.Title = title
	plan.Notes = notes
	plan.UpdatedAt = time.Now().UTC()

	return *plan, true, nil
}

func (s *mealPlanStore) DeletePlan(ctx context.Context, planID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return false, nil
	}

	for _, dayID := range s.daysByPlan[planID] {
		s.deleteDayAndItemsLocked(dayID)
	}
	delete(s.daysByPlan, planID)
	delete(s.plans, planID)

	return true, nil
}

func (s *mealPlanStore) AddOrGetDay(ctx context.Context, planID int64, dayIndex int) (storage.MealDayRow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return storage.MealDayRow{}, false, nil
	}

	if day := s.findDayLocked(planID, dayIndex); day != nil {
		return *day, true, nil
	}

	day := s.addDayLocked(planID, dayIndex, time.Now().UTC())
	return *day, true, nil
}

func (s *mealPlanStore) GetDay(ctx context.Context, planID int64, dayIndex int) (storage.MealDayRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if day := s.findDayLocked(planID, dayIndex); day != nil {
		return *day, true, nil
	}

	return storage.MealDayRow{}, false, nil
}

func (s *mealPlanStore) DeleteDay(ctx context.Context, dayID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[dayID]
	if !ok {
		return false, nil
	}

	dayIDs := s.daysByPlan[day.PlanID]
	for i, id := range dayIDs {
		if id == dayID {
			s.daysByPlan[day.PlanID] = append(dayIDs[:i], dayIDs[i+1:]...)
			break
		}
	}
	s.deleteDayAndItemsLocked(dayID)

	return true, nil
}

func (s *mealPlanStore) AddItem(ctx context.Context, dayID int64, item storage.MealItemInput) (storage.MealItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.days[dayID]; !ok {
		return storage.MealItemRow{}, storage.ErrNotFound
	}

	row := s.addItemLocked(dayID, item, time.Now().UTC())
	return *row, nil
}

func (s *mealPlanStore) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return false, nil
	}

	itemIDs := s.itemsByDay[item.DayID]
	for i, id := range itemIDs {
		if id == itemID {
			s.itemsByDay[item.DayID] = append(itemIDs[:i], itemIDs[i+1:]...)
			break
		}
	}
	delete(s.items, itemID)

	return true, nil
}

func (s *mealPlanStore) ListItemsByDay(ctx context.Context, dayID int64) ([]storage.MealItemRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.itemsOfDayLocked(dayID), nil
}

func (s *mealPlanStore) ListItemsByFood(ctx context.Context, planID int64, foodID int64) ([]storage.MealItemRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []storage.MealItemRow
	for _, day := range s.daysOfPlanLocked(planID) {
		for _, item := range s.itemsOfDayLocked(day.ID) {
			if item.FoodID == foodID {
				items = append(items, item)
			}
		}
	}

	return items, nil
}

func (s *mealPlanStore) CountItemsByMealType(ctx context.Context, planID int64) (map[storage.MealType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[storage.MealType]int)
	for _, day := range s.daysOfPlanLocked(planID) {
		for _, item := range s.itemsOfDayLocked(day.ID) {
			counts[item.MealType]++
		}
	}

	return counts, nil
}

// Helper methods (must be called with lock held)

func (s *mealPlanStore) addDayLocked(planID int64, dayIndex int, now time.Time) *storage.MealDayRow {
	s.nextDayID++
	day := &storage.MealDayRow{
		ID:        s.nextDayID,
		PlanID:    planID,
		DayIndex:  dayIndex,
		CreatedAt: now,
	}
	s.days[day.ID] = day
	s.daysByPlan[planID] = append(s.daysByPlan[planID], day.ID)
	return day
}

func (s *mealPlanStore) addItemLocked(dayID int64, input storage.MealItemInput, now time.Time) *storage.MealItemRow {
	s.nextItemID++
	item := &storage.MealItemRow{
		ID:        s.nextItemID,
		DayID:     dayID,
		FoodID:    input.FoodID,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
		MealType:  input.MealType,
		CreatedAt: now,
	}
	s.items[item.ID] = item
	s.itemsByDay[dayID] = append(s.itemsByDay[dayID], item.ID)
	return item
}

func (s *mealPlanStore) findDayLocked(planID int64, dayIndex int) *storage.MealDayRow {
	for _, dayID := range s.daysByPlan[planID] {
		if day, ok := s.days[dayID]; ok && day.DayIndex == dayIndex {
			return day
		}
	}
	return nil
}

func (s *mealPlanStore) daysOfPlanLocked(planID int64) []storage.MealDayRow {
	var days []storage.MealDayRow
	for _, dayID := range s.daysByPlan[planID] {
		if day, ok := s.days[dayID]; ok {
			days = append(days, *day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayIndex < days[j].DayIndex })
	return days
}

func (s *mealPlanStore) itemsOfDayLocked(dayID int64) []storage.MealItemRow {
	var items []storage.MealItemRow
	for _, itemID := range s.itemsByDay[dayID] {
		if item, ok := s.items[itemID]; ok {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *mealPlanStore) deleteDayAndItemsLocked(dayID int64) {
	for _, itemID := range s.itemsByDay[dayID] {
		delete(s.items, itemID)
	}
	delete(s.itemsByDay, dayID)
	delete(s.days, dayID)
}
