package memory

import (
	"github.com/nutrihouse/diet-service/internal/storage"
)

// MemoryStorage — in-memory реализация всех store-интерфейсов (тесты и smoke)
type MemoryStorage struct {
	mealPlans     *mealPlanStore
	dietPlanItems *dietPlanItemStore
	planReports   *planReportStore
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		mealPlans:     newMealPlanStore(),
		dietPlanItems: newDietPlanItemStore(),
		planReports:   newPlanReportStore(),
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

// GetMealPlanStore returns the meal plan store.
func (m *MemoryStorage) GetMealPlanStore() storage.MealPlanStore {
	return m.mealPlans
}

// GetDietPlanItemStore returns the diet plan item store.
func (m *MemoryStorage) GetDietPlanItemStore() storage.DietPlanItemStore {
	return m.dietPlanItems
}

// GetPlanReportStore returns the plan report store.
func (m *MemoryStorage) GetPlanReportStore() storage.PlanReportStore {
	return m.planReports
}
