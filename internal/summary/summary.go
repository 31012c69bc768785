// Package summary computes nutrition summaries over flat diet plan items.
package summary

import (
	"github.com/nutrihouse/diet-service/internal/storage"
)

// weekDays is the fixed divisor for the daily calorie average. A plan always
// describes a full week, whether or not every day has items.
const weekDays = 7

// Nutrition holds plan-wide nutrient totals. Items without a value for a
// nutrient contribute zero.
type Nutrition struct {
	TotalCalories    float64
	TotalProteins    float64
	TotalCarbs       float64
	TotalFats        float64
	AvgDailyCalories float64
}

// PlanSummary is the full summary of one plan group.
type PlanSummary struct {
	PatientID       int64
	Title           string
	Notes           *string
	TotalItems      int
	ItemsByDay      map[int][]storage.DietPlanItemRow
	ItemsByMealType map[storage.MealType][]storage.DietPlanItemRow
	Nutrition       Nutrition
}

// Build computes the summary for a plan group. Items are expected in plan
// order (day, then meal type); group order follows the input.
func Build(patientID int64, title string, items []storage.DietPlanItemRow) PlanSummary {
	s := PlanSummary{
		PatientID:       patientID,
		Title:           title,
		TotalItems:      len(items),
		ItemsByDay:      make(map[int][]storage.DietPlanItemRow),
		ItemsByMealType: make(map[storage.MealType][]storage.DietPlanItemRow),
	}

	for _, item := range items {
		s.ItemsByDay[item.DayOfWeek] = append(s.ItemsByDay[item.DayOfWeek], item)
		s.ItemsByMealType[item.MealType] = append(s.ItemsByMealType[item.MealType], item)

		s.Nutrition.TotalCalories += valueOrZero(item.Calories)
		s.Nutrition.TotalProteins += valueOrZero(item.Proteins)
		s.Nutrition.TotalCarbs += valueOrZero(item.Carbs)
		s.Nutrition.TotalFats += valueOrZero(item.Fats)
	}

	s.Nutrition.AvgDailyCalories = s.Nutrition.TotalCalories / weekDays

	if len(items) > 0 {
		s.Notes = items[0].Notes
	}

	return s
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName maps a day of week (1..7) to its English name.
func DayName(day int) string {
	if day < 1 || day > weekDays {
		return "Unknown"
	}
	return dayNames[day-1]
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
