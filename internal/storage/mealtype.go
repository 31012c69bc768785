package storage

import (
	"fmt"
	"strings"
)

// MealType identifies the meal slot an item belongs to.
type MealType string

const (
	MealTypeBreakfast      MealType = "BREAKFAST"
	MealTypeMorningSnack   MealType = "MORNING_SNACK"
	MealTypeLunch          MealType = "LUNCH"
	MealTypeAfternoonSnack MealType = "AFTERNOON_SNACK"
	MealTypeDinner         MealType = "DINNER"
	MealTypeEveningSnack   MealType = "EVENING_SNACK"
)

var mealTypeOrder = map[MealType]int{
	MealTypeBreakfast:      1,
	MealTypeMorningSnack:   2,
	MealTypeLunch:          3,
	MealTypeAfternoonSnack: 4,
	MealTypeDinner:         5,
	MealTypeEveningSnack:   6,
}

// MealTypes returns all meal types in time-of-day order.
func MealTypes() []MealType {
	return []MealType{
		MealTypeBreakfast,
		MealTypeMorningSnack,
		MealTypeLunch,
		MealTypeAfternoonSnack,
		MealTypeDinner,
		MealTypeEveningSnack,
	}
}

// ParseMealType parses a meal type string (case-insensitive).
func ParseMealType(s string) (MealType, error) {
	mt := MealType(strings.ToUpper(strings.TrimSpace(s)))
	if !mt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
	}
	return mt, nil
}

func (m MealType) Valid() bool {
	_, ok := mealTypeOrder[m]
	return ok
}

// Order returns the time-of-day position (1..6). Unknown types sort last.
func (m MealType) Order() int {
	if o, ok := mealTypeOrder[m]; ok {
		return o
	}
	return len(mealTypeOrder) + 1
}

// IsMainMeal reports whether the slot is breakfast, lunch or dinner.
func (m MealType) IsMainMeal() bool {
	return m == MealTypeBreakfast || m == MealTypeLunch || m == MealTypeDinner
}

// IsSnack reports whether the slot is one of the snack types.
func (m MealType) IsSnack() bool {
	return m.Valid() && !m.IsMainMeal()
}
