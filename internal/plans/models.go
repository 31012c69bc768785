package plans

import (
	"fmt"
	"time"

	"github.com/nutrihouse/diet-service/internal/storage"
)

// Plan is a fully materialized meal plan aggregate.
type Plan struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	Title     string    `json:"title"`
	Notes     *string   `json:"notes,omitempty"`
	Days      []Day     `json:"days"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Day is one day of a plan with its items.
type Day struct {
	ID       int64  `json:"id"`
	PlanID   int64  `json:"plan_id"`
	DayIndex int    `json:"day_index"`
	Items    []Item `json:"items"`
}

// Item is a single food entry inside a day.
type Item struct {
	ID        int64            `json:"id"`
	DayID     int64            `json:"day_id"`
	FoodID    int64            `json:"food_id"`
	Quantity  float64          `json:"quantity"`
	Unit      string           `json:"unit"`
	MealType  storage.MealType `json:"meal_type"`
	CreatedAt time.Time        `json:"created_at"`
}

type CreatePlanRequest struct {
	PatientID int64            `json:"patient_id"`
	Title     string           `json:"title"`
	Notes     *string          `json:"notes,omitempty"`
	Days      []CreateDayInput `json:"days"`
}

type CreateDayInput struct {
	DayIndex int         `json:"day_index"`
	Items    []ItemInput `json:"items"`
}

type ItemInput struct {
	FoodID   int64   `json:"food_id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	MealType string  `json:"meal_type"`
}

func (r *CreatePlanRequest) Validate() error {
	if r.PatientID <= 0 {
		return fmt.Errorf("patient_id is required")
	}
	if len(r.Title) < 1 || len(r.Title) > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}
	seen := make(map[int]bool)
	for i, day := range r.Days {
		if day.DayIndex < 1 || day.DayIndex > 7 {
			return fmt.Errorf("day[%d]: day_index must be 1-7", i)
		}
		if seen[day.DayIndex] {
			return fmt.Errorf("duplicate day_index: %d", day.DayIndex)
		}
		seen[day.DayIndex] = true
		for j, item := range day.Items {
			if err := item.Validate(); err != nil {
				return fmt.Errorf("day[%d].item[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

func (i *ItemInput) Validate() error {
	if i.FoodID <= 0 {
		return fmt.Errorf("food_id is required")
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if i.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if _, err := storage.ParseMealType(i.MealType); err != nil {
		return err
	}
	return nil
}
