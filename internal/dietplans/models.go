package dietplans

import (
	"errors"
	"fmt"
	"time"

	"github.com/nutrihouse/diet-service/internal/storage"
)

var (
	// ErrDuplicateItem is returned when an active item with the same
	// (patient, title, day, meal type, food) tuple already exists.
	ErrDuplicateItem = errors.New("duplicate plan item")

	// ErrTitleExists is returned by DuplicatePlan when the target title is
	// already in use by active items.
	ErrTitleExists = errors.New("plan title already exists")
)

// Item is a single line of a flat diet plan.
type Item struct {
	ID        int64            `json:"id"`
	PatientID int64            `json:"patient_id"`
	Title     string           `json:"title"`
	Notes     *string          `json:"notes,omitempty"`
	DayOfWeek int              `json:"day_of_week"`
	MealType  storage.MealType `json:"meal_type"`
	FoodID    int64            `json:"food_id"`
	FoodName  *string          `json:"food_name,omitempty"`
	Quantity  float64          `json:"quantity"`
	Unit      string           `json:"unit"`
	Calories  *float64         `json:"calories,omitempty"`
	Proteins  *float64         `json:"proteins,omitempty"`
	Carbs     *float64         `json:"carbs,omitempty"`
	Fats      *float64         `json:"fats,omitempty"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

type CreateItemRequest struct {
	PatientID int64    `json:"patient_id"`
	Title     string   `json:"title"`
	Notes     *string  `json:"notes,omitempty"`
	DayOfWeek int      `json:"day_of_week"`
	MealType  string   `json:"meal_type"`
	FoodID    int64    `json:"food_id"`
	FoodName  *string  `json:"food_name,omitempty"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit"`
	Calories  *float64 `json:"calories,omitempty"`
	Proteins  *float64 `json:"proteins,omitempty"`
	Carbs     *float64 `json:"carbs,omitempty"`
	Fats      *float64 `json:"fats,omitempty"`
}

func (r *CreateItemRequest) Validate() error {
	if r.PatientID <= 0 {
		return fmt.Errorf("patient_id is required")
	}
	if len(r.Title) < 1 || len(r.Title) > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}
	if r.DayOfWeek < 1 || r.DayOfWeek > 7 {
		return fmt.Errorf("day_of_week must be 1-7")
	}
	if _, err := storage.ParseMealType(r.MealType); err != nil {
		return err
	}
	if r.FoodID <= 0 {
		return fmt.Errorf("food_id is required")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if r.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	return nil
}

// UpdateItemRequest carries a partial update. Nil fields are left unchanged.
type UpdateItemRequest struct {
	Title     *string  `json:"title,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	DayOfWeek *int     `json:"day_of_week,omitempty"`
	MealType  *string  `json:"meal_type,omitempty"`
	FoodID    *int64   `json:"food_id,omitempty"`
	FoodName  *string  `json:"food_name,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Unit      *string  `json:"unit,omitempty"`
	Calories  *float64 `json:"calories,omitempty"`
	Proteins  *float64 `json:"proteins,omitempty"`
	Carbs     *float64 `json:"carbs,omitempty"`
	Fats      *float64 `json:"fats,omitempty"`
}

// BatchOutcome classifies a batch create.
type BatchOutcome string

const (
	BatchCreated BatchOutcome = "created" // every element persisted
	BatchPartial BatchOutcome = "partial" // some elements persisted
	BatchFailed  BatchOutcome = "failed"  // nothing persisted
)

// BatchFailure describes one rejected element of a batch create.
type BatchFailure struct {
	Index    int    `json:"index"`
	FoodName string `json:"food_name"`
	Reason   string `json:"reason"`
}

// BatchResult is the outcome of a batch create. Created holds the persisted
// items even when the batch is only partially successful.
type BatchResult struct {
	Outcome  BatchOutcome   `json:"outcome"`
	Created  []Item         `json:"created"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// BatchDeleteFailure describes one id a batch delete could not remove.
type BatchDeleteFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchDeleteResult is the outcome of a best-effort batch delete.
type BatchDeleteResult struct {
	Deleted  []int64              `json:"deleted"`
	Failures []BatchDeleteFailure `json:"failures,omitempty"`
}
