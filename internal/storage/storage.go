package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert collides with an active row
	// carrying the same (patient, title, day, meal type, food) tuple.
	ErrDuplicate = errors.New("duplicate item")

	// ErrInvalidMealType is returned for meal type strings outside the known set.
	ErrInvalidMealType = errors.New("invalid meal type")
)

// MealPlanRow — строка из meal_plans
type MealPlanRow struct {
	ID        int64
	PatientID int64
	Title     string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealDayRow — строка из meal_days
type MealDayRow struct {
	ID        int64
	PlanID    int64
	DayIndex  int
	CreatedAt time.Time
}

// MealItemRow — строка из meal_items
type MealItemRow struct {
	ID        int64
	DayID     int64
	FoodID    int64
	Quantity  float64
	Unit      string
	MealType  MealType
	CreatedAt time.Time
}

// MealDayInput is a day (with items) to persist inside a plan create.
type MealDayInput struct {
	DayIndex int
	Items    []MealItemInput
}

// MealItemInput is an item to persist inside a day.
type MealItemInput struct {
	FoodID   int64
	Quantity float64
	Unit     string
	MealType MealType
}

// MealPlanStore manages the plan/day/item hierarchy.
type MealPlanStore interface {
	// CreatePlan persists a plan with its nested days and items in one transaction.
	CreatePlan(ctx context.Context, patientID int64, title string, notes *string, days []MealDayInput) (MealPlanRow, []MealDayRow, []MealItemRow, error)

	// GetPlan returns the plan with all days and items. bool=false when absent.
	GetPlan(ctx context.Context, planID int64) (MealPlanRow, []MealDayRow, []MealItemRow, bool, error)

	// ListPlans returns all plans for a patient, newest id first.
	ListPlans(ctx context.Context, patientID int64) ([]MealPlanRow, error)

	// SearchPlans returns the patient's plans whose title or notes contain query
	// (case-insensitive).
	SearchPlans(ctx context.Context, patientID int64, query string) ([]MealPlanRow, error)

	// UpdatePlanHeader overwrites title and notes and stamps updated_at.
	UpdatePlanHeader(ctx context.Context, planID int64, title string, notes *string) (MealPlanRow, bool, error)

	// DeletePlan removes the plan and all its days and items in one transaction.
	// Returns false when the plan does not exist.
	DeletePlan(ctx context.Context, planID int64) (bool, error)

	// AddOrGetDay returns the existing day for (plan, dayIndex), creating it
	// when missing. bool=false when the plan does not exist.
	AddOrGetDay(ctx context.Context, planID int64, dayIndex int) (MealDayRow, bool, error)

	// GetDay returns a day by (plan, dayIndex). bool=false when absent.
	GetDay(ctx context.Context, planID int64, dayIndex int) (MealDayRow, bool, error)

	// DeleteDay removes a day and its items. Returns false when absent.
	DeleteDay(ctx context.Context, dayID int64) (bool, error)

	// AddItem appends an item to a day.
	AddItem(ctx context.Context, dayID int64, item MealItemInput) (MealItemRow, error)

	// DeleteItem removes a single item. Returns false when absent.
	DeleteItem(ctx context.Context, itemID int64) (bool, error)

	// ListItemsByDay returns the items of a day ordered by id.
	ListItemsByDay(ctx context.Context, dayID int64) ([]MealItemRow, error)

	// ListItemsByFood returns items of a plan referencing a food.
	ListItemsByFood(ctx context.Context, planID int64, foodID int64) ([]MealItemRow, error)

	// CountItemsByMealType returns per-slot item counts for a plan.
	CountItemsByMealType(ctx context.Context, planID int64) (map[MealType]int, error)
}

// DietPlanItemRow — строка из diet_plan_items (denormalized plan line)
type DietPlanItemRow struct {
	ID        int64
	PatientID int64
	Title     string
	Notes     *string
	DayOfWeek int // 1=Monday .. 7=Sunday
	MealType  MealType
	FoodID    int64
	FoodName  *string
	Quantity  float64
	Unit      string
	Calories  *float64
	Proteins  *float64
	Carbs     *float64
	Fats      *float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// DietPlanItemStore manages the flat diet plan item table. A plan is the
// group of active rows sharing (patient_id, title); deletes are soft.
type DietPlanItemStore interface {
	// Insert persists a new row. Returns ErrDuplicate when an active row with
	// the same (patient, title, day, meal type, food) tuple exists.
	Insert(ctx context.Context, row DietPlanItemRow) (DietPlanItemRow, error)

	// GetByID returns a row regardless of its active flag. bool=false when absent.
	GetByID(ctx context.Context, id int64) (DietPlanItemRow, bool, error)

	// ListPlanItems returns active rows of a plan ordered by day then meal type.
	ListPlanItems(ctx context.Context, patientID int64, title string) ([]DietPlanItemRow, error)

	// ListByDay returns active rows of a plan day ordered by meal type.
	ListByDay(ctx context.Context, patientID int64, title string, dayOfWeek int) ([]DietPlanItemRow, error)

	// ListByMealType returns active rows of a plan slot ordered by day.
	ListByMealType(ctx context.Context, patientID int64, title string, mealType MealType) ([]DietPlanItemRow, error)

	// ListTitles returns distinct titles of the patient's active rows, sorted.
	ListTitles(ctx context.Context, patientID int64) ([]string, error)

	// ExistsActive reports whether an active row with the tuple exists.
	ExistsActive(ctx context.Context, patientID int64, title string, dayOfWeek int, mealType MealType, foodID int64) (bool, error)

	// HasActiveTitle reports whether any active row carries the title.
	HasActiveTitle(ctx context.Context, patientID int64, title string) (bool, error)

	// Update overwrites a row (last writer wins). Returns false when absent.
	Update(ctx context.Context, row DietPlanItemRow) (bool, error)

	// Deactivate soft-deletes a row. Returns false when absent.
	Deactivate(ctx context.Context, id int64) (bool, error)

	// DeactivatePlan soft-deletes all active rows of a plan and returns the count.
	DeactivatePlan(ctx context.Context, patientID int64, title string) (int, error)
}

// PlanReportRow — метаданные сгенерированного отчёта по плану
type PlanReportRow struct {
	ID        uuid.UUID
	PatientID int64
	PlanTitle string
	ObjectKey *string // S3 object key (NULL for local mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	Data      []byte // only used in local mode (not stored in DB)
}

// PlanReportStore manages plan report metadata.
type PlanReportStore interface {
	CreateReport(ctx context.Context, report *PlanReportRow) error
	GetReport(ctx context.Context, id uuid.UUID) (*PlanReportRow, error)
	ListReports(ctx context.Context, patientID int64, limit, offset int) ([]PlanReportRow, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}
