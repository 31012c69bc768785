package dietplans

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.New().GetDietPlanItemStore())
}

func strPtr(s string) *string   { return &s }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func itemReq(patientID int64, title string, day int, mealType string, foodID int64) CreateItemRequest {
	return CreateItemRequest{
		PatientID: patientID,
		Title:     title,
		DayOfWeek: day,
		MealType:  mealType,
		FoodID:    foodID,
		Quantity:  100,
		Unit:      "g",
	}
}

func TestCreateAndDuplicateCheck(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := itemReq(1, "week A", 1, "BREAKFAST", 10)
	item, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !item.Active {
		t.Error("new item must be active")
	}
	if item.UpdatedAt != nil {
		t.Error("new item must have nil updated_at")
	}

	// Same tuple again is a conflict.
	if _, err := svc.Create(ctx, req); !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("err = %v, want ErrDuplicateItem", err)
	}

	// A different food in the same slot is fine.
	other := req
	other.FoodID = 11
	if _, err := svc.Create(ctx, other); err != nil {
		t.Errorf("different food rejected: %v", err)
	}
}

func TestCreateAllowedAfterSoftDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := itemReq(1, "week A", 1, "LUNCH", 5)
	item, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	// The inactive row no longer blocks the tuple.
	if _, err := svc.Create(ctx, req); err != nil {
		t.Errorf("recreate after soft delete rejected: %v", err)
	}
}

func TestSoftDeleteVisibility(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, itemReq(1, "week A", 1, "DINNER", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	// FindByID has no active filter.
	got, err := svc.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Active {
		t.Error("item still active after soft delete")
	}
	if got.UpdatedAt == nil {
		t.Error("soft delete must stamp updated_at")
	}

	// Active-filtered lookups exclude it.
	items, err := svc.FindPlanItems(ctx, 1, "week A")
	if err != nil {
		t.Fatalf("FindPlanItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d active items, want 0", len(items))
	}
}

func TestFindPlanItemsOrdering(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Inserted out of order on purpose.
	for _, spec := range []struct {
		day      int
		mealType string
		foodID   int64
	}{
		{2, "BREAKFAST", 1},
		{1, "EVENING_SNACK", 2},
		{1, "BREAKFAST", 3},
		{1, "DINNER", 4},
	} {
		if _, err := svc.Create(ctx, itemReq(1, "week A", spec.day, spec.mealType, spec.foodID)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	items, err := svc.FindPlanItems(ctx, 1, "week A")
	if err != nil {
		t.Fatalf("FindPlanItems failed: %v", err)
	}

	want := []int64{3, 4, 2, 1} // day 1: breakfast, dinner, evening snack; then day 2
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, foodID := range want {
		if items[i].FoodID != foodID {
			t.Errorf("position %d: food = %d, want %d", i, items[i].FoodID, foodID)
		}
	}
}

func TestFindByDayAndMealType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, itemReq(1, "week A", 1, "LUNCH", 2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, itemReq(1, "week A", 3, "LUNCH", 2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	byDay, err := svc.FindByDay(ctx, 1, "week A", 1)
	if err != nil {
		t.Fatalf("FindByDay failed: %v", err)
	}
	if len(byDay) != 2 {
		t.Errorf("day 1 items = %d, want 2", len(byDay))
	}

	byMeal, err := svc.FindByMealType(ctx, 1, "week A", "lunch")
	if err != nil {
		t.Fatalf("FindByMealType failed: %v", err)
	}
	if len(byMeal) != 2 {
		t.Fatalf("lunch items = %d, want 2", len(byMeal))
	}
	if byMeal[0].DayOfWeek != 1 || byMeal[1].DayOfWeek != 3 {
		t.Errorf("lunch day order = %d,%d, want 1,3", byMeal[0].DayOfWeek, byMeal[1].DayOfWeek)
	}

	if _, err := svc.FindByMealType(ctx, 1, "week A", "ELEVENSES"); !errors.Is(err, storage.ErrInvalidMealType) {
		t.Errorf("err = %v, want ErrInvalidMealType", err)
	}
}

func TestGetPlanTitles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, spec := range []struct {
		title string
		day   int
	}{
		{"zeta", 1},
		{"alpha", 1},
		{"alpha", 2}, // second row of the same plan must not duplicate the title
	} {
		if _, err := svc.Create(ctx, itemReq(1, spec.title, spec.day, "LUNCH", 1)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	deleted, err := svc.Create(ctx, itemReq(1, "ghost", 1, "LUNCH", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.DeleteItem(ctx, deleted.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	titles, err := svc.GetPlanTitles(ctx, 1)
	if err != nil {
		t.Fatalf("GetPlanTitles failed: %v", err)
	}

	want := []string{"alpha", "zeta"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles = %v, want %v", titles, want)
			break
		}
	}
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(ctx, item.ID, UpdateItemRequest{
		Quantity: f64Ptr(250),
		Calories: f64Ptr(320),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Quantity != 250 {
		t.Errorf("quantity = %v, want 250", updated.Quantity)
	}
	if updated.Calories == nil || *updated.Calories != 320 {
		t.Errorf("calories = %v, want 320", updated.Calories)
	}
	// Untouched fields keep their values.
	if updated.MealType != storage.MealTypeBreakfast || updated.FoodID != 5 {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("update must stamp updated_at")
	}
}

func TestUpdateRejectsInvalidMealType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Update(ctx, item.ID, UpdateItemRequest{
		MealType: strPtr("MIDNIGHT_FEAST"),
		Quantity: f64Ptr(999),
	})
	if !errors.Is(err, storage.ErrInvalidMealType) {
		t.Fatalf("err = %v, want ErrInvalidMealType", err)
	}

	// The whole update is rejected, including the valid fields.
	got, err := svc.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Quantity != 100 {
		t.Errorf("quantity = %v, want 100 (update must not apply)", got.Quantity)
	}
	if got.UpdatedAt != nil {
		t.Error("rejected update must not stamp updated_at")
	}
}

func TestUpdateRejectsSlotCollision(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 5)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other, err := svc.Create(ctx, itemReq(1, "week A", 1, "LUNCH", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Moving the lunch item onto the occupied breakfast slot is a conflict.
	_, err = svc.Update(ctx, other.ID, UpdateItemRequest{MealType: strPtr("BREAKFAST")})
	if !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("err = %v, want ErrDuplicateItem", err)
	}

	got, err := svc.FindByID(ctx, other.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.MealType != storage.MealTypeLunch {
		t.Errorf("meal type = %s, want LUNCH (update must not apply)", got.MealType)
	}
}

func TestUpdateDayOfWeekBounds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, item.ID, UpdateItemRequest{DayOfWeek: intPtr(0)}); err == nil {
		t.Error("day_of_week 0 accepted")
	}
	if _, err := svc.Update(ctx, item.ID, UpdateItemRequest{DayOfWeek: intPtr(7)}); err != nil {
		t.Errorf("day_of_week 7 rejected: %v", err)
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	svc := newTestService()

	if err := svc.DeleteItem(context.Background(), 404); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePlanGroup(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, itemReq(1, "week A", 1, "BREAKFAST", 1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, itemReq(1, "week A", 2, "LUNCH", 2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, itemReq(1, "week B", 1, "BREAKFAST", 1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.DeletePlan(ctx, 1, "week A"); err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}

	itemsA, _ := svc.FindPlanItems(ctx, 1, "week A")
	itemsB, _ := svc.FindPlanItems(ctx, 1, "week B")
	if len(itemsA) != 0 {
		t.Errorf("week A still has %d active items", len(itemsA))
	}
	if len(itemsB) != 1 {
		t.Errorf("week B lost items: %d", len(itemsB))
	}

	// Empty group delete is a no-op, not an error.
	if err := svc.DeletePlan(ctx, 1, "nothing here"); err != nil {
		t.Errorf("empty group delete errored: %v", err)
	}
}

func TestDuplicatePlan(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	src := itemReq(1, "source", 1, "BREAKFAST", 1)
	src.Calories = f64Ptr(200)
	original, err := svc.Create(ctx, src)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	copies, err := svc.DuplicatePlan(ctx, 1, "source", "copy")
	if err != nil {
		t.Fatalf("DuplicatePlan failed: %v", err)
	}
	if len(copies) != 1 {
		t.Fatalf("got %d copies, want 1", len(copies))
	}
	copied := copies[0]
	if copied.ID == original.ID {
		t.Error("copy reused the source id")
	}
	if copied.Title != "copy" {
		t.Errorf("copy title = %q, want %q", copied.Title, "copy")
	}
	if !copied.Active || copied.UpdatedAt != nil {
		t.Errorf("copy must be fresh: active=%v updated_at=%v", copied.Active, copied.UpdatedAt)
	}
	if copied.Calories == nil || *copied.Calories != 200 {
		t.Errorf("copy lost nutrition data: %v", copied.Calories)
	}

	// Target title taken.
	if _, err := svc.DuplicatePlan(ctx, 1, "source", "copy"); !errors.Is(err, ErrTitleExists) {
		t.Errorf("err = %v, want ErrTitleExists", err)
	}

	// Empty source group.
	if _, err := svc.DuplicatePlan(ctx, 1, "missing", "fresh"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPlanSummary(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first := itemReq(1, "week A", 1, "BREAKFAST", 1)
	first.Notes = strPtr("plan notes")
	first.Calories = f64Ptr(250)
	second := itemReq(1, "week A", 1, "LUNCH", 2)
	second.Calories = f64Ptr(350)

	if _, err := svc.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	s, err := svc.GetPlanSummary(ctx, 1, "week A")
	if err != nil {
		t.Fatalf("GetPlanSummary failed: %v", err)
	}

	if s.Nutrition.TotalCalories != 600 {
		t.Errorf("total calories = %v, want 600", s.Nutrition.TotalCalories)
	}
	want := 600.0 / 7.0
	if math.Abs(s.Nutrition.AvgDailyCalories-want) > 1e-9 {
		t.Errorf("avg daily calories = %v, want %v", s.Nutrition.AvgDailyCalories, want)
	}
	if s.Notes == nil || *s.Notes != "plan notes" {
		t.Errorf("notes = %v, want %q", s.Notes, "plan notes")
	}

	if _, err := svc.GetPlanSummary(ctx, 1, "empty"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateBatchOutcomes(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// All valid.
	result, err := svc.CreateBatch(ctx, []CreateItemRequest{
		itemReq(1, "batch", 1, "BREAKFAST", 1),
		itemReq(1, "batch", 1, "LUNCH", 2),
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if result.Outcome != BatchCreated || len(result.Created) != 2 {
		t.Errorf("outcome = %s created=%d, want created/2", result.Outcome, len(result.Created))
	}

	// One duplicate: partial, successes persisted.
	result, err = svc.CreateBatch(ctx, []CreateItemRequest{
		itemReq(1, "batch", 1, "BREAKFAST", 1), // duplicate of the first batch
		itemReq(1, "batch", 2, "DINNER", 3),
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if result.Outcome != BatchPartial {
		t.Errorf("outcome = %s, want partial", result.Outcome)
	}
	if len(result.Created) != 1 || len(result.Failures) != 1 {
		t.Errorf("created=%d failures=%d, want 1/1", len(result.Created), len(result.Failures))
	}
	if result.Failures[0].Index != 0 {
		t.Errorf("failure index = %d, want 0", result.Failures[0].Index)
	}

	items, _ := svc.FindPlanItems(ctx, 1, "batch")
	if len(items) != 3 {
		t.Errorf("persisted items = %d, want 3", len(items))
	}

	// Nothing valid.
	result, err = svc.CreateBatch(ctx, []CreateItemRequest{
		itemReq(1, "batch", 1, "BREAKFAST", 1),
		{PatientID: 1, Title: "batch", DayOfWeek: 9, MealType: "LUNCH", FoodID: 4, Quantity: 1, Unit: "g"},
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if result.Outcome != BatchFailed || len(result.Created) != 0 {
		t.Errorf("outcome = %s created=%d, want failed/0", result.Outcome, len(result.Created))
	}
}

func TestDeleteBatchBestEffort(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, err := svc.Create(ctx, itemReq(1, "batch", 1, "BREAKFAST", 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := svc.Create(ctx, itemReq(1, "batch", 1, "LUNCH", 2))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	result := svc.DeleteBatch(ctx, []int64{a.ID, 9999, b.ID})

	if len(result.Deleted) != 2 {
		t.Errorf("deleted = %v, want both existing ids", result.Deleted)
	}
	if len(result.Failures) != 1 || result.Failures[0].ID != 9999 {
		t.Errorf("failures = %+v, want one for id 9999", result.Failures)
	}

	items, _ := svc.FindPlanItems(ctx, 1, "batch")
	if len(items) != 0 {
		t.Errorf("active items = %d, want 0", len(items))
	}
}
