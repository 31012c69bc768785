package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.New().GetMealPlanStore())
}

func strPtr(s string) *string { return &s }

func TestCreatePlanWithNestedDays(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{
		PatientID: 10,
		Title:     "Week 1",
		Notes:     strPtr("low carb"),
		Days: []CreateDayInput{
			{DayIndex: 2, Items: []ItemInput{
				{FoodID: 5, Quantity: 100, Unit: "g", MealType: "LUNCH"},
			}},
			{DayIndex: 1, Items: []ItemInput{
				{FoodID: 3, Quantity: 50, Unit: "g", MealType: "BREAKFAST"},
				{FoodID: 4, Quantity: 200, Unit: "ml", MealType: "BREAKFAST"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if plan.ID == 0 {
		t.Fatal("expected a plan id")
	}

	got, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}

	if len(got.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(got.Days))
	}
	// Days sorted by day index regardless of creation order.
	if got.Days[0].DayIndex != 1 || got.Days[1].DayIndex != 2 {
		t.Errorf("day order = %d,%d, want 1,2", got.Days[0].DayIndex, got.Days[1].DayIndex)
	}
	if len(got.Days[0].Items) != 2 || len(got.Days[1].Items) != 1 {
		t.Errorf("item counts = %d/%d, want 2/1", len(got.Days[0].Items), len(got.Days[1].Items))
	}
	if got.Notes == nil || *got.Notes != "low carb" {
		t.Errorf("notes = %v, want %q", got.Notes, "low carb")
	}
}

func TestCreatePlanValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreatePlanRequest
	}{
		{"missing patient", CreatePlanRequest{Title: "x"}},
		{"empty title", CreatePlanRequest{PatientID: 1}},
		{"bad day index", CreatePlanRequest{PatientID: 1, Title: "x", Days: []CreateDayInput{{DayIndex: 8}}}},
		{"duplicate day index", CreatePlanRequest{PatientID: 1, Title: "x", Days: []CreateDayInput{{DayIndex: 1}, {DayIndex: 1}}}},
		{"zero quantity", CreatePlanRequest{PatientID: 1, Title: "x", Days: []CreateDayInput{
			{DayIndex: 1, Items: []ItemInput{{FoodID: 1, Quantity: 0, Unit: "g", MealType: "LUNCH"}}},
		}}},
		{"bad meal type", CreatePlanRequest{PatientID: 1, Title: "x", Days: []CreateDayInput{
			{DayIndex: 1, Items: []ItemInput{{FoodID: 1, Quantity: 1, Unit: "g", MealType: "BRUNCH"}}},
		}}},
	}

	for _, tc := range cases {
		if _, err := svc.CreatePlan(ctx, tc.req); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestGetPlanNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetPlan(context.Background(), 999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddOrGetDayIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "plan"})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	first, err := svc.AddOrGetDay(ctx, plan.ID, 3)
	if err != nil {
		t.Fatalf("AddOrGetDay failed: %v", err)
	}
	second, err := svc.AddOrGetDay(ctx, plan.ID, 3)
	if err != nil {
		t.Fatalf("AddOrGetDay (repeat) failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("repeat AddOrGetDay created a new day: %d != %d", first.ID, second.ID)
	}

	got, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if len(got.Days) != 1 {
		t.Errorf("got %d days, want 1", len(got.Days))
	}
}

func TestAddOrGetDayPlanMissing(t *testing.T) {
	svc := newTestService()

	_, err := svc.AddOrGetDay(context.Background(), 42, 1)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddItemCreatesDayOnDemand(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "plan"})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	item, err := svc.AddItem(ctx, plan.ID, 5, ItemInput{FoodID: 9, Quantity: 150, Unit: "g", MealType: "dinner"})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.MealType != storage.MealTypeDinner {
		t.Errorf("meal type = %s, want DINNER", item.MealType)
	}

	got, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if len(got.Days) != 1 || got.Days[0].DayIndex != 5 {
		t.Fatalf("expected one day with index 5, got %+v", got.Days)
	}
	if len(got.Days[0].Items) != 1 {
		t.Errorf("got %d items, want 1", len(got.Days[0].Items))
	}
}

func TestAddItemInvalidMealType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "plan"})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	_, err = svc.AddItem(ctx, plan.ID, 1, ItemInput{FoodID: 1, Quantity: 1, Unit: "g", MealType: "SECOND_DINNER"})
	if !errors.Is(err, storage.ErrInvalidMealType) {
		t.Errorf("err = %v, want ErrInvalidMealType", err)
	}
}

func TestUpdateHeaderSemantics(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "Original", Notes: strPtr("old notes")})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	// Blank title keeps the current one; notes is overwritten.
	updated, err := svc.UpdateHeader(ctx, plan.ID, "  ", strPtr("new notes"))
	if err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}
	if updated.Title != "Original" {
		t.Errorf("title = %q, want %q", updated.Title, "Original")
	}
	if updated.Notes == nil || *updated.Notes != "new notes" {
		t.Errorf("notes = %v, want %q", updated.Notes, "new notes")
	}

	// Nil notes clears the field.
	updated, err = svc.UpdateHeader(ctx, plan.ID, "Renamed", nil)
	if err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q, want %q", updated.Title, "Renamed")
	}
	if updated.Notes != nil {
		t.Errorf("notes = %v, want nil", updated.Notes)
	}
}

func TestDeletePlanCascades(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{
		PatientID: 1,
		Title:     "plan",
		Days: []CreateDayInput{
			{DayIndex: 1, Items: []ItemInput{{FoodID: 1, Quantity: 1, Unit: "g", MealType: "LUNCH"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	dayID := plan.Days[0].ID
	itemID := plan.Days[0].Items[0].ID

	deleted, err := svc.DeletePlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}
	if !deleted {
		t.Fatal("DeletePlan returned false for existing plan")
	}

	if _, err := svc.GetPlan(ctx, plan.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("plan still readable after delete: %v", err)
	}
	if ok, _ := svc.RemoveDay(ctx, dayID); ok {
		t.Error("day survived plan delete")
	}
	if ok, _ := svc.RemoveItem(ctx, itemID); ok {
		t.Error("item survived plan delete")
	}

	// Second delete is a clean false.
	deleted, err = svc.DeletePlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("repeat DeletePlan errored: %v", err)
	}
	if deleted {
		t.Error("repeat DeletePlan returned true")
	}
}

func TestListPlansNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if _, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 7, Title: title}); err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
	}
	if _, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 8, Title: "other patient"}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	got, err := svc.ListPlansForPatient(ctx, 7)
	if err != nil {
		t.Fatalf("ListPlansForPatient failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d plans, want 3", len(got))
	}
	if got[0].Title != "c" || got[2].Title != "a" {
		t.Errorf("order = %s..%s, want c..a", got[0].Title, got[2].Title)
	}
}

func TestSearchPlans(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "Keto week"}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if _, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "Bulking", Notes: strPtr("high keto-adjacent carbs")}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if _, err := svc.CreatePlan(ctx, CreatePlanRequest{PatientID: 1, Title: "Vegan"}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	got, err := svc.SearchPlans(ctx, 1, "KETO")
	if err != nil {
		t.Fatalf("SearchPlans failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d matches, want 2", len(got))
	}
}

func TestCountItemsByMealType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanRequest{
		PatientID: 1,
		Title:     "plan",
		Days: []CreateDayInput{
			{DayIndex: 1, Items: []ItemInput{
				{FoodID: 1, Quantity: 1, Unit: "g", MealType: "BREAKFAST"},
				{FoodID: 2, Quantity: 1, Unit: "g", MealType: "BREAKFAST"},
				{FoodID: 3, Quantity: 1, Unit: "g", MealType: "DINNER"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	counts, err := svc.CountItemsByMealType(ctx, plan.ID)
	if err != nil {
		t.Fatalf("CountItemsByMealType failed: %v", err)
	}
	if counts[storage.MealTypeBreakfast] != 2 || counts[storage.MealTypeDinner] != 1 {
		t.Errorf("counts = %v, want breakfast=2 dinner=1", counts)
	}
}
