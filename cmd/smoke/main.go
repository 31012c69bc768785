package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/nutrihouse/diet-service/internal/blob"
	"github.com/nutrihouse/diet-service/internal/config"
	"github.com/nutrihouse/diet-service/internal/dbmigrate"
	"github.com/nutrihouse/diet-service/internal/dietplans"
	"github.com/nutrihouse/diet-service/internal/plans"
	"github.com/nutrihouse/diet-service/internal/reports"
	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/storage/memory"
	"github.com/nutrihouse/diet-service/internal/storage/postgres"
)

const patientID = int64(1)

var (
	planSvc   *plans.Service
	dietSvc   *dietplans.Service
	reportSvc *reports.Service

	createdPlanID int64

	// Local blob mode on the postgres backend persists report metadata only,
	// so the raw-bytes download step is limited to the presigned/memory paths.
	reportDataAvailable bool
)

type serviceStorage interface {
	GetMealPlanStore() storage.MealPlanStore
	GetDietPlanItemStore() storage.DietPlanItemStore
	GetPlanReportStore() storage.PlanReportStore
	Close() error
}

func openStorage(ctx context.Context, cfg *config.Config) (serviceStorage, bool, error) {
	if cfg.DatabaseURL == "" {
		return memory.New(), true, nil
	}

	if cfg.RunMigrationsOnStartup {
		dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
		if err != nil {
			return nil, false, err
		}
		if warning != "" {
			log.Printf("WARN smoke: %s", warning)
		}
		log.Printf("INFO smoke: running migrations using=%s", source)
		if err := dbmigrate.Run("up", dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
			return nil, false, err
		}
	}

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, false, err
	}
	return store, false, nil
}

func main() {
	fmt.Println("=== Diet Service Smoke Test ===")
	fmt.Println()

	cfg := config.Load()
	log.Printf("INFO smoke: env=%s log_level=%s", cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	store, inMemory, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL smoke: storage init failed: %v", err)
	}
	defer store.Close()

	blobStore, blobMode, err := blob.NewBlobStore(cfg.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL smoke: blob init failed: %v", err)
	}

	storageName := "postgres"
	if inMemory {
		storageName = "memory"
	}
	fmt.Printf("Storage: %s\n", storageName)
	fmt.Printf("Reports: blob mode=%s\n", blobMode)
	fmt.Println()

	reportDataAvailable = inMemory || blobMode != config.BlobModeLocal

	planSvc = plans.NewService(store.GetMealPlanStore())
	dietSvc = dietplans.NewService(store.GetDietPlanItemStore())
	reportSvc = reports.NewService(store.GetDietPlanItemStore(), store.GetPlanReportStore(), blobStore, cfg.ReportsPresignTTL, log.Default())

	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Create Meal Plan", testCreateMealPlan},
		{"Add Day And Item", testAddDayAndItem},
		{"Update Plan Header", testUpdatePlanHeader},
		{"Search Plans", testSearchPlans},
		{"Create Diet Plan Items", testCreateDietPlanItems},
		{"Duplicate Rejected", testDuplicateRejected},
		{"Plan Summary", testPlanSummary},
		{"Duplicate Plan", testDuplicatePlan},
		{"Create Report (PDF)", testCreateReport},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
		{"Soft Delete Plan", testSoftDeletePlan},
		{"Delete Meal Plan", testDeleteMealPlan},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(ctx); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testCreateMealPlan(ctx context.Context) error {
	notes := "smoke test plan"
	plan, err := planSvc.CreatePlan(ctx, plans.CreatePlanRequest{
		PatientID: patientID,
		Title:     "Smoke Week",
		Notes:     &notes,
		Days: []plans.CreateDayInput{
			{
				DayIndex: 1,
				Items: []plans.ItemInput{
					{FoodID: 10, Quantity: 150, Unit: "g", MealType: "BREAKFAST"},
				},
			},
		},
	})
	if err != nil {
		return err
	}
	if len(plan.Days) != 1 || len(plan.Days[0].Items) != 1 {
		return fmt.Errorf("unexpected plan shape: %d days", len(plan.Days))
	}

	createdPlanID = plan.ID
	return nil
}

func testAddDayAndItem(ctx context.Context) error {
	item, err := planSvc.AddItem(ctx, createdPlanID, 3, plans.ItemInput{
		FoodID: 11, Quantity: 200, Unit: "g", MealType: "dinner",
	})
	if err != nil {
		return err
	}

	// Adding to the same day index must reuse the day.
	day, err := planSvc.AddOrGetDay(ctx, createdPlanID, 3)
	if err != nil {
		return err
	}
	if day.ID != item.DayID {
		return fmt.Errorf("day not reused: %d vs %d", day.ID, item.DayID)
	}

	return nil
}

func testUpdatePlanHeader(ctx context.Context) error {
	notes := "updated notes"
	plan, err := planSvc.UpdateHeader(ctx, createdPlanID, "  ", &notes)
	if err != nil {
		return err
	}
	if plan.Title != "Smoke Week" {
		return fmt.Errorf("blank title overwrote the plan title: %q", plan.Title)
	}
	if plan.Notes == nil || *plan.Notes != notes {
		return fmt.Errorf("notes not updated")
	}

	return nil
}

func testSearchPlans(ctx context.Context) error {
	found, err := planSvc.SearchPlans(ctx, patientID, "smoke")
	if err != nil {
		return err
	}
	if len(found) != 1 {
		return fmt.Errorf("search returned %d plans, want 1", len(found))
	}

	return nil
}

func testCreateDietPlanItems(ctx context.Context) error {
	cal := 300.0
	result, err := dietSvc.CreateBatch(ctx, []dietplans.CreateItemRequest{
		{PatientID: patientID, Title: "flat week", DayOfWeek: 1, MealType: "BREAKFAST", FoodID: 20, Quantity: 100, Unit: "g", Calories: &cal},
		{PatientID: patientID, Title: "flat week", DayOfWeek: 1, MealType: "LUNCH", FoodID: 21, Quantity: 250, Unit: "g", Calories: &cal},
	})
	if err != nil {
		return err
	}
	if result.Outcome != dietplans.BatchCreated {
		return fmt.Errorf("batch outcome = %s", result.Outcome)
	}

	return nil
}

func testDuplicateRejected(ctx context.Context) error {
	_, err := dietSvc.Create(ctx, dietplans.CreateItemRequest{
		PatientID: patientID, Title: "flat week", DayOfWeek: 1, MealType: "BREAKFAST", FoodID: 20, Quantity: 100, Unit: "g",
	})
	if err != dietplans.ErrDuplicateItem {
		return fmt.Errorf("expected duplicate rejection, got %v", err)
	}

	return nil
}

func testPlanSummary(ctx context.Context) error {
	s, err := dietSvc.GetPlanSummary(ctx, patientID, "flat week")
	if err != nil {
		return err
	}
	if s.Nutrition.TotalCalories != 600 {
		return fmt.Errorf("total calories = %v, want 600", s.Nutrition.TotalCalories)
	}

	return nil
}

func testDuplicatePlan(ctx context.Context) error {
	copies, err := dietSvc.DuplicatePlan(ctx, patientID, "flat week", "flat week copy")
	if err != nil {
		return err
	}
	if len(copies) != 2 {
		return fmt.Errorf("copied %d items, want 2", len(copies))
	}

	return nil
}

func testCreateReport(ctx context.Context) error {
	report, err := reportSvc.CreateReport(ctx, patientID, "flat week")
	if err != nil {
		return err
	}
	if report.Status != reports.StatusReady {
		return fmt.Errorf("report status = %s", report.Status)
	}

	return nil
}

func testDownloadReport(ctx context.Context) error {
	list, err := reportSvc.ListReports(ctx, patientID, 10, 0)
	if err != nil {
		return err
	}
	if len(list) != 1 {
		return fmt.Errorf("listed %d reports, want 1", len(list))
	}

	url, err := reportSvc.GetDownloadURL(ctx, list[0].ID, "http://localhost:8080")
	if err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("empty download URL")
	}

	if !reportDataAvailable {
		return nil
	}

	data, contentType, err := reportSvc.GetReportData(ctx, list[0].ID)
	if err != nil {
		return err
	}
	if contentType != "application/pdf" {
		return fmt.Errorf("content type = %s", contentType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return fmt.Errorf("report data is not a PDF")
	}

	return nil
}

func testDeleteReport(ctx context.Context) error {
	list, err := reportSvc.ListReports(ctx, patientID, 10, 0)
	if err != nil {
		return err
	}
	for _, r := range list {
		if err := reportSvc.DeleteReport(ctx, r.ID); err != nil {
			return err
		}
	}

	remaining, err := reportSvc.ListReports(ctx, patientID, 10, 0)
	if err != nil {
		return err
	}
	if len(remaining) != 0 {
		return fmt.Errorf("%d reports remain after delete", len(remaining))
	}

	return nil
}

func testSoftDeletePlan(ctx context.Context) error {
	if err := dietSvc.DeletePlan(ctx, patientID, "flat week"); err != nil {
		return err
	}

	items, err := dietSvc.FindPlanItems(ctx, patientID, "flat week")
	if err != nil {
		return err
	}
	if len(items) != 0 {
		return fmt.Errorf("%d active items remain", len(items))
	}

	titles, err := dietSvc.GetPlanTitles(ctx, patientID)
	if err != nil {
		return err
	}
	if len(titles) != 1 || titles[0] != "flat week copy" {
		return fmt.Errorf("titles = %v, want only the copy", titles)
	}

	// Leave no active items behind so the smoke reruns cleanly against a
	// persistent database.
	return dietSvc.DeletePlan(ctx, patientID, "flat week copy")
}

func testDeleteMealPlan(ctx context.Context) error {
	ok, err := planSvc.DeletePlan(ctx, createdPlanID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("plan %d not found", createdPlanID)
	}

	if _, err := planSvc.GetPlan(ctx, createdPlanID); err == nil {
		return fmt.Errorf("plan still readable after delete")
	}

	return nil
}
