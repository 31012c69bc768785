package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihouse/diet-service/internal/storage"
)

// PostgresStorage — Postgres реализация всех store-интерфейсов
type PostgresStorage struct {
	pool          *pgxpool.Pool
	mealPlans     *mealPlanStore
	dietPlanItems *dietPlanItemStore
	planReports   *planReportStore
}

// New создаёт PostgresStorage и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{
		pool:          pool,
		mealPlans:     newMealPlanStore(pool),
		dietPlanItems: newDietPlanItemStore(pool),
		planReports:   newPlanReportStore(pool),
	}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// GetMealPlanStore returns the meal plan store.
func (p *PostgresStorage) GetMealPlanStore() storage.MealPlanStore {
	return p.mealPlans
}

// GetDietPlanItemStore returns the diet plan item store.
func (p *PostgresStorage) GetDietPlanItemStore() storage.DietPlanItemStore {
	return p.dietPlanItems
}

// GetPlanReportStore returns the plan report store.
func (p *PostgresStorage) GetPlanReportStore() storage.PlanReportStore {
	return p.planReports
}
