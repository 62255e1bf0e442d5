package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type MealPlanRepository interface {
	// FindRange returns meal plans with date in [fromDate, toDate], both
	// inclusive, dates formatted YYYY-MM-DD.
	FindRange(ctx context.Context, familyID, fromDate, toDate string) ([]models.MealPlan, error)
	Upsert(ctx context.Context, meal models.MealPlan) error
	Delete(ctx context.Context, familyID, date string, mealType models.MealType) error
}

type SQLiteMealPlanRepository struct {
	database *sql.DB
}

func NewMealPlanRepository(database *sql.DB) *SQLiteMealPlanRepository {
	return &SQLiteMealPlanRepository{database: database}
}

func (repository *SQLiteMealPlanRepository) FindRange(ctx context.Context, familyID, fromDate, toDate string) ([]models.MealPlan, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT family_id, date, meal_type, name, notes, created_by_member_id, created_at, updated_at
		FROM meal_plans WHERE family_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, meal_type ASC`,
		familyID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("finding meal plans: %w", err)
	}
	defer rows.Close()

	var meals []models.MealPlan
	for rows.Next() {
		var meal models.MealPlan
		if err := rows.Scan(&meal.FamilyID, &meal.Date, &meal.MealType, &meal.Name,
			&meal.Notes, &meal.CreatedByMemberID, &meal.CreatedAt, &meal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning meal plan: %w", err)
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (repository *SQLiteMealPlanRepository) Upsert(ctx context.Context, meal models.MealPlan) error {
	now := time.Now()
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO meal_plans (family_id, date, meal_type, name, notes, created_by_member_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (family_id, date, meal_type) DO UPDATE SET
			name = excluded.name, notes = excluded.notes, updated_at = excluded.updated_at`,
		meal.FamilyID, meal.Date, meal.MealType, meal.Name, meal.Notes,
		meal.CreatedByMemberID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting meal plan: %w", err)
	}
	return nil
}

func (repository *SQLiteMealPlanRepository) Delete(ctx context.Context, familyID, date string, mealType models.MealType) error {
	_, err := repository.database.ExecContext(ctx,
		`DELETE FROM meal_plans WHERE family_id = ? AND date = ? AND meal_type = ?`,
		familyID, date, mealType,
	)
	if err != nil {
		return fmt.Errorf("deleting meal plan: %w", err)
	}
	return nil
}
