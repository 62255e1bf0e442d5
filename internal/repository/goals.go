package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type GoalRepository interface {
	// FindActiveWithTarget returns active goals whose target date falls in
	// [from, to). A non-nil member keeps that member's goals plus
	// family-wide ones.
	FindActiveWithTarget(ctx context.Context, familyID string, from, to time.Time, memberID *string) ([]models.Goal, error)
	Create(ctx context.Context, goal models.Goal) (models.Goal, error)
	Update(ctx context.Context, goal models.Goal) error
	Delete(ctx context.Context, id string) error
}

type SQLiteGoalRepository struct {
	database *sql.DB
}

func NewGoalRepository(database *sql.DB) *SQLiteGoalRepository {
	return &SQLiteGoalRepository{database: database}
}

func (repository *SQLiteGoalRepository) FindActiveWithTarget(ctx context.Context, familyID string, from, to time.Time, memberID *string) ([]models.Goal, error) {
	query := `SELECT id, family_id, title, status, member_id, target_date, created_at, updated_at
		FROM goals
		WHERE family_id = ? AND status = ? AND target_date >= ? AND target_date < ?`
	args := []any{familyID, models.GoalStatusActive, from, to}

	if memberID != nil {
		query += " AND (member_id = ? OR member_id IS NULL)"
		args = append(args, *memberID)
	}

	query += " ORDER BY target_date ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding active goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(&goal.ID, &goal.FamilyID, &goal.Title, &goal.Status,
			&goal.MemberID, &goal.TargetDate, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (repository *SQLiteGoalRepository) Create(ctx context.Context, goal models.Goal) (models.Goal, error) {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.Status == "" {
		goal.Status = models.GoalStatusActive
	}
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO goals (id, family_id, title, status, member_id, target_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.FamilyID, goal.Title, goal.Status,
		goal.MemberID, goal.TargetDate, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return models.Goal{}, fmt.Errorf("creating goal: %w", err)
	}
	return goal, nil
}

func (repository *SQLiteGoalRepository) Update(ctx context.Context, goal models.Goal) error {
	goal.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`UPDATE goals SET title = ?, status = ?, member_id = ?, target_date = ?, updated_at = ? WHERE id = ?`,
		goal.Title, goal.Status, goal.MemberID, goal.TargetDate, goal.UpdatedAt, goal.ID,
	)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return nil
}

func (repository *SQLiteGoalRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return nil
}
