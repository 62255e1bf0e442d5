package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type TaskRepository interface {
	FindByID(ctx context.Context, id string) (models.Task, error)
	// FindScheduled returns open tasks whose due or scheduled date falls in
	// [from, to). A non-nil assignee keeps that member's tasks plus
	// unassigned ones.
	FindScheduled(ctx context.Context, familyID string, from, to time.Time, assignee *string) ([]models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id string) error
}

type SQLiteTaskRepository struct {
	database *sql.DB
}

func NewTaskRepository(database *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{database: database}
}

const taskColumns = `id, family_id, title, notes, status, assignee_id, due_date, scheduled_date, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.FamilyID, &task.Title, &task.Notes, &task.Status,
		&task.AssigneeID, &task.DueDate, &task.ScheduledDate, &task.CreatedAt, &task.UpdatedAt,
	)
	return task, err
}

func (repository *SQLiteTaskRepository) FindByID(ctx context.Context, id string) (models.Task, error) {
	task, err := scanTask(repository.database.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return models.Task{}, fmt.Errorf("finding task by id: %w", err)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) FindScheduled(ctx context.Context, familyID string, from, to time.Time, assignee *string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE family_id = ? AND status = ?
		AND ((due_date >= ? AND due_date < ?) OR (scheduled_date >= ? AND scheduled_date < ?))`
	args := []any{familyID, models.TaskStatusOpen, from, to, from, to}

	if assignee != nil {
		query += " AND (assignee_id = ? OR assignee_id IS NULL)"
		args = append(args, *assignee)
	}

	query += " ORDER BY COALESCE(due_date, scheduled_date) ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (repository *SQLiteTaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO tasks (id, family_id, title, notes, status, assignee_id, due_date, scheduled_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.FamilyID, task.Title, task.Notes, task.Status,
		task.AssigneeID, task.DueDate, task.ScheduledDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) Update(ctx context.Context, task models.Task) error {
	task.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`UPDATE tasks SET title = ?, notes = ?, status = ?, assignee_id = ?, due_date = ?, scheduled_date = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Notes, task.Status, task.AssigneeID,
		task.DueDate, task.ScheduledDate, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (repository *SQLiteTaskRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}
