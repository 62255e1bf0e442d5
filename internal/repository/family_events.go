package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type FamilyEventFilter struct {
	StartAfter  *time.Time
	StartBefore *time.Time
	// AssigneeOrUnassigned keeps events assigned to the given member plus
	// events with no assignee at all.
	AssigneeOrUnassigned *string
}

type FamilyEventRepository interface {
	FindByID(ctx context.Context, id string) (models.FamilyEvent, error)
	FindByFamilyID(ctx context.Context, familyID string, filter FamilyEventFilter) ([]models.FamilyEvent, error)
	Create(ctx context.Context, event models.FamilyEvent) (models.FamilyEvent, error)
	Update(ctx context.Context, event models.FamilyEvent) error
	Delete(ctx context.Context, id string) error
}

type SQLiteFamilyEventRepository struct {
	database *sql.DB
}

func NewFamilyEventRepository(database *sql.DB) *SQLiteFamilyEventRepository {
	return &SQLiteFamilyEventRepository{database: database}
}

const familyEventColumns = `id, family_id, title, description, location, start_time, end_time, all_day,
	timezone, assignee_id, color, icon, recurrence_rule, created_by_member_id, created_at, updated_at`

func scanFamilyEvent(row interface{ Scan(...any) error }) (models.FamilyEvent, error) {
	var event models.FamilyEvent
	err := row.Scan(
		&event.ID, &event.FamilyID, &event.Title, &event.Description, &event.Location,
		&event.StartTime, &event.EndTime, &event.AllDay, &event.Timezone,
		&event.AssigneeID, &event.Color, &event.Icon, &event.RecurrenceRule,
		&event.CreatedByMemberID, &event.CreatedAt, &event.UpdatedAt,
	)
	return event, err
}

func (repository *SQLiteFamilyEventRepository) FindByID(ctx context.Context, id string) (models.FamilyEvent, error) {
	event, err := scanFamilyEvent(repository.database.QueryRowContext(ctx,
		`SELECT `+familyEventColumns+` FROM family_events WHERE id = ?`, id))
	if err != nil {
		return models.FamilyEvent{}, fmt.Errorf("finding family event by id: %w", err)
	}
	return event, nil
}

func (repository *SQLiteFamilyEventRepository) FindByFamilyID(ctx context.Context, familyID string, filter FamilyEventFilter) ([]models.FamilyEvent, error) {
	query := `SELECT ` + familyEventColumns + ` FROM family_events WHERE family_id = ?`
	args := []any{familyID}

	if filter.StartAfter != nil {
		query += " AND start_time >= ?"
		args = append(args, *filter.StartAfter)
	}
	if filter.StartBefore != nil {
		query += " AND start_time < ?"
		args = append(args, *filter.StartBefore)
	}
	if filter.AssigneeOrUnassigned != nil {
		query += " AND (assignee_id = ? OR assignee_id IS NULL)"
		args = append(args, *filter.AssigneeOrUnassigned)
	}

	query += " ORDER BY start_time ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding family events: %w", err)
	}
	defer rows.Close()

	var events []models.FamilyEvent
	for rows.Next() {
		event, err := scanFamilyEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning family event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (repository *SQLiteFamilyEventRepository) Create(ctx context.Context, event models.FamilyEvent) (models.FamilyEvent, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO family_events (id, family_id, title, description, location, start_time, end_time, all_day,
			timezone, assignee_id, color, icon, recurrence_rule, created_by_member_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.FamilyID, event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime, event.AllDay, event.Timezone,
		event.AssigneeID, event.Color, event.Icon, event.RecurrenceRule,
		event.CreatedByMemberID, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return models.FamilyEvent{}, fmt.Errorf("creating family event: %w", err)
	}
	return event, nil
}

func (repository *SQLiteFamilyEventRepository) Update(ctx context.Context, event models.FamilyEvent) error {
	event.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`UPDATE family_events SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
			all_day = ?, timezone = ?, assignee_id = ?, color = ?, icon = ?, recurrence_rule = ?, updated_at = ?
		WHERE id = ?`,
		event.Title, event.Description, event.Location, event.StartTime, event.EndTime,
		event.AllDay, event.Timezone, event.AssigneeID, event.Color, event.Icon,
		event.RecurrenceRule, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("updating family event: %w", err)
	}
	return nil
}

func (repository *SQLiteFamilyEventRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM family_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting family event: %w", err)
	}
	return nil
}
