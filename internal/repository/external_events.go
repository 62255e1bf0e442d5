package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type ExternalEventRepository interface {
	// ReplaceWindow deletes every cached row of the subscription whose
	// start falls in [from, to) and inserts the fresh set, all in one
	// transaction, so no reader ever sees two generations of a window.
	ReplaceWindow(ctx context.Context, subscriptionID string, from, to time.Time, events []models.ExternalEvent) error
	FindBySubscriptionInRange(ctx context.Context, subscriptionID string, from, to time.Time) ([]models.ExternalEvent, error)
	// FindVisibleInRange returns cached rows of the family's active
	// subscriptions that the viewer may see, honoring each subscription's
	// visibility scope.
	FindVisibleInRange(ctx context.Context, familyID string, viewer models.Member, from, to time.Time) ([]ExternalEventRow, error)
}

// ExternalEventRow is a cache row joined with its subscription's display
// name and color for timeline rendering.
type ExternalEventRow struct {
	models.ExternalEvent
	CalendarName  string
	CalendarColor string
}

type SQLiteExternalEventRepository struct {
	database *sql.DB
}

func NewExternalEventRepository(database *sql.DB) *SQLiteExternalEventRepository {
	return &SQLiteExternalEventRepository{database: database}
}

const externalEventColumns = `id, subscription_id, google_event_id, title, description, location,
	start_time, end_time, all_day, timezone, color, remote_updated_at, fetched_at`

func scanExternalEvent(row interface{ Scan(...any) error }, event *models.ExternalEvent, extra ...any) error {
	targets := []any{
		&event.ID, &event.SubscriptionID, &event.GoogleEventID,
		&event.Title, &event.Description, &event.Location,
		&event.StartTime, &event.EndTime, &event.AllDay, &event.Timezone,
		&event.Color, &event.RemoteUpdatedAt, &event.FetchedAt,
	}
	targets = append(targets, extra...)
	return row.Scan(targets...)
}

func (repository *SQLiteExternalEventRepository) ReplaceWindow(ctx context.Context, subscriptionID string, from, to time.Time, events []models.ExternalEvent) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning window replace: %w", err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx,
		`DELETE FROM external_events WHERE subscription_id = ? AND start_time >= ? AND start_time < ?`,
		subscriptionID, from, to,
	); err != nil {
		return fmt.Errorf("clearing event window: %w", err)
	}

	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.New().String()
		}
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO external_events (id, subscription_id, google_event_id, title, description, location,
				start_time, end_time, all_day, timezone, color, remote_updated_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, subscriptionID, event.GoogleEventID,
			event.Title, event.Description, event.Location,
			event.StartTime, event.EndTime, event.AllDay, event.Timezone,
			event.Color, event.RemoteUpdatedAt, event.FetchedAt,
		); err != nil {
			return fmt.Errorf("inserting external event %q: %w", event.GoogleEventID, err)
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing window replace: %w", err)
	}
	return nil
}

func (repository *SQLiteExternalEventRepository) FindBySubscriptionInRange(ctx context.Context, subscriptionID string, from, to time.Time) ([]models.ExternalEvent, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT `+externalEventColumns+` FROM external_events
		WHERE subscription_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC`,
		subscriptionID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("finding external events: %w", err)
	}
	defer rows.Close()

	var events []models.ExternalEvent
	for rows.Next() {
		var event models.ExternalEvent
		if err := scanExternalEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("scanning external event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (repository *SQLiteExternalEventRepository) FindVisibleInRange(ctx context.Context, familyID string, viewer models.Member, from, to time.Time) ([]ExternalEventRow, error) {
	query := `SELECT e.id, e.subscription_id, e.google_event_id, e.title, e.description, e.location,
			e.start_time, e.end_time, e.all_day, e.timezone, e.color, e.remote_updated_at, e.fetched_at,
			s.name, s.color
		FROM external_events e
		JOIN calendar_subscriptions s ON s.id = e.subscription_id
		JOIN calendar_connections c ON c.id = s.connection_id
		WHERE c.family_id = ? AND s.active = 1
		AND e.start_time >= ? AND e.start_time < ?
		AND (s.visibility = 'family'
			OR c.member_id = ?
			OR (s.visibility = 'adults' AND ? = 'adult'))
		ORDER BY e.start_time ASC`

	rows, err := repository.database.QueryContext(ctx, query,
		familyID, from, to, viewer.ID, string(viewer.Role))
	if err != nil {
		return nil, fmt.Errorf("finding visible external events: %w", err)
	}
	defer rows.Close()

	var results []ExternalEventRow
	for rows.Next() {
		var row ExternalEventRow
		if err := scanExternalEvent(rows, &row.ExternalEvent, &row.CalendarName, &row.CalendarColor); err != nil {
			return nil, fmt.Errorf("scanning visible external event: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
