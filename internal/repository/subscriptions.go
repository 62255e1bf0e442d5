package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type SubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (models.CalendarSubscription, error)
	FindByConnectionID(ctx context.Context, connectionID string) ([]models.CalendarSubscription, error)
	FindActiveByConnectionID(ctx context.Context, connectionID string) ([]models.CalendarSubscription, error)
	// ReplaceForConnection deletes every subscription of the connection and
	// inserts the given set in one transaction. Cached external events go
	// with the deleted subscriptions via FK cascade.
	ReplaceForConnection(ctx context.Context, connectionID string, subscriptions []models.CalendarSubscription) error
	Update(ctx context.Context, subscription models.CalendarSubscription) error
}

type SQLiteSubscriptionRepository struct {
	database *sql.DB
}

func NewSubscriptionRepository(database *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{database: database}
}

const subscriptionColumns = `id, connection_id, google_calendar_id, name, color, visibility, active, created_at`

func scanSubscription(row interface{ Scan(...any) error }) (models.CalendarSubscription, error) {
	var subscription models.CalendarSubscription
	err := row.Scan(
		&subscription.ID, &subscription.ConnectionID, &subscription.GoogleCalendarID,
		&subscription.Name, &subscription.Color, &subscription.Visibility,
		&subscription.Active, &subscription.CreatedAt,
	)
	return subscription, err
}

func (repository *SQLiteSubscriptionRepository) FindByID(ctx context.Context, id string) (models.CalendarSubscription, error) {
	subscription, err := scanSubscription(repository.database.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM calendar_subscriptions WHERE id = ?`, id))
	if err != nil {
		return models.CalendarSubscription{}, fmt.Errorf("finding subscription by id: %w", err)
	}
	return subscription, nil
}

func (repository *SQLiteSubscriptionRepository) FindByConnectionID(ctx context.Context, connectionID string) ([]models.CalendarSubscription, error) {
	return repository.find(ctx,
		`SELECT `+subscriptionColumns+` FROM calendar_subscriptions WHERE connection_id = ? ORDER BY created_at ASC`,
		connectionID)
}

func (repository *SQLiteSubscriptionRepository) FindActiveByConnectionID(ctx context.Context, connectionID string) ([]models.CalendarSubscription, error) {
	return repository.find(ctx,
		`SELECT `+subscriptionColumns+` FROM calendar_subscriptions WHERE connection_id = ? AND active = 1 ORDER BY created_at ASC`,
		connectionID)
}

func (repository *SQLiteSubscriptionRepository) find(ctx context.Context, query string, args ...any) ([]models.CalendarSubscription, error) {
	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []models.CalendarSubscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}

func (repository *SQLiteSubscriptionRepository) ReplaceForConnection(ctx context.Context, connectionID string, subscriptions []models.CalendarSubscription) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning subscription replace: %w", err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx,
		`DELETE FROM calendar_subscriptions WHERE connection_id = ?`, connectionID); err != nil {
		return fmt.Errorf("clearing subscriptions: %w", err)
	}

	for _, subscription := range subscriptions {
		if subscription.ID == "" {
			subscription.ID = uuid.New().String()
		}
		if subscription.Visibility == "" {
			subscription.Visibility = models.VisibilityFamily
		}
		subscription.CreatedAt = time.Now()

		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO calendar_subscriptions (id, connection_id, google_calendar_id, name, color, visibility, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			subscription.ID, connectionID, subscription.GoogleCalendarID,
			subscription.Name, subscription.Color, subscription.Visibility,
			subscription.Active, subscription.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting subscription %q: %w", subscription.GoogleCalendarID, err)
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing subscription replace: %w", err)
	}
	return nil
}

func (repository *SQLiteSubscriptionRepository) Update(ctx context.Context, subscription models.CalendarSubscription) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE calendar_subscriptions SET name = ?, color = ?, visibility = ?, active = ? WHERE id = ?`,
		subscription.Name, subscription.Color, subscription.Visibility, subscription.Active, subscription.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	return nil
}
