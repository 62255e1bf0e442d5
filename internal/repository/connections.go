package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type ConnectionRepository interface {
	FindByMemberID(ctx context.Context, memberID string) (models.CalendarConnection, error)
	FindAll(ctx context.Context) ([]models.CalendarConnection, error)
	// Upsert creates or replaces the member's connection. A nil incoming
	// refresh token keeps the stored one: Google omits the refresh token on
	// re-consent and on refresh responses, and it must never be lost.
	Upsert(ctx context.Context, connection models.CalendarConnection) (models.CalendarConnection, error)
	UpdateTokens(ctx context.Context, id, accessToken string, refreshToken *string, expiry time.Time) error
	RecordError(ctx context.Context, id, message string) error
	MarkSynced(ctx context.Context, id string, at time.Time) error
	DeleteByMemberID(ctx context.Context, memberID string) error
}

type SQLiteConnectionRepository struct {
	database *sql.DB
}

func NewConnectionRepository(database *sql.DB) *SQLiteConnectionRepository {
	return &SQLiteConnectionRepository{database: database}
}

const connectionColumns = `id, family_id, member_id, google_account_id, google_email, access_token,
	refresh_token, token_expiry, scopes, last_synced_at, last_sync_error, created_at, updated_at`

func scanConnection(row interface{ Scan(...any) error }) (models.CalendarConnection, error) {
	var connection models.CalendarConnection
	err := row.Scan(
		&connection.ID, &connection.FamilyID, &connection.MemberID,
		&connection.GoogleAccountID, &connection.GoogleEmail, &connection.AccessToken,
		&connection.RefreshToken, &connection.TokenExpiry, &connection.Scopes,
		&connection.LastSyncedAt, &connection.LastSyncError,
		&connection.CreatedAt, &connection.UpdatedAt,
	)
	return connection, err
}

func (repository *SQLiteConnectionRepository) FindByMemberID(ctx context.Context, memberID string) (models.CalendarConnection, error) {
	connection, err := scanConnection(repository.database.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM calendar_connections WHERE member_id = ?`, memberID))
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("finding connection by member: %w", err)
	}
	return connection, nil
}

func (repository *SQLiteConnectionRepository) FindAll(ctx context.Context) ([]models.CalendarConnection, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM calendar_connections ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("finding all connections: %w", err)
	}
	defer rows.Close()

	var connections []models.CalendarConnection
	for rows.Next() {
		connection, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		connections = append(connections, connection)
	}
	return connections, rows.Err()
}

func (repository *SQLiteConnectionRepository) Upsert(ctx context.Context, connection models.CalendarConnection) (models.CalendarConnection, error) {
	if connection.ID == "" {
		connection.ID = uuid.New().String()
	}
	now := time.Now()
	connection.CreatedAt = now
	connection.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO calendar_connections (id, family_id, member_id, google_account_id, google_email,
			access_token, refresh_token, token_expiry, scopes, last_synced_at, last_sync_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)
		ON CONFLICT (member_id) DO UPDATE SET
			google_account_id = excluded.google_account_id,
			google_email = excluded.google_email,
			access_token = excluded.access_token,
			refresh_token = COALESCE(excluded.refresh_token, calendar_connections.refresh_token),
			token_expiry = excluded.token_expiry,
			scopes = excluded.scopes,
			last_sync_error = NULL,
			updated_at = excluded.updated_at`,
		connection.ID, connection.FamilyID, connection.MemberID,
		connection.GoogleAccountID, connection.GoogleEmail,
		connection.AccessToken, connection.RefreshToken, connection.TokenExpiry,
		connection.Scopes, connection.CreatedAt, connection.UpdatedAt,
	)
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("upserting connection: %w", err)
	}

	return repository.FindByMemberID(ctx, connection.MemberID)
}

func (repository *SQLiteConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken string, refreshToken *string, expiry time.Time) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE calendar_connections SET access_token = ?,
			refresh_token = COALESCE(?, refresh_token),
			token_expiry = ?, updated_at = ?
		WHERE id = ?`,
		accessToken, refreshToken, expiry, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating connection tokens: %w", err)
	}
	return nil
}

func (repository *SQLiteConnectionRepository) RecordError(ctx context.Context, id, message string) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE calendar_connections SET last_sync_error = ?, updated_at = ? WHERE id = ?`,
		message, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("recording connection error: %w", err)
	}
	return nil
}

func (repository *SQLiteConnectionRepository) MarkSynced(ctx context.Context, id string, at time.Time) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE calendar_connections SET last_synced_at = ?, last_sync_error = NULL, updated_at = ? WHERE id = ?`,
		at, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("marking connection synced: %w", err)
	}
	return nil
}

func (repository *SQLiteConnectionRepository) DeleteByMemberID(ctx context.Context, memberID string) error {
	_, err := repository.database.ExecContext(ctx,
		`DELETE FROM calendar_connections WHERE member_id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return nil
}
