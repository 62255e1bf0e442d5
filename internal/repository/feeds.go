package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type FeedRepository interface {
	Create(ctx context.Context, feed models.CalendarFeed) (models.CalendarFeed, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (models.CalendarFeed, error)
	FindByFamilyID(ctx context.Context, familyID string) ([]models.CalendarFeed, error)
	// TouchAccess bumps the access counter and last-accessed timestamp.
	// Callers treat failures as best-effort.
	TouchAccess(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type SQLiteFeedRepository struct {
	database *sql.DB
}

func NewFeedRepository(database *sql.DB) *SQLiteFeedRepository {
	return &SQLiteFeedRepository{database: database}
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

const feedColumns = `id, family_id, member_id, name, token_hash, include_tasks, include_meals,
	include_goals, include_events, include_birthdays, last_accessed_at, access_count, created_at`

func scanFeed(row interface{ Scan(...any) error }) (models.CalendarFeed, error) {
	var feed models.CalendarFeed
	err := row.Scan(
		&feed.ID, &feed.FamilyID, &feed.MemberID, &feed.Name, &feed.TokenHash,
		&feed.IncludeTasks, &feed.IncludeMeals, &feed.IncludeGoals,
		&feed.IncludeEvents, &feed.IncludeBirthdays,
		&feed.LastAccessedAt, &feed.AccessCount, &feed.CreatedAt,
	)
	return feed, err
}

func (repository *SQLiteFeedRepository) Create(ctx context.Context, feed models.CalendarFeed) (models.CalendarFeed, error) {
	if feed.ID == "" {
		feed.ID = uuid.New().String()
	}
	feed.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO calendar_feeds (id, family_id, member_id, name, token_hash, include_tasks, include_meals,
			include_goals, include_events, include_birthdays, access_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		feed.ID, feed.FamilyID, feed.MemberID, feed.Name, feed.TokenHash,
		feed.IncludeTasks, feed.IncludeMeals, feed.IncludeGoals,
		feed.IncludeEvents, feed.IncludeBirthdays, feed.CreatedAt,
	)
	if err != nil {
		return models.CalendarFeed{}, fmt.Errorf("creating calendar feed: %w", err)
	}
	return feed, nil
}

func (repository *SQLiteFeedRepository) FindByTokenHash(ctx context.Context, tokenHash string) (models.CalendarFeed, error) {
	feed, err := scanFeed(repository.database.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM calendar_feeds WHERE token_hash = ?`, tokenHash))
	if err != nil {
		return models.CalendarFeed{}, fmt.Errorf("finding feed by token hash: %w", err)
	}
	return feed, nil
}

func (repository *SQLiteFeedRepository) FindByFamilyID(ctx context.Context, familyID string) ([]models.CalendarFeed, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM calendar_feeds WHERE family_id = ? ORDER BY created_at DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("finding feeds by family: %w", err)
	}
	defer rows.Close()

	var feeds []models.CalendarFeed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (repository *SQLiteFeedRepository) TouchAccess(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE calendar_feeds SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("recording feed access: %w", err)
	}
	return nil
}

func (repository *SQLiteFeedRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM calendar_feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}
	return nil
}
