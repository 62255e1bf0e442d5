package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hazelquimpo21/fam-app-sub002/internal/google"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

const (
	// refreshThreshold refreshes tokens that would expire mid-run.
	refreshThreshold = 5 * time.Minute

	syncWindowPast   = 7  // days
	syncWindowFuture = 60 // days

	maxEventsPerCalendar = 250
)

// CalendarProvider is the slice of the Google client the sync engine needs.
type CalendarProvider interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	ListEvents(ctx context.Context, token *oauth2.Token, calendarID string, from, to time.Time, maxResults int64) ([]google.Event, error)
}

type SyncResult struct {
	Synced        int
	Subscriptions int
}

type SyncService struct {
	connectionRepo   repository.ConnectionRepository
	subscriptionRepo repository.SubscriptionRepository
	eventRepo        repository.ExternalEventRepository
	provider         CalendarProvider

	// one lock per member: concurrent manual + scheduled syncs refreshing
	// the same token would race the provider into invalidating one of them
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSyncService(
	connectionRepo repository.ConnectionRepository,
	subscriptionRepo repository.SubscriptionRepository,
	eventRepo repository.ExternalEventRepository,
	provider CalendarProvider,
) *SyncService {
	return &SyncService{
		connectionRepo:   connectionRepo,
		subscriptionRepo: subscriptionRepo,
		eventRepo:        eventRepo,
		provider:         provider,
		locks:            make(map[string]*sync.Mutex),
	}
}

func (service *SyncService) memberLock(memberID string) *sync.Mutex {
	service.mu.Lock()
	defer service.mu.Unlock()

	lock, ok := service.locks[memberID]
	if !ok {
		lock = &sync.Mutex{}
		service.locks[memberID] = lock
	}
	return lock
}

// SyncMember pulls the member's active Google calendars into the external
// event cache. Each subscription's window is replaced atomically; a failure
// in one calendar never aborts the others.
func (service *SyncService) SyncMember(ctx context.Context, memberID string) (SyncResult, error) {
	lock := service.memberLock(memberID)
	lock.Lock()
	defer lock.Unlock()

	connection, err := service.connectionRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncResult{}, ErrNotConnected
		}
		return SyncResult{}, fmt.Errorf("loading connection: %w", err)
	}

	token, err := service.freshToken(ctx, &connection)
	if err != nil {
		return SyncResult{}, err
	}

	subscriptions, err := service.subscriptionRepo.FindActiveByConnectionID(ctx, connection.ID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("loading subscriptions: %w", err)
	}

	now := time.Now().UTC()
	if len(subscriptions) == 0 {
		if err := service.connectionRepo.MarkSynced(ctx, connection.ID, now); err != nil {
			slog.Warn("marking connection synced", "error", err)
		}
		return SyncResult{}, nil
	}

	windowStart := now.AddDate(0, 0, -syncWindowPast)
	windowEnd := now.AddDate(0, 0, syncWindowFuture)

	synced := 0
	for _, subscription := range subscriptions {
		events, err := service.provider.ListEvents(ctx, token, subscription.GoogleCalendarID, windowStart, windowEnd, maxEventsPerCalendar)
		if err != nil {
			slog.Warn("skipping calendar", "calendar", subscription.GoogleCalendarID, "error", err)
			continue
		}

		rows := normalizeEvents(subscription, events, now)
		if err := service.eventRepo.ReplaceWindow(ctx, subscription.ID, windowStart, windowEnd, rows); err != nil {
			slog.Error("replacing event window", "calendar", subscription.GoogleCalendarID, "error", err)
			continue
		}
		synced += len(rows)
	}

	if err := service.connectionRepo.MarkSynced(ctx, connection.ID, now); err != nil {
		slog.Warn("marking connection synced", "error", err)
	}

	return SyncResult{Synced: synced, Subscriptions: len(subscriptions)}, nil
}

// SyncAll runs a sweep over every connection; per-member failures are
// logged and never abort the sweep. Used by the scheduler.
func (service *SyncService) SyncAll(ctx context.Context) {
	connections, err := service.connectionRepo.FindAll(ctx)
	if err != nil {
		slog.Error("loading connections for sync sweep", "error", err)
		return
	}

	for _, connection := range connections {
		result, err := service.SyncMember(ctx, connection.MemberID)
		if err != nil {
			slog.Warn("scheduled sync failed", "member", connection.MemberID, "error", err)
			continue
		}
		slog.Info("scheduled sync complete", "member", connection.MemberID,
			"synced", result.Synced, "subscriptions", result.Subscriptions)
	}
}

func (service *SyncService) freshToken(ctx context.Context, connection *models.CalendarConnection) (*oauth2.Token, error) {
	if time.Until(connection.TokenExpiry) > refreshThreshold {
		return &oauth2.Token{
			AccessToken: connection.AccessToken,
			TokenType:   "Bearer",
			Expiry:      connection.TokenExpiry,
		}, nil
	}

	if connection.RefreshToken == nil || *connection.RefreshToken == "" {
		if err := service.connectionRepo.RecordError(ctx, connection.ID, "Google Calendar access expired, please reconnect"); err != nil {
			slog.Warn("recording connection error", "error", err)
		}
		return nil, ErrAuthExpired
	}

	token, err := service.provider.Refresh(ctx, *connection.RefreshToken)
	if err != nil {
		if recordErr := service.connectionRepo.RecordError(ctx, connection.ID, "token refresh failed"); recordErr != nil {
			slog.Warn("recording connection error", "error", recordErr)
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	// Google often omits the refresh token on refresh responses; nil here
	// keeps the stored one.
	var newRefresh *string
	if token.RefreshToken != "" {
		newRefresh = &token.RefreshToken
	}
	if err := service.connectionRepo.UpdateTokens(ctx, connection.ID, token.AccessToken, newRefresh, token.Expiry.UTC()); err != nil {
		return nil, fmt.Errorf("storing refreshed token: %w", err)
	}

	connection.AccessToken = token.AccessToken
	connection.TokenExpiry = token.Expiry.UTC()
	return token, nil
}

func normalizeEvents(subscription models.CalendarSubscription, events []google.Event, fetchedAt time.Time) []models.ExternalEvent {
	var rows []models.ExternalEvent
	for _, event := range events {
		// an event the provider gives us no start for cannot be placed in
		// the window
		if event.Start.IsZero() {
			continue
		}
		title := event.Title
		if title == "" {
			title = "(No title)"
		}
		rows = append(rows, models.ExternalEvent{
			SubscriptionID:  subscription.ID,
			GoogleEventID:   event.ID,
			Title:           title,
			Description:     event.Description,
			Location:        event.Location,
			StartTime:       event.Start,
			EndTime:         event.End,
			AllDay:          event.AllDay,
			Timezone:        event.Timezone,
			Color:           subscription.Color,
			RemoteUpdatedAt: event.Updated,
			FetchedAt:       fetchedAt,
		})
	}
	return rows
}
