package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/testutil"
)

func TestSubscriptionRepository_ReplaceForConnection(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)

	err := subscriptionRepo.ReplaceForConnection(ctx, connection.ID, []models.CalendarSubscription{
		{GoogleCalendarID: "primary", Name: "Personal", Color: "#4285F4", Active: true},
		{GoogleCalendarID: "work@group.calendar.google.com", Name: "Work", Color: "#0B8043"},
	})
	if err != nil {
		t.Fatalf("replacing subscriptions: %v", err)
	}

	subscriptions, err := subscriptionRepo.FindByConnectionID(ctx, connection.ID)
	if err != nil {
		t.Fatalf("finding subscriptions: %v", err)
	}
	if len(subscriptions) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subscriptions))
	}
	for _, subscription := range subscriptions {
		if subscription.Visibility != models.VisibilityFamily {
			t.Errorf("expected default visibility 'family', got '%s'", subscription.Visibility)
		}
	}

	// a reconnect replaces the previous set wholesale
	err = subscriptionRepo.ReplaceForConnection(ctx, connection.ID, []models.CalendarSubscription{
		{GoogleCalendarID: "primary", Name: "Personal", Color: "#4285F4", Active: true},
	})
	if err != nil {
		t.Fatalf("replacing subscriptions again: %v", err)
	}

	subscriptions, _ = subscriptionRepo.FindByConnectionID(ctx, connection.ID)
	if len(subscriptions) != 1 {
		t.Fatalf("expected 1 subscription after replace, got %d", len(subscriptions))
	}
	if subscriptions[0].GoogleCalendarID != "primary" {
		t.Errorf("expected 'primary', got '%s'", subscriptions[0].GoogleCalendarID)
	}
}

func TestSubscriptionRepository_ReplaceCascadesCachedEvents(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewExternalEventRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)
	subscription := createTestSubscription(t, db, connection.ID, "primary")

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	err := eventRepo.ReplaceWindow(ctx, subscription.ID, from, to, []models.ExternalEvent{{
		GoogleEventID: "evt-1",
		Title:         "Standup",
		StartTime:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		FetchedAt:     time.Now(),
	}})
	if err != nil {
		t.Fatalf("caching event: %v", err)
	}

	err = subscriptionRepo.ReplaceForConnection(ctx, connection.ID, []models.CalendarSubscription{
		{GoogleCalendarID: "other", Name: "Other", Color: "#4285F4"},
	})
	if err != nil {
		t.Fatalf("replacing subscriptions: %v", err)
	}

	events, err := eventRepo.FindBySubscriptionInRange(ctx, subscription.ID, from, to)
	if err != nil {
		t.Fatalf("finding events after replace: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected cached events removed with their subscription, got %d", len(events))
	}
}

func TestSubscriptionRepository_FindActiveFiltersInactive(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)

	err := subscriptionRepo.ReplaceForConnection(ctx, connection.ID, []models.CalendarSubscription{
		{GoogleCalendarID: "primary", Name: "Personal", Color: "#4285F4", Active: true},
		{GoogleCalendarID: "holidays", Name: "Holidays", Color: "#0B8043", Active: false},
	})
	if err != nil {
		t.Fatalf("replacing subscriptions: %v", err)
	}

	active, err := subscriptionRepo.FindActiveByConnectionID(ctx, connection.ID)
	if err != nil {
		t.Fatalf("finding active subscriptions: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active subscription, got %d", len(active))
	}
	if active[0].GoogleCalendarID != "primary" {
		t.Errorf("expected 'primary', got '%s'", active[0].GoogleCalendarID)
	}
}

func TestSubscriptionRepository_Update(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)
	subscription := createTestSubscription(t, db, connection.ID, "primary")

	subscription.Visibility = models.VisibilityAdults
	subscription.Active = false
	subscription.Color = "#EC4899"
	if err := subscriptionRepo.Update(ctx, subscription); err != nil {
		t.Fatalf("updating subscription: %v", err)
	}

	found, err := subscriptionRepo.FindByID(ctx, subscription.ID)
	if err != nil {
		t.Fatalf("finding subscription: %v", err)
	}
	if found.Visibility != models.VisibilityAdults {
		t.Errorf("expected visibility 'adults', got '%s'", found.Visibility)
	}
	if found.Active {
		t.Error("expected subscription inactive")
	}
	if found.Color != "#EC4899" {
		t.Errorf("expected color '#EC4899', got '%s'", found.Color)
	}
}
