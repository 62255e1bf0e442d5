package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/testutil"
)

func TestExternalEventRepository_ReplaceWindow(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	eventRepo := repository.NewExternalEventRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)
	subscription := createTestSubscription(t, db, connection.ID, "primary")

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	err := eventRepo.ReplaceWindow(ctx, subscription.ID, from, to, []models.ExternalEvent{
		{GoogleEventID: "evt-1", Title: "Standup", StartTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), FetchedAt: time.Now()},
		{GoogleEventID: "evt-2", Title: "Dentist", StartTime: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC), FetchedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("replacing window: %v", err)
	}

	// the second sync replaces the window with exactly the fresh set
	err = eventRepo.ReplaceWindow(ctx, subscription.ID, from, to, []models.ExternalEvent{
		{GoogleEventID: "evt-1", Title: "Standup (moved)", StartTime: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), FetchedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("replacing window again: %v", err)
	}

	events, err := eventRepo.FindBySubscriptionInRange(ctx, subscription.ID, from, to)
	if err != nil {
		t.Fatalf("finding events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after replace, got %d", len(events))
	}
	if events[0].Title != "Standup (moved)" {
		t.Errorf("expected 'Standup (moved)', got '%s'", events[0].Title)
	}
}

func TestExternalEventRepository_ReplaceWindowLeavesOtherWindows(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	eventRepo := repository.NewExternalEventRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)
	subscription := createTestSubscription(t, db, connection.ID, "primary")

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := march.AddDate(0, 1, 0)
	may := april.AddDate(0, 1, 0)

	err := eventRepo.ReplaceWindow(ctx, subscription.ID, march, april, []models.ExternalEvent{
		{GoogleEventID: "evt-march", Title: "March Event", StartTime: march.AddDate(0, 0, 5), FetchedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("replacing march window: %v", err)
	}

	err = eventRepo.ReplaceWindow(ctx, subscription.ID, april, may, []models.ExternalEvent{
		{GoogleEventID: "evt-april", Title: "April Event", StartTime: april.AddDate(0, 0, 5), FetchedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("replacing april window: %v", err)
	}

	events, err := eventRepo.FindBySubscriptionInRange(ctx, subscription.ID, march, may)
	if err != nil {
		t.Fatalf("finding events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected both windows cached, got %d events", len(events))
	}
}

func TestExternalEventRepository_FindVisibleInRange(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewExternalEventRepository(db)

	family := createTestFamily(t, db)
	owner := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, owner.ID)

	err := subscriptionRepo.ReplaceForConnection(ctx, connection.ID, []models.CalendarSubscription{
		{GoogleCalendarID: "personal", Name: "Personal", Color: "#4285F4", Visibility: models.VisibilityOwner, Active: true},
		{GoogleCalendarID: "adults", Name: "Finances", Color: "#0B8043", Visibility: models.VisibilityAdults, Active: true},
		{GoogleCalendarID: "shared", Name: "Shared", Color: "#EC4899", Visibility: models.VisibilityFamily, Active: true},
		{GoogleCalendarID: "paused", Name: "Paused", Color: "#999999", Visibility: models.VisibilityFamily, Active: false},
	})
	if err != nil {
		t.Fatalf("seeding subscriptions: %v", err)
	}

	subscriptions, _ := subscriptionRepo.FindByConnectionID(ctx, connection.ID)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	for _, subscription := range subscriptions {
		err := eventRepo.ReplaceWindow(ctx, subscription.ID, from, to, []models.ExternalEvent{{
			GoogleEventID: "evt-" + subscription.GoogleCalendarID,
			Title:         subscription.Name,
			StartTime:     from.AddDate(0, 0, 10),
			FetchedAt:     time.Now(),
		}})
		if err != nil {
			t.Fatalf("caching event for %s: %v", subscription.GoogleCalendarID, err)
		}
	}

	// the owner sees everything active, including owner-scoped calendars
	rows, err := eventRepo.FindVisibleInRange(ctx, family.ID, owner, from, to)
	if err != nil {
		t.Fatalf("finding visible events for owner: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected owner to see 3 events, got %d", len(rows))
	}

	// another adult sees adults- and family-scoped calendars
	adult := createTestMember(t, db, family.ID, "bob")
	rows, err = eventRepo.FindVisibleInRange(ctx, family.ID, adult, from, to)
	if err != nil {
		t.Fatalf("finding visible events for adult: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected adult to see 2 events, got %d", len(rows))
	}

	// a child sees only family-scoped calendars
	child := createTestMember(t, db, family.ID, "carol")
	db.ExecContext(ctx, "UPDATE members SET role = 'child' WHERE id = ?", child.ID)
	child.Role = models.RoleChild

	rows, err = eventRepo.FindVisibleInRange(ctx, family.ID, child, from, to)
	if err != nil {
		t.Fatalf("finding visible events for child: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected child to see 1 event, got %d", len(rows))
	}
	if rows[0].Title != "Shared" {
		t.Errorf("expected 'Shared', got '%s'", rows[0].Title)
	}
	if rows[0].CalendarName != "Shared" || rows[0].CalendarColor != "#EC4899" {
		t.Errorf("expected joined calendar name and color, got '%s' '%s'", rows[0].CalendarName, rows[0].CalendarColor)
	}
}
