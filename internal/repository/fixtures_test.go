package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

func createTestFamily(t *testing.T, db *sql.DB) models.Family {
	t.Helper()
	family, err := repository.NewFamilyRepository(db).Create(context.Background(), models.Family{
		Name: "Test Family",
	})
	if err != nil {
		t.Fatalf("creating test family: %v", err)
	}
	return family
}

func createTestMember(t *testing.T, db *sql.DB, familyID, name string) models.Member {
	t.Helper()
	member, err := repository.NewMemberRepository(db).Create(context.Background(), models.Member{
		FamilyID:    familyID,
		OIDCSubject: "oidc-" + name,
		Email:       name + "@example.com",
		Name:        name,
		Role:        models.RoleAdult,
	})
	if err != nil {
		t.Fatalf("creating test member: %v", err)
	}
	return member
}

func createTestConnection(t *testing.T, db *sql.DB, familyID, memberID string) models.CalendarConnection {
	t.Helper()
	refreshToken := "refresh-token"
	connection, err := repository.NewConnectionRepository(db).Upsert(context.Background(), models.CalendarConnection{
		FamilyID:        familyID,
		MemberID:        memberID,
		GoogleAccountID: "google-account",
		GoogleEmail:     "calendar@example.com",
		AccessToken:     "access-token",
		RefreshToken:    &refreshToken,
		TokenExpiry:     time.Now().Add(time.Hour),
		Scopes:          "calendar.readonly",
	})
	if err != nil {
		t.Fatalf("creating test connection: %v", err)
	}
	return connection
}

func createTestSubscription(t *testing.T, db *sql.DB, connectionID, calendarID string) models.CalendarSubscription {
	t.Helper()
	repo := repository.NewSubscriptionRepository(db)
	err := repo.ReplaceForConnection(context.Background(), connectionID, []models.CalendarSubscription{{
		GoogleCalendarID: calendarID,
		Name:             calendarID,
		Color:            "#4285F4",
		Visibility:       models.VisibilityFamily,
		Active:           true,
	}})
	if err != nil {
		t.Fatalf("creating test subscription: %v", err)
	}
	subscriptions, err := repo.FindByConnectionID(context.Background(), connectionID)
	if err != nil || len(subscriptions) == 0 {
		t.Fatalf("loading test subscription: %v", err)
	}
	return subscriptions[0]
}
