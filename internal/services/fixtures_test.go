package services_test

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

func createTestMember(t *testing.T, db *sql.DB, familyID, name, color string) models.Member {
	t.Helper()
	member, err := repository.NewMemberRepository(db).Create(context.Background(), models.Member{
		FamilyID:    familyID,
		OIDCSubject: "oidc-" + name,
		Email:       name + "@example.com",
		Name:        name,
		Role:        models.RoleAdult,
		Color:       color,
	})
	if err != nil {
		t.Fatalf("creating test member: %v", err)
	}
	return member
}

func createTestConnection(t *testing.T, db *sql.DB, familyID, memberID string, refreshToken *string, expiry time.Time) models.CalendarConnection {
	t.Helper()
	connection, err := repository.NewConnectionRepository(db).Upsert(context.Background(), models.CalendarConnection{
		FamilyID:        familyID,
		MemberID:        memberID,
		GoogleAccountID: "google-account",
		GoogleEmail:     "calendar@example.com",
		AccessToken:     "access-token",
		RefreshToken:    refreshToken,
		TokenExpiry:     expiry,
		Scopes:          "calendar.readonly",
	})
	if err != nil {
		t.Fatalf("creating test connection: %v", err)
	}
	return connection
}

func seedSubscriptions(t *testing.T, db *sql.DB, connectionID string, subscriptions []models.CalendarSubscription) []models.CalendarSubscription {
	t.Helper()
	repo := repository.NewSubscriptionRepository(db)
	if err := repo.ReplaceForConnection(context.Background(), connectionID, subscriptions); err != nil {
		t.Fatalf("seeding subscriptions: %v", err)
	}
	seeded, err := repo.FindByConnectionID(context.Background(), connectionID)
	if err != nil {
		t.Fatalf("loading seeded subscriptions: %v", err)
	}
	return seeded
}
