package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/testutil"
)

func TestConnectionRepository_UpsertAndFind(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)

	if connection.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	found, err := repository.NewConnectionRepository(db).FindByMemberID(ctx, member.ID)
	if err != nil {
		t.Fatalf("finding connection: %v", err)
	}
	if found.GoogleEmail != "calendar@example.com" {
		t.Errorf("expected google email 'calendar@example.com', got '%s'", found.GoogleEmail)
	}
	if found.RefreshToken == nil || *found.RefreshToken != "refresh-token" {
		t.Errorf("expected stored refresh token, got %v", found.RefreshToken)
	}
}

func TestConnectionRepository_FindByMemberID_NotFound(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	_, err := repository.NewConnectionRepository(db).FindByMemberID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestConnectionRepository_UpsertPreservesRefreshToken(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	connectionRepo := repository.NewConnectionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	createTestConnection(t, db, family.ID, member.ID)

	// a reconnect without a refresh token must not wipe the stored one
	updated, err := connectionRepo.Upsert(ctx, models.CalendarConnection{
		FamilyID:        family.ID,
		MemberID:        member.ID,
		GoogleAccountID: "google-account",
		GoogleEmail:     "calendar@example.com",
		AccessToken:     "new-access-token",
		RefreshToken:    nil,
		TokenExpiry:     time.Now().Add(2 * time.Hour),
		Scopes:          "calendar.readonly",
	})
	if err != nil {
		t.Fatalf("upserting connection: %v", err)
	}

	if updated.AccessToken != "new-access-token" {
		t.Errorf("expected updated access token, got '%s'", updated.AccessToken)
	}
	if updated.RefreshToken == nil || *updated.RefreshToken != "refresh-token" {
		t.Errorf("expected preserved refresh token, got %v", updated.RefreshToken)
	}
}

func TestConnectionRepository_UpsertIsOnePerMember(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	first := createTestConnection(t, db, family.ID, member.ID)
	second := createTestConnection(t, db, family.ID, member.ID)

	if first.ID != second.ID {
		t.Errorf("expected the same connection row, got %s and %s", first.ID, second.ID)
	}

	connections, err := repository.NewConnectionRepository(db).FindAll(ctx)
	if err != nil {
		t.Fatalf("finding all connections: %v", err)
	}
	if len(connections) != 1 {
		t.Errorf("expected 1 connection, got %d", len(connections))
	}
}

func TestConnectionRepository_UpdateTokens(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	connectionRepo := repository.NewConnectionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := connectionRepo.UpdateTokens(ctx, connection.ID, "rotated", nil, expiry); err != nil {
		t.Fatalf("updating tokens: %v", err)
	}

	found, _ := connectionRepo.FindByMemberID(ctx, member.ID)
	if found.AccessToken != "rotated" {
		t.Errorf("expected access token 'rotated', got '%s'", found.AccessToken)
	}
	if found.RefreshToken == nil || *found.RefreshToken != "refresh-token" {
		t.Errorf("expected preserved refresh token, got %v", found.RefreshToken)
	}
}

func TestConnectionRepository_RecordErrorAndMarkSynced(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	connectionRepo := repository.NewConnectionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)

	if err := connectionRepo.RecordError(ctx, connection.ID, "token revoked"); err != nil {
		t.Fatalf("recording error: %v", err)
	}

	found, _ := connectionRepo.FindByMemberID(ctx, member.ID)
	if found.LastSyncError == nil || *found.LastSyncError != "token revoked" {
		t.Errorf("expected recorded sync error, got %v", found.LastSyncError)
	}

	syncedAt := time.Now().UTC().Truncate(time.Second)
	if err := connectionRepo.MarkSynced(ctx, connection.ID, syncedAt); err != nil {
		t.Fatalf("marking synced: %v", err)
	}

	found, _ = connectionRepo.FindByMemberID(ctx, member.ID)
	if found.LastSyncError != nil {
		t.Errorf("expected sync error cleared, got %v", *found.LastSyncError)
	}
	if found.LastSyncedAt == nil {
		t.Error("expected last synced timestamp to be set")
	}
}

func TestConnectionRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	connectionRepo := repository.NewConnectionRepository(db)

	family := createTestFamily(t, db)
	member := createTestMember(t, db, family.ID, "alice")
	connection := createTestConnection(t, db, family.ID, member.ID)
	createTestSubscription(t, db, connection.ID, "primary")

	if err := connectionRepo.DeleteByMemberID(ctx, member.ID); err != nil {
		t.Fatalf("deleting connection: %v", err)
	}

	if _, err := connectionRepo.FindByMemberID(ctx, member.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}

	subscriptions, err := repository.NewSubscriptionRepository(db).FindByConnectionID(ctx, connection.ID)
	if err != nil {
		t.Fatalf("finding subscriptions after delete: %v", err)
	}
	if len(subscriptions) != 0 {
		t.Errorf("expected subscriptions removed by cascade, got %d", len(subscriptions))
	}
}
