package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
	"github.com/hazelquimpo21/fam-app-sub002/internal/testutil"
)

func setupFeedHandler(t *testing.T) (*FeedHandler, *sql.DB) {
	t.Helper()
	db := testutil.NewTestDatabase(t)

	memberRepo := repository.NewMemberRepository(db)
	icsService := services.NewICSService(
		repository.NewFamilyRepository(db),
		repository.NewFamilyEventRepository(db),
		repository.NewTaskRepository(db),
		repository.NewGoalRepository(db),
		repository.NewMealPlanRepository(db),
		services.NewBirthdayService(memberRepo, repository.NewContactRepository(db)),
	)
	return NewFeedHandler(repository.NewFeedRepository(db), icsService), db
}

func seedFeedFixtures(t *testing.T, db *sql.DB, rawToken string) models.CalendarFeed {
	t.Helper()
	ctx := context.Background()

	family, err := repository.NewFamilyRepository(db).Create(ctx, models.Family{Name: "Test Family"})
	if err != nil {
		t.Fatalf("creating family: %v", err)
	}
	member, err := repository.NewMemberRepository(db).Create(ctx, models.Member{
		FamilyID:    family.ID,
		OIDCSubject: "oidc-alice",
		Name:        "Alice",
	})
	if err != nil {
		t.Fatalf("creating member: %v", err)
	}
	_, err = repository.NewFamilyEventRepository(db).Create(ctx, models.FamilyEvent{
		FamilyID:          family.ID,
		Title:             "Swimming Lesson",
		StartTime:         time.Now().UTC().AddDate(0, 0, 3),
		CreatedByMemberID: member.ID,
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}

	feed, err := repository.NewFeedRepository(db).Create(ctx, models.CalendarFeed{
		FamilyID:      family.ID,
		Name:          "Family Calendar",
		TokenHash:     repository.HashToken(rawToken),
		IncludeEvents: true,
	})
	if err != nil {
		t.Fatalf("creating feed: %v", err)
	}
	return feed
}

func feedRouter(handler *FeedHandler) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/feeds/{token}", handler.Feed)
	router.Options("/feeds/{token}", handler.Preflight)
	return router
}

func TestFeedHandler_UnknownTokenIs404(t *testing.T) {
	handler, _ := setupFeedHandler(t)
	router := feedRouter(handler)

	request := httptest.NewRequest(http.MethodGet, "/feeds/not-a-real-token.ics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown token, got %d", recorder.Code)
	}
}

func TestFeedHandler_ServesParsableCalendar(t *testing.T) {
	handler, db := setupFeedHandler(t)
	seedFeedFixtures(t, db, "feed-test-token")
	router := feedRouter(handler)

	request := httptest.NewRequest(http.MethodGet, "/feeds/feed-test-token.ics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if contentType := recorder.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/calendar") {
		t.Errorf("expected text/calendar content type, got %q", contentType)
	}
	if disposition := recorder.Header().Get("Content-Disposition"); !strings.Contains(disposition, "Family-Calendar.ics") {
		t.Errorf("expected sanitized filename, got %q", disposition)
	}
	if cacheControl := recorder.Header().Get("Cache-Control"); cacheControl != "public, max-age=300" {
		t.Errorf("expected cache control header, got %q", cacheControl)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected open CORS, got %q", origin)
	}
	if recorder.Header().Get("ETag") == "" {
		t.Error("expected an ETag header")
	}

	calendar, err := ics.ParseCalendar(bytes.NewReader(recorder.Body.Bytes()))
	if err != nil {
		t.Fatalf("parsing calendar output: %v", err)
	}
	events := calendar.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event in feed, got %d", len(events))
	}
	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || summary.Value != "Swimming Lesson" {
		t.Errorf("expected summary 'Swimming Lesson', got %v", summary)
	}
}

func TestFeedHandler_ETagRoundTrip(t *testing.T) {
	handler, db := setupFeedHandler(t)
	seedFeedFixtures(t, db, "feed-test-token")
	router := feedRouter(handler)

	request := httptest.NewRequest(http.MethodGet, "/feeds/feed-test-token.ics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	etag := recorder.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag on first fetch")
	}

	request = httptest.NewRequest(http.MethodGet, "/feeds/feed-test-token.ics", nil)
	request.Header.Set("If-None-Match", etag)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotModified {
		t.Errorf("expected status 304 for matching ETag, got %d", recorder.Code)
	}
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body on 304, got %d bytes", recorder.Body.Len())
	}

	// a weak validator form of the same tag also matches
	request = httptest.NewRequest(http.MethodGet, "/feeds/feed-test-token.ics", nil)
	request.Header.Set("If-None-Match", "W/"+etag)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotModified {
		t.Errorf("expected status 304 for weak ETag, got %d", recorder.Code)
	}
}

func TestFeedHandler_TokenWithoutExtension(t *testing.T) {
	handler, db := setupFeedHandler(t)
	seedFeedFixtures(t, db, "feed-test-token")
	router := feedRouter(handler)

	request := httptest.NewRequest(http.MethodGet, "/feeds/feed-test-token", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 without .ics suffix, got %d", recorder.Code)
	}
}

func TestFeedHandler_Preflight(t *testing.T) {
	handler, _ := setupFeedHandler(t)
	router := feedRouter(handler)

	request := httptest.NewRequest(http.MethodOptions, "/feeds/anything.ics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected open CORS on preflight, got %q", origin)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Family Calendar", "Family-Calendar"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "calendar"},
		{"日本語", "calendar"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
