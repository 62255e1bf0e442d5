package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

type FeedHandler struct {
	feedRepo   repository.FeedRepository
	icsService *services.ICSService
}

func NewFeedHandler(feedRepo repository.FeedRepository, icsService *services.ICSService) *FeedHandler {
	return &FeedHandler{feedRepo: feedRepo, icsService: icsService}
}

// Create mints a feed. The raw token appears exactly once, in this
// response; only its hash is stored.
func (handler *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := middleware.GetMember(ctx)

	var payload struct {
		Name             string `json:"name"`
		MemberScoped     bool   `json:"memberScoped"`
		IncludeTasks     bool   `json:"includeTasks"`
		IncludeMeals     bool   `json:"includeMeals"`
		IncludeGoals     bool   `json:"includeGoals"`
		IncludeEvents    bool   `json:"includeEvents"`
		IncludeBirthdays bool   `json:"includeBirthdays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.Name == "" {
		payload.Name = "Family Calendar"
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		slog.Error("generating feed token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token generation failed"})
		return
	}
	rawToken := hex.EncodeToString(tokenBytes)

	feed := models.CalendarFeed{
		FamilyID:         member.FamilyID,
		Name:             payload.Name,
		TokenHash:        repository.HashToken(rawToken),
		IncludeTasks:     payload.IncludeTasks,
		IncludeMeals:     payload.IncludeMeals,
		IncludeGoals:     payload.IncludeGoals,
		IncludeEvents:    payload.IncludeEvents,
		IncludeBirthdays: payload.IncludeBirthdays,
	}
	if payload.MemberScoped {
		feed.MemberID = &member.ID
	}

	created, err := handler.feedRepo.Create(ctx, feed)
	if err != nil {
		slog.Error("creating feed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feed creation failed"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    created.ID,
		"name":  created.Name,
		"token": rawToken,
		"url":   "/feeds/" + rawToken + ".ics",
	})
}

func (handler *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := middleware.GetMember(ctx)

	feeds, err := handler.feedRepo.FindByFamilyID(ctx, member.FamilyID)
	if err != nil {
		slog.Error("listing feeds", "family", member.FamilyID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load feeds"})
		return
	}
	if feeds == nil {
		feeds = []models.CalendarFeed{}
	}
	writeJSON(w, http.StatusOK, feeds)
}

// Delete revokes the feed URL permanently; tokens are never recycled.
func (handler *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := middleware.GetMember(ctx)
	id := chi.URLParam(r, "id")

	feeds, err := handler.feedRepo.FindByFamilyID(ctx, member.FamilyID)
	if err != nil {
		slog.Error("loading feeds for delete", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}

	for _, feed := range feeds {
		if feed.ID == id {
			if err := handler.feedRepo.Delete(ctx, id); err != nil {
				slog.Error("deleting feed", "id", id, "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "feed not found"})
}

// Feed is the public, token-authenticated ICS endpoint. The token is the
// sole credential; an unknown one yields a bare 404.
func (handler *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSuffix(chi.URLParam(r, "token"), ".ics")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	feed, err := handler.feedRepo.FindByTokenHash(r.Context(), repository.HashToken(token))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// access tracking is best-effort and never blocks the response
	feedID := feed.ID
	services.Detach("feed-access", func(ctx context.Context) error {
		return handler.feedRepo.TouchAccess(ctx, feedID)
	})

	document, err := handler.icsService.Generate(r.Context(), feed)
	if err != nil {
		slog.Error("generating feed", "feed", feed.ID, "error", err)
		http.Error(w, "feed generation failed", http.StatusInternalServerError)
		return
	}

	hash := sha256.Sum256(document)
	etag := `"` + hex.EncodeToString(hash[:]) + `"`

	setFeedHeaders(w, feed.Name, etag)

	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch != "" && etagMatches(ifNoneMatch, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Write(document)
}

// Preflight answers CORS preflights; the feed is world-readable by design,
// the token is the access control.
func (handler *FeedHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "If-None-Match")
	w.WriteHeader(http.StatusNoContent)
}

func setFeedHeaders(w http.ResponseWriter, feedName, etag string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", sanitizeFilename(feedName)+".ics"))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("ETag", etag)
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func etagMatches(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	var builder strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune('-')
		}
	}
	if builder.Len() == 0 {
		return "calendar"
	}
	return builder.String()
}
