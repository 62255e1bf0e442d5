package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

type SyncHandler struct {
	syncService *services.SyncService
}

func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Trigger runs a sync for the calling member and reports aggregate counts.
// Error bodies stay machine-readable and never carry internals.
func (handler *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	member := middleware.GetMember(r.Context())

	started := time.Now()
	result, err := handler.syncService.SyncMember(r.Context(), member.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotConnected):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": services.ErrNotConnected.Error()})
		case errors.Is(err, services.ErrAuthExpired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": services.ErrAuthExpired.Error()})
		default:
			slog.Error("sync failed", "member", member.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sync failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"synced":        result.Synced,
		"subscriptions": result.Subscriptions,
		"durationMs":    time.Since(started).Milliseconds(),
	})
}
