package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

type TimelineHandler struct {
	timelineService *services.TimelineService
}

func NewTimelineHandler(timelineService *services.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

// Timeline serves the merged calendar for a date range. Defaults to the
// current month when no range is given.
func (handler *TimelineHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := middleware.GetMember(ctx)

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		parsed, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from date"})
			return
		}
		from = parsed
	}
	if toParam := r.URL.Query().Get("to"); toParam != "" {
		parsed, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to date"})
			return
		}
		to = parsed
	}

	var memberID *string
	if memberParam := r.URL.Query().Get("member"); memberParam != "" {
		memberID = &memberParam
	}

	items, err := handler.timelineService.Merge(ctx, viewer.FamilyID, viewer, memberID, from, to)
	if err != nil {
		slog.Error("merging timeline", "family", viewer.FamilyID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load timeline"})
		return
	}

	if items == nil {
		items = []models.CalendarItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
