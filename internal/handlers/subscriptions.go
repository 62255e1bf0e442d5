package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

type SubscriptionHandler struct {
	connectionRepo   repository.ConnectionRepository
	subscriptionRepo repository.SubscriptionRepository
}

func NewSubscriptionHandler(connectionRepo repository.ConnectionRepository, subscriptionRepo repository.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{connectionRepo: connectionRepo, subscriptionRepo: subscriptionRepo}
}

func (handler *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := middleware.GetMember(ctx)

	connection, err := handler.connectionRepo.FindByMemberID(ctx, member.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusOK, []models.CalendarSubscription{})
			return
		}
		slog.Error("loading connection", "member", member.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load subscriptions"})
		return
	}

	subscriptions, err := handler.subscriptionRepo.FindByConnectionID(ctx, connection.ID)
	if err != nil {
		slog.Error("loading subscriptions", "connection", connection.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load subscriptions"})
		return
	}
	if subscriptions == nil {
		subscriptions = []models.CalendarSubscription{}
	}
	writeJSON(w, http.StatusOK, subscriptions)
}

// Update changes a subscription's active flag, visibility scope or color.
// Members can only touch subscriptions of their own connection.
func (handler *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := middleware.GetMember(ctx)
	id := chi.URLParam(r, "id")

	subscription, err := handler.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "subscription not found"})
		return
	}

	connection, err := handler.connectionRepo.FindByMemberID(ctx, member.ID)
	if err != nil || connection.ID != subscription.ConnectionID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "subscription not found"})
		return
	}

	var payload struct {
		Active     *bool   `json:"active"`
		Visibility *string `json:"visibility"`
		Color      *string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if payload.Active != nil {
		subscription.Active = *payload.Active
	}
	if payload.Visibility != nil {
		visibility := models.Visibility(*payload.Visibility)
		switch visibility {
		case models.VisibilityOwner, models.VisibilityAdults, models.VisibilityFamily:
			subscription.Visibility = visibility
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid visibility"})
			return
		}
	}
	if payload.Color != nil {
		subscription.Color = *payload.Color
	}

	if err := handler.subscriptionRepo.Update(ctx, subscription); err != nil {
		slog.Error("updating subscription", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}

	writeJSON(w, http.StatusOK, subscription)
}
