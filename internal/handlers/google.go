package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

const settingsPath = "/settings/calendar"

// GoogleHandler drives the Google Calendar connect flow. The callback never
// reports internals: it redirects back to settings with a short error code.
type GoogleHandler struct {
	connectService *services.ConnectService
	authService    *services.AuthService
}

func NewGoogleHandler(connectService *services.ConnectService, authService *services.AuthService) *GoogleHandler {
	return &GoogleHandler{connectService: connectService, authService: authService}
}

func (handler *GoogleHandler) Connect(w http.ResponseWriter, r *http.Request) {
	state, err := handler.connectService.GenerateState()
	if err != nil {
		slog.Error("generating google oauth state", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "google_oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, handler.connectService.AuthorizationURL(state), http.StatusFound)
}

func (handler *GoogleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	clearState := func() {
		http.SetCookie(w, &http.Cookie{
			Name:   "google_oauth_state",
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}

	if providerError := r.URL.Query().Get("error"); providerError != "" {
		clearState()
		slog.Warn("google authorization denied", "error", providerError)
		http.Redirect(w, r, settingsPath+"?error=connection_failed", http.StatusFound)
		return
	}

	stateCookie, err := r.Cookie("google_oauth_state")
	if err != nil {
		clearState()
		http.Redirect(w, r, settingsPath+"?error=invalid_state", http.StatusFound)
		return
	}
	if err := handler.connectService.ValidateState(stateCookie.Value, r.URL.Query().Get("state")); err != nil {
		clearState()
		slog.Warn("rejecting google callback", "error", err)
		http.Redirect(w, r, settingsPath+"?error=invalid_state", http.StatusFound)
		return
	}
	clearState()

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, settingsPath+"?error=no_code", http.StatusFound)
		return
	}

	member, err := handler.authService.GetCurrentMember(r)
	if err != nil {
		http.Redirect(w, r, settingsPath+"?error=no_member", http.StatusFound)
		return
	}

	if _, err := handler.connectService.CompleteAuthorization(r.Context(), member, code); err != nil {
		slog.Error("completing google authorization", "member", member.ID, "error", err)
		http.Redirect(w, r, settingsPath+"?error=connection_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, settingsPath+"?success=true", http.StatusFound)
}

func (handler *GoogleHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	member := middleware.GetMember(r.Context())

	if err := handler.connectService.Disconnect(r.Context(), member.ID); err != nil {
		slog.Error("disconnecting google calendar", "member", member.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "disconnect failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}
