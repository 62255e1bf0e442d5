package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hazelquimpo21/fam-app-sub002/internal/config"
	"github.com/hazelquimpo21/fam-app-sub002/internal/handlers"
	"github.com/hazelquimpo21/fam-app-sub002/internal/middleware"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config, authService *services.AuthService,
	connectService *services.ConnectService, syncService *services.SyncService) *Server {

	familyRepo := repository.NewFamilyRepository(database)
	memberRepo := repository.NewMemberRepository(database)
	contactRepo := repository.NewContactRepository(database)
	eventRepo := repository.NewFamilyEventRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	mealPlanRepo := repository.NewMealPlanRepository(database)
	connectionRepo := repository.NewConnectionRepository(database)
	subscriptionRepo := repository.NewSubscriptionRepository(database)
	externalEventRepo := repository.NewExternalEventRepository(database)
	feedRepo := repository.NewFeedRepository(database)

	birthdayService := services.NewBirthdayService(memberRepo, contactRepo)
	timelineService := services.NewTimelineService(eventRepo, memberRepo, externalEventRepo, birthdayService)
	icsService := services.NewICSService(familyRepo, eventRepo, taskRepo, goalRepo, mealPlanRepo, birthdayService)

	authHandler := handlers.NewAuthHandler(authService)
	googleHandler := handlers.NewGoogleHandler(connectService, authService)
	syncHandler := handlers.NewSyncHandler(syncService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)
	subscriptionHandler := handlers.NewSubscriptionHandler(connectionRepo, subscriptionRepo)
	feedHandler := handlers.NewFeedHandler(feedRepo, icsService)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/login", authHandler.LoginPage)
	router.Get("/auth/callback", authHandler.Callback)
	router.Get("/logout", authHandler.Logout)

	// the Google callback resolves its member from the session itself so it
	// can redirect with a specific error code instead of bouncing to /login
	router.Get("/auth/google/callback", googleHandler.Callback)

	router.Get("/feeds/{token}", feedHandler.Feed)
	router.Options("/feeds/{token}", feedHandler.Preflight)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authService))

		r.Get("/settings/calendar/connect", googleHandler.Connect)
		r.Post("/settings/calendar/disconnect", googleHandler.Disconnect)

		r.Post("/api/calendar/sync", syncHandler.Trigger)
		r.Get("/api/calendar/timeline", timelineHandler.Timeline)

		r.Get("/api/calendar/subscriptions", subscriptionHandler.List)
		r.Patch("/api/calendar/subscriptions/{id}", subscriptionHandler.Update)

		r.Post("/api/feeds", feedHandler.Create)
		r.Get("/api/feeds", feedHandler.List)
		r.Delete("/api/feeds/{id}", feedHandler.Delete)
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}
