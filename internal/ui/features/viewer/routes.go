package viewer

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/arcview/internal/ui/notifier"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

// SetupRoutes configures routes for the viewer feature.
func SetupRoutes(
	router chi.Router,
	workspaces *workspace.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	handlers := NewHandlers(workspaces, sessionStore, notify, logger, isDev)

	router.Get("/", handlers.ViewerPage)
	router.Get("/updates", handlers.Updates)
	router.Post("/upload", handlers.Upload)

	router.Route("/view", func(r chi.Router) {
		r.Post("/set/{set}", handlers.SetActiveSet)
		r.Post("/mode/{mode}", handlers.SetDisplayMode)
		r.Post("/next", handlers.Next)
		r.Post("/prev", handlers.Previous)
	})
	router.Post("/transform", handlers.Transform)

	router.Get("/api/view", handlers.ViewJSON)

	return nil
}
