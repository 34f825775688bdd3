// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	viewerFeature "github.com/leapstack-labs/arcview/internal/ui/features/viewer"
	"github.com/leapstack-labs/arcview/internal/ui/notifier"
	"github.com/leapstack-labs/arcview/internal/ui/resources"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	workspaces *workspace.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	if isDev {
		newDevReloader(logger).routes(router)
	}

	router.Handle("/static/*", resources.Handler())

	return viewerFeature.SetupRoutes(router, workspaces, sessionStore, notify, logger, isDev)
}

// devReloader refreshes open pages during development. Every page holds
// GET /reload open; a rebuilt server makes each page reload once on
// reconnect, and POST /hotreload (called by the templ watcher) reloads
// them all without a restart.
type devReloader struct {
	logger  *slog.Logger
	reloads *notifier.Notifier
}

func newDevReloader(logger *slog.Logger) *devReloader {
	return &devReloader{logger: logger, reloads: notifier.New()}
}

func (d *devReloader) routes(r chi.Router) {
	r.Get("/reload", d.handleReload)
	r.Post("/hotreload", d.handleHotReload)
}

func (d *devReloader) handleReload(w http.ResponseWriter, r *http.Request) {
	ch, cancel := d.reloads.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	select {
	case <-ch:
		if err := sse.ExecuteScript("window.location.reload()"); err != nil {
			d.logger.Debug("reload script not delivered", "error", err)
		}
	case <-r.Context().Done():
	}
}

func (d *devReloader) handleHotReload(w http.ResponseWriter, _ *http.Request) {
	d.logger.Debug("hot reload requested")
	d.reloads.Broadcast("")
	w.WriteHeader(http.StatusNoContent)
}
