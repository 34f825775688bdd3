// Package ui provides the web-based task viewer.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/arcview/internal/ui/notifier"
	"github.com/leapstack-labs/arcview/internal/ui/resources"
	"github.com/leapstack-labs/arcview/internal/ui/router"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// debounceDelay coalesces the burst of events editors emit on save.
const debounceDelay = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	workspaces   *workspace.Store
	sessionStore *sessions.CookieStore
	host         string
	port         int
	watch        bool
	taskPath     string
	logger       *slog.Logger
	notifier     *notifier.Notifier
	ready        chan string
}

// Config holds configuration for the UI server.
type Config struct {
	Workspaces    *workspace.Store
	Host          string
	Port          int
	Watch         bool
	SessionSecret string
	Logger        *slog.Logger
	// TaskPath is the default task file; it is watched when Watch is set.
	TaskPath string
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	return &Server{
		workspaces:   cfg.Workspaces,
		sessionStore: sessionStore,
		host:         host,
		port:         cfg.Port,
		watch:        cfg.Watch && cfg.TaskPath != "",
		taskPath:     cfg.TaskPath,
		logger:       logger,
		notifier:     notifier.New(),
		ready:        make(chan string, 1),
	}
}

// Handler builds the router with middleware and all feature routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.workspaces, s.sessionStore, s.notifier, s.logger, s.IsDev()); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, fmt.Sprint(s.port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	url := "http://" + ln.Addr().String()
	s.logger.Info("starting UI server", "addr", url)
	s.ready <- url

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchTask(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Ready delivers the server URL once the listener is bound.
func (s *Server) Ready() <-chan string {
	return s.ready
}

// IsDev returns true for dev builds (the "dev" build tag).
func (s *Server) IsDev() bool {
	return resources.IsDev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchTask reloads the default task whenever its file is written.
// The parent directory is watched because editors often save by renaming
// a temporary file over the original.
func (s *Server) watchTask(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.taskPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch task file", "path", target, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("task file changed, reloading", "file", target)
				// ReloadDefault logs failures; viewers keep the last good task.
				if err := s.workspaces.ReloadDefault(target); err != nil {
					return
				}
				s.notifier.Broadcast(target)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
