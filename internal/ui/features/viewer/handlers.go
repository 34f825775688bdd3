// Package viewer provides the task viewer feature for the UI.
package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/ui/features/common"
	"github.com/leapstack-labs/arcview/internal/ui/features/viewer/components"
	"github.com/leapstack-labs/arcview/internal/ui/features/viewer/pages"
	"github.com/leapstack-labs/arcview/internal/ui/notifier"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"github.com/leapstack-labs/arcview/pkg/grid"
	"github.com/starfederation/datastar-go/datastar"
)

// maxUploadMemory is the multipart memory budget for task uploads.
const maxUploadMemory = 1 << 20

// Flash messages travel in the session cookie, which securecookie caps at
// 4096 bytes after encoding.
const (
	maxFlashErrors = 5
	maxFlashLen    = 1024
)

// TransformSignals represents the signals sent from the code editor.
type TransformSignals struct {
	Code string `json:"code"`
}

// Handlers provides HTTP handlers for the viewer feature.
type Handlers struct {
	workspaces   *workspace.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(workspaces *workspace.Store, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		workspaces:   workspaces,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		isDev:        isDev,
	}
}

// open resolves the session workspace and saves the session cookie if it
// changed. It runs before any SSE output because headers are sent with
// the first event.
func (h *Handlers) open(w http.ResponseWriter, r *http.Request) (*common.Session, *workspace.Workspace) {
	sess := common.OpenSession(r, h.sessionStore)
	ws, changed := sess.Workspace(h.workspaces)
	if changed {
		if err := sess.Save(w, r); err != nil {
			h.logger.Warn("session not saved", "error", err)
		}
	}
	return sess, ws
}

// ViewerPage renders the full page for the session's workspace.
func (h *Handlers) ViewerPage(w http.ResponseWriter, r *http.Request) {
	sess, ws := h.open(w, r)

	flashes := sess.Flashes()
	if len(flashes) > 0 {
		if err := sess.Save(w, r); err != nil {
			h.logger.Warn("session not saved", "error", err)
		}
	}
	// The load error is shown once, and only when no flash already reported it.
	if loadErr := ws.TakeLoadErr(); loadErr != "" && len(flashes) == 0 {
		flashes = []string{truncateFlash("Error loading task file: " + loadErr)}
	}

	title := "Viewer"
	if name := ws.Name(); name != "" {
		title = name
	}
	if err := pages.ViewerPage(title, h.isDev, flashes, ws.View()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Upload loads a multipart task file into the session's workspace and
// redirects back to the page. A rejected file leaves the workspace as it
// was and is reported through a flash message.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ws := h.open(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, loader.MaxDocumentSize+maxUploadMemory)

	if msg := h.loadUpload(r, ws); msg != "" {
		sess.AddFlash(msg)
	}
	if err := sess.Save(w, r); err != nil {
		h.logger.Warn("session not saved", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadUpload returns the message to show the user, or "" on success.
func (h *Handlers) loadUpload(r *http.Request, ws *workspace.Workspace) string {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "Error reading upload: " + err.Error()
	}
	file, header, err := r.FormFile("task")
	if err != nil {
		return "Please choose a task file to upload."
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, loader.MaxDocumentSize+1))
	if err != nil {
		return "Error reading upload: " + err.Error()
	}
	if len(content) > loader.MaxDocumentSize {
		return fmt.Sprintf("Task file is larger than %d bytes.", loader.MaxDocumentSize)
	}

	if err := ws.Load(header.Filename, content); err != nil {
		return uploadErrorMessage(err)
	}
	return ""
}

func uploadErrorMessage(err error) string {
	if loader.IsParseError(err) {
		return truncateFlash("Error parsing JSON file. Please check the file format. (" + err.Error() + ")")
	}
	if verrs := grid.ValidationErrors(err); len(verrs) > 0 {
		shown := verrs[:min(len(verrs), maxFlashErrors)]
		lines := make([]string, 0, len(shown)+1)
		for _, v := range shown {
			lines = append(lines, v.Error())
		}
		if rest := len(verrs) - len(shown); rest > 0 {
			lines = append(lines, fmt.Sprintf("and %d more", rest))
		}
		return truncateFlash("Task file is invalid: " + strings.Join(lines, "; "))
	}
	return truncateFlash("Error loading task file: " + err.Error())
}

// truncateFlash shortens msg to maxFlashLen bytes without splitting a rune.
func truncateFlash(msg string) string {
	if len(msg) <= maxFlashLen {
		return msg
	}
	cut := maxFlashLen - len("...")
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}

// SetActiveSet switches between the training and test sets.
func (h *Handlers) SetActiveSet(w http.ResponseWriter, r *http.Request) {
	set, ok := grid.ParseSetKind(chi.URLParam(r, "set"))
	if !ok {
		http.Error(w, "unknown example set", http.StatusBadRequest)
		return
	}
	_, ws := h.open(w, r)
	ws.SetActiveSet(set)
	h.respond(w, r, ws, "")
}

// SetDisplayMode switches between single and all. While the mode is locked
// the view is re-sent unchanged with a notice.
func (h *Handlers) SetDisplayMode(w http.ResponseWriter, r *http.Request) {
	mode, err := viewstate.ParseDisplayMode(chi.URLParam(r, "mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, ws := h.open(w, r)

	notice := ""
	if err := ws.SetDisplayMode(mode); errors.Is(err, viewstate.ErrDisplayModeLocked) {
		notice = "Test examples are always shown together."
	}
	h.respond(w, r, ws, notice)
}

// Next pages forward in single mode.
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	_, ws := h.open(w, r)
	ws.Next()
	h.respond(w, r, ws, "")
}

// Previous pages back in single mode.
func (h *Handlers) Previous(w http.ResponseWriter, r *http.Request) {
	_, ws := h.open(w, r)
	ws.Previous()
	h.respond(w, r, ws, "")
}

// Transform applies the submitted code to the active set.
func (h *Handlers) Transform(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var code string
	if common.DatastarRequest(r) {
		var signals TransformSignals
		if err := datastar.ReadSignals(r, &signals); err != nil {
			sse := datastar.NewSSE(w, r)
			_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
			return
		}
		code = signals.Code
	} else {
		code = r.FormValue("code")
	}

	_, ws := h.open(w, r)
	if _, err := ws.Apply(r.Context(), code); err != nil {
		h.logger.Debug("transform rejected", "error", err)
	}
	h.respond(w, r, ws, "")
}

// Updates is the long-lived SSE endpoint. It re-sends the viewer whenever
// the watched task file is reloaded and this session still shows it.
// It does not send initial state; that is rendered by ViewerPage.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	_, ws := h.open(w, r)
	sse := datastar.NewSSE(w, r)

	updates, cancel := h.notifier.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			// A reload of the default task only concerns viewers still showing it.
			if ev.Source != "" && !ws.ShowsDefault() {
				continue
			}
			h.logger.Debug("pushing reloaded task", "source", ev.Source, "seq", ev.Seq)
			if err := sse.PatchElementTempl(components.Viewer(ws.View(), "")); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

// ViewJSON returns the current view as JSON.
func (h *Handlers) ViewJSON(w http.ResponseWriter, r *http.Request) {
	_, ws := h.open(w, r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ws.View()); err != nil {
		h.logger.Warn("failed to encode view", "error", err)
	}
}

// respond patches the viewer section for datastar requests and redirects
// plain form posts back to the page.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, notice string) {
	if !common.DatastarRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(components.Viewer(ws.View(), notice)); err != nil {
		_ = sse.ConsoleError(err)
	}
}
