package common

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/arcview/internal/workspace"
)

// SessionName is the cookie name of the viewer session.
const SessionName = "arcview"

const workspaceKey = "workspace"

// DatastarRequest reports whether r was issued by the datastar client.
// Other requests come from plain form posts and get a redirect instead.
func DatastarRequest(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// Session binds a request to its session and workspace.
type Session struct {
	store   sessions.Store
	session *sessions.Session
}

// OpenSession returns the viewer session for r. A cookie that cannot be
// decoded (for example after the secret changed) yields a fresh session.
func OpenSession(r *http.Request, store sessions.Store) *Session {
	sess, err := store.Get(r, SessionName)
	if err != nil {
		sess, _ = store.New(r, SessionName)
	}
	if sess == nil {
		sess = sessions.NewSession(store, SessionName)
	}
	return &Session{store: store, session: sess}
}

// Workspace returns the session's workspace, creating one on first use.
// It reports whether the session changed and must be saved.
func (s *Session) Workspace(workspaces *workspace.Store) (*workspace.Workspace, bool) {
	id, _ := s.session.Values[workspaceKey].(string)
	newID, ws := workspaces.GetOrCreate(id)
	if newID == id {
		return ws, false
	}
	s.session.Values[workspaceKey] = newID
	return ws, true
}

// AddFlash queues a message for the next full page render.
func (s *Session) AddFlash(msg string) {
	s.session.AddFlash(msg)
}

// Flashes drains queued messages.
func (s *Session) Flashes() []string {
	var out []string
	for _, f := range s.session.Flashes() {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Save writes the session cookie. It must be called before the response
// body is started.
func (s *Session) Save(w http.ResponseWriter, r *http.Request) error {
	if err := s.session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
