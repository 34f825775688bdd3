// Package features provides shared test utilities for UI feature tests.
package features

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/testutil"
	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/internal/ui/notifier"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

// SampleTask is a small task with three training and one test example.
const SampleTask = `{
  "train": [
    {"input": [[0, 1], [2, 3]], "output": [[1, 0], [3, 2]]},
    {"input": [[4, 5]], "output": [[5, 4]]},
    {"input": [[6, 7, 8]], "output": [[8, 7, 6]]}
  ],
  "test": [
    {"input": [[9, 0]]}
  ]
}`

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Workspaces   *workspace.Store
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	TaskPath     string

	t *testing.T
}

// SetupTestFixture creates a workspace store seeded with task as the
// default dataset. An empty task leaves the store without a default.
func SetupTestFixture(t *testing.T, task string) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	cfg := workspace.Config{
		Viewer:   viewstate.Options{InitialMode: viewstate.ModeSingle, LockTestToAll: true},
		Renderer: render.New(20, true),
		Engine:   transform.NewEngine(transform.Config{Logger: logger}),
		Logger:   logger,
	}
	store := workspace.NewStore(cfg, 0)

	var taskPath string
	if task != "" {
		taskPath = filepath.Join(t.TempDir(), "task.json")
		require.NoError(t, os.WriteFile(taskPath, []byte(task), 0600))
		require.NoError(t, store.ReloadDefault(taskPath))
	}

	return &TestFixture{
		Workspaces:   store,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		TaskPath:     taskPath,
		t:            t,
	}
}

// WriteTask overwrites the fixture's task file.
func (f *TestFixture) WriteTask(content string) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(f.TaskPath, []byte(content), 0600))
}

// AsDatastar marks r as issued by the datastar client.
func AsDatastar(r *http.Request) *http.Request {
	r.Header.Set("Datastar-Request", "true")
	return r
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
