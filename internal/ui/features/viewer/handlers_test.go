package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/internal/testutil"
	"github.com/leapstack-labs/arcview/internal/ui/features"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

// client follows one browser session across requests.
type client struct {
	t       *testing.T
	router  http.Handler
	cookies map[string]*http.Cookie
}

func setupTestClient(t *testing.T, task string) (*client, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, task)
	router := chi.NewRouter()
	require.NoError(t, SetupRoutes(
		router,
		fixture.Workspaces,
		fixture.SessionStore,
		fixture.Notifier,
		testutil.NewTestLogger(t),
		false,
	))

	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}, fixture
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) action(path string) *httptest.ResponseRecorder {
	return c.do(features.AsDatastar(httptest.NewRequest(http.MethodPost, path, nil)))
}

func (c *client) upload(filename, content string) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("task", filename)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

const flipCode = "def transform(g):\n    return [list(reversed(row)) for row in g]\n"

// =============================================================================
// ViewerPage Tests - Full HTML page responses with server-rendered content
// =============================================================================

func TestViewerPage(t *testing.T) {
	tests := []struct {
		name     string
		task     string
		wantBody []string
	}{
		{
			name: "renders the default task",
			task: features.SampleTask,
			wantBody: []string{
				"<!doctype html>",
				"task.json - arcview</title>",
				"data-init",
				"/updates",
				`id="viewer"`,
				"Training Examples",
				"Example 1 of 3",
				"3 training examples, 1 test example",
				"Transformation Code",
				"Color Map",
				"background-color:#870C25",
			},
		},
		{
			name: "renders the empty state without a task",
			task: "",
			wantBody: []string{
				"<title>Viewer - arcview</title>",
				"No task loaded",
				"No examples in this set",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := setupTestClient(t, tt.task)
			rec := c.get("/")

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want, "response should contain %q", want)
			}
			assert.Contains(t, c.cookies, "arcview", "session cookie should be set")
		})
	}
}

func TestViewerPage_RendersFirstExampleGrids(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	body := c.get("/").Body.String()

	// Input, Intermediate and True Output panels of example 1.
	assert.Contains(t, body, "Input <small>2x2</small>")
	assert.Contains(t, body, "Intermediate <small>2x2</small>")
	assert.Contains(t, body, "True Output <small>2x2</small>")
	assert.Contains(t, body, "grid-template-columns:repeat(2,")
	assert.NotContains(t, body, "Example 2 of 3")
}

// =============================================================================
// View action Tests - SSE patches of the viewer section
// =============================================================================

func TestViewActions_Paging(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	rec := c.action("/view/prev")
	assert.Contains(t, rec.Body.String(), "Example 1 of 3", "previous at the start is a no-op")

	for range 3 {
		rec = c.action("/view/next")
	}
	body := rec.Body.String()
	assert.Contains(t, body, "event:")
	assert.Contains(t, body, "Example 3 of 3", "next clamps at the last example")
	assert.Contains(t, body, `id="viewer"`)
}

func TestViewActions_SessionsAreIndependent(t *testing.T) {
	c1, fixture := setupTestClient(t, features.SampleTask)
	c1.get("/")
	c1.action("/view/next")

	c2 := &client{t: t, router: c1.router, cookies: map[string]*http.Cookie{}}
	assert.Contains(t, c2.get("/").Body.String(), "Example 1 of 3")
	assert.Contains(t, c1.get("/").Body.String(), "Example 2 of 3")
	assert.Equal(t, 2, fixture.Workspaces.Len())
}

func TestViewActions_SetSwitchLocksTestToAll(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")
	c.action("/view/next")

	body := c.action("/view/set/test").Body.String()
	assert.Contains(t, body, "Test Examples")
	assert.Contains(t, body, "Example 1</h3>")
	assert.NotContains(t, body, "True Output", "test examples without output skip the output panel")
	assert.NotContains(t, body, "Example 1 of", "all mode has no pager")

	body = c.action("/view/mode/single").Body.String()
	assert.Contains(t, body, "Test examples are always shown together.")

	body = c.action("/view/set/train").Body.String()
	assert.Contains(t, body, "Training Examples")
	assert.Contains(t, body, "Example 1</h3>")
	assert.Contains(t, body, "Example 3</h3>", "mode stays all after unlocking")

	body = c.action("/view/mode/single").Body.String()
	assert.Contains(t, body, "Example 1 of 3")
}

func TestViewActions_BadParams(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)

	assert.Equal(t, http.StatusBadRequest, c.action("/view/set/validation").Code)
	assert.Equal(t, http.StatusBadRequest, c.action("/view/mode/sideways").Code)
}

func TestViewActions_PlainFormPostRedirects(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	rec := c.do(httptest.NewRequest(http.MethodPost, "/view/next", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, c.get("/").Body.String(), "Example 2 of 3")
}

// =============================================================================
// Upload Tests
// =============================================================================

func TestUpload_ReplacesDataset(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")
	c.action("/view/next")

	rec := c.upload("mine.json", `{"train": [{"input": [[5]], "output": [[6]]}], "test": []}`)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := c.get("/").Body.String()
	assert.Contains(t, body, "mine.json")
	assert.Contains(t, body, "Example 1 of 1")
	assert.NotContains(t, body, `class="alert"`)
}

// Scenario D: malformed JSON keeps the dataset and surfaces a blocking alert.
func TestUpload_MalformedKeepsDatasetAndAlerts(t *testing.T) {
	c, fixture := setupTestClient(t, features.SampleTask)
	c.get("/")
	c.action("/view/next")

	rec := c.upload("broken.json", `{"train": [`)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := c.get("/").Body.String()
	assert.Contains(t, body, `class="alert"`)
	assert.Contains(t, body, "Error parsing JSON file")
	assert.Contains(t, body, fixture.TaskPath, "previous dataset is still shown")
	assert.Contains(t, body, "Example 2 of 3", "view state is untouched")

	assert.NotContains(t, c.get("/").Body.String(), `class="alert"`, "flash is shown once")
}

func TestUpload_InvalidGridAlertsWithLocation(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	c.upload("bad.json", `{"train": [{"input": [[1, 12]], "output": [[1]]}]}`)
	body := c.get("/").Body.String()
	assert.Contains(t, body, "Task file is invalid")
	assert.Contains(t, body, "train[0].input: row 0 col 1")
}

// taskMissingOutputs builds a task whose n training examples all lack an
// output grid, so validation reports n errors.
func taskMissingOutputs(n int) string {
	examples := make([]string, n)
	for i := range examples {
		examples[i] = `{"input": [[1, 2], [3, 4]]}`
	}
	return `{"train": [` + strings.Join(examples, ", ") + `]}`
}

func TestUpload_ManyInvalidExamplesAlertSummary(t *testing.T) {
	c, fixture := setupTestClient(t, features.SampleTask)
	c.get("/")

	rec := c.upload("many.json", taskMissingOutputs(80))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		assert.Less(t, len(ck.String()), 4096, "cookie %s fits the browser limit", ck.Name)
	}

	body := c.get("/").Body.String()
	assert.Contains(t, body, `class="alert"`)
	assert.Contains(t, body, "Task file is invalid")
	assert.Contains(t, body, "train[0].output: missing output grid")
	assert.NotContains(t, body, "train[79].output")
	assert.Contains(t, body, "and 75 more")
	assert.Contains(t, body, fixture.TaskPath, "previous dataset is still shown")
}

// A rejected upload whose flash never reached the browser is still reported
// from the workspace, once.
func TestUpload_LoadErrorShownWithoutFlash(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("task", "broken.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"train": [`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	// Serve without keeping the response cookies, dropping the flash.
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := c.get("/").Body.String()
	assert.Contains(t, page, `class="alert"`)
	assert.Contains(t, page, "Error loading task file")

	assert.NotContains(t, c.get("/").Body.String(), `class="alert"`, "load error is shown once")
}

func TestUploadErrorMessage_Truncates(t *testing.T) {
	msg := uploadErrorMessage(errors.New(strings.Repeat("é", maxFlashLen)))
	assert.LessOrEqual(t, len(msg), maxFlashLen)
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.True(t, utf8.ValidString(msg))
}

func TestUpload_MissingFile(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	assert.Equal(t, http.StatusSeeOther, c.do(req).Code)
	assert.Contains(t, c.get("/").Body.String(), "Please choose a task file")
}

// =============================================================================
// Transform Tests
// =============================================================================

func transformRequest(t *testing.T, code string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(TransformSignals{Code: code})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/transform", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return features.AsDatastar(req)
}

func TestTransform_AppliesToActiveSet(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	body := c.do(transformRequest(t, flipCode)).Body.String()
	assert.Contains(t, body, "Solved 3 of 3.")
	assert.Contains(t, body, "badge match")
}

func TestTransform_CompileError(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	body := c.do(transformRequest(t, "answer = 42\n")).Body.String()
	assert.Contains(t, body, "transform-status error")
	assert.Contains(t, body, "code must define a function named transform")
}

func TestTransform_PlainFormPost(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")

	req := httptest.NewRequest(http.MethodPost, "/transform", strings.NewReader("code=def+transform%28g%29%3A%0A++++return+g%0A"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := c.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := c.get("/").Body.String()
	assert.Contains(t, body, "def transform(g):")
	assert.Contains(t, body, "Solved 0 of 3.")
}

// =============================================================================
// Updates Tests - SSE endpoint for live updates only
// =============================================================================

func TestUpdates_SendsViewerOnBroadcast(t *testing.T) {
	c, fixture := setupTestClient(t, features.SampleTask)
	c.get("/")

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	var rec *httptest.ResponseRecorder
	done := make(chan struct{})
	go func() {
		rec = c.do(req)
		close(done)
	}()

	// Simulate the watcher: the task file changes and is reloaded.
	time.Sleep(50 * time.Millisecond)
	fixture.WriteTask(`{"train": [{"input": [[1]], "output": [[2]]}]}`)
	require.NoError(t, fixture.Workspaces.ReloadDefault(fixture.TaskPath))
	fixture.Notifier.Broadcast(fixture.TaskPath)

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1, "should have at least 1 SSE event from broadcast")
	assert.Contains(t, body, "Example 1 of 1")
	assert.Contains(t, body, "1 training example, 0 test examples")
}

func TestUpdates_SkipsSessionsWithTheirOwnTask(t *testing.T) {
	c, fixture := setupTestClient(t, features.SampleTask)
	c.upload("mine.json", `{"train": [{"input": [[5]], "output": [[6]]}], "test": []}`)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 200*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	var rec *httptest.ResponseRecorder
	done := make(chan struct{})
	go func() {
		rec = c.do(req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	fixture.Notifier.Broadcast(fixture.TaskPath)
	<-done

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"), "uploaded task is not replaced by the default")
}

func TestUpdates_NoInitialState(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()

	rec := c.do(req.WithContext(ctx))
	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"), "should have no SSE events without broadcast")
}

// =============================================================================
// ViewJSON Tests
// =============================================================================

func TestViewJSON(t *testing.T) {
	c, _ := setupTestClient(t, features.SampleTask)
	c.get("/")
	c.action("/view/next")

	rec := c.get("/api/view")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		State struct {
			ActiveSet    string `json:"active_set"`
			DisplayMode  string `json:"display_mode"`
			CurrentIndex int    `json:"current_index"`
		} `json:"state"`
		ActiveCount int `json:"active_count"`
		Examples    []struct {
			Index int `json:"index"`
			Input struct {
				Columns int      `json:"columns"`
				Colors  []string `json:"colors"`
			} `json:"input"`
		} `json:"examples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "train", got.State.ActiveSet)
	assert.Equal(t, "single", got.State.DisplayMode)
	assert.Equal(t, 1, got.State.CurrentIndex)
	assert.Equal(t, 3, got.ActiveCount)
	require.Len(t, got.Examples, 1)
	assert.Equal(t, 1, got.Examples[0].Index)
	assert.Equal(t, 2, got.Examples[0].Input.Columns)
	assert.Equal(t, []string{"#FFDC00", "#AAAAAA"}, got.Examples[0].Input.Colors)
}
