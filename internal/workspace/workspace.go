// Package workspace holds the in-memory viewer state of one user.
//
// A Workspace ties a loaded dataset to its view-state controller and the
// results of the last applied transform. All methods are safe for
// concurrent use; the web UI shares one workspace between the requests of
// a session.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// Config holds the collaborators shared by every workspace.
type Config struct {
	Viewer   viewstate.Options
	Renderer *render.Renderer
	Engine   *transform.Engine
	Logger   *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Renderer == nil {
		c.Renderer = render.New(render.DefaultOutputCellSize, true)
	}
	if c.Engine == nil {
		c.Engine = transform.NewEngine(transform.Config{Logger: c.Logger})
	}
	return c
}

// Workspace is one user's dataset, view state and transform results.
type Workspace struct {
	mu  sync.Mutex
	cfg Config

	name        string
	dataset     *grid.Dataset
	fromDefault bool
	ctrl        *viewstate.Controller
	loadErr     string

	code     string
	applied  bool
	applyErr string
	results  []transform.Result

	lastUsed time.Time
}

// New creates a workspace with an empty dataset.
func New(cfg Config) *Workspace {
	cfg = cfg.withDefaults()
	return &Workspace{
		cfg:      cfg,
		dataset:  &grid.Dataset{},
		ctrl:     viewstate.New(cfg.Viewer),
		lastUsed: time.Now(),
	}
}

// Load parses content and, on success, replaces the dataset and resets the
// view. On failure nothing changes except the recorded load error, which is
// returned.
func (w *Workspace) Load(name string, content []byte) error {
	ds, err := loader.Parse(content)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if err != nil {
		w.loadErr = err.Error()
		w.cfg.Logger.Info("task rejected", "name", name, "error", err)
		return err
	}
	w.replace(name, ds, false)
	w.cfg.Logger.Info("task loaded", "name", name, "train", len(ds.Train), "test", len(ds.Test))
	return nil
}

// LoadFile is Load for a file on disk; YAML task files are accepted.
func (w *Workspace) LoadFile(path string) error {
	ds, err := loader.LoadFile(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if err != nil {
		w.loadErr = err.Error()
		w.cfg.Logger.Info("task rejected", "name", path, "error", err)
		return err
	}
	w.replace(path, ds, false)
	w.cfg.Logger.Info("task loaded", "name", path, "train", len(ds.Train), "test", len(ds.Test))
	return nil
}

// TakeLoadErr returns the recorded load error and clears it, so a page
// render reports each rejected file once.
func (w *Workspace) TakeLoadErr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := w.loadErr
	w.loadErr = ""
	return msg
}

// setDefault installs a shared dataset that was already validated.
func (w *Workspace) setDefault(name string, ds *grid.Dataset) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replace(name, ds, true)
}

func (w *Workspace) replace(name string, ds *grid.Dataset, fromDefault bool) {
	w.name = name
	w.dataset = ds
	w.fromDefault = fromDefault
	w.loadErr = ""
	w.clearResults()
	w.ctrl.Reset(len(ds.Train), len(ds.Test))
}

func (w *Workspace) clearResults() {
	w.applied = false
	w.applyErr = ""
	w.results = nil
}

// Name returns the source name of the loaded dataset.
func (w *Workspace) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.name
}

// Dataset returns the loaded dataset. Callers must not modify it.
func (w *Workspace) Dataset() *grid.Dataset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dataset
}

// SetActiveSet switches the active set. Transform results are discarded
// because they belong to the previous set.
func (w *Workspace) SetActiveSet(set grid.SetKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if set != w.ctrl.State().ActiveSet {
		w.clearResults()
	}
	w.ctrl.SetActiveSet(set)
}

// ToggleActiveSet switches between train and test.
func (w *Workspace) ToggleActiveSet() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.clearResults()
	w.ctrl.ToggleActiveSet()
}

// SetDisplayMode changes the display mode; see viewstate.Controller.
func (w *Workspace) SetDisplayMode(mode viewstate.DisplayMode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.ctrl.SetDisplayMode(mode)
}

// ToggleDisplayMode switches between single and all.
func (w *Workspace) ToggleDisplayMode() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.ctrl.ToggleDisplayMode()
}

// Next moves to the next example in single mode.
func (w *Workspace) Next() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.ctrl.Next()
}

// Previous moves to the previous example in single mode.
func (w *Workspace) Previous() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.ctrl.Previous()
}

// Apply runs code over every example of the active set and keeps the
// results for display. A compile error is recorded and returned.
func (w *Workspace) Apply(ctx context.Context, code string) ([]transform.Result, error) {
	w.mu.Lock()
	w.touch()
	set := w.ctrl.State().ActiveSet
	examples := w.dataset.Examples(set)
	ds := w.dataset
	w.mu.Unlock()

	results, err := w.cfg.Engine.Run(ctx, code, examples)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.code = code
	if w.dataset != ds || w.ctrl.State().ActiveSet != set {
		// The view moved on while the transform ran.
		return results, err
	}
	w.applied = true
	w.results = results
	w.applyErr = ""
	if err != nil {
		w.applyErr = err.Error()
	}
	return results, err
}

// Code returns the last submitted transform code.
func (w *Workspace) Code() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.code
}

// View is a snapshot of everything needed to draw the workspace.
type View struct {
	Name        string               `json:"name"`
	State       viewstate.State      `json:"state"`
	TrainCount  int                  `json:"train_count"`
	TestCount   int                  `json:"test_count"`
	ActiveCount int                  `json:"active_count"`
	CanNext     bool                 `json:"can_next"`
	CanPrevious bool                 `json:"can_previous"`
	Examples    []render.ExampleView `json:"examples"`
	LoadErr     string               `json:"load_error,omitempty"`
	Code        string               `json:"code,omitempty"`
	Applied     bool                 `json:"applied"`
	ApplyErr    string               `json:"apply_error,omitempty"`
	Solved      int                  `json:"solved"`
	Checked     int                  `json:"checked"`
}

// View renders the visible examples of the active set.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := w.ctrl.State()
	v := View{
		Name:        w.name,
		State:       st,
		TrainCount:  len(w.dataset.Train),
		TestCount:   len(w.dataset.Test),
		ActiveCount: w.ctrl.ActiveCount(),
		CanNext:     w.ctrl.CanNext(),
		CanPrevious: w.ctrl.CanPrevious(),
		LoadErr:     w.loadErr,
		Code:        w.code,
		Applied:     w.applied,
		ApplyErr:    w.applyErr,
		Examples:    []render.ExampleView{},
	}
	if w.applied {
		v.Solved, v.Checked = transform.Summary(w.results)
	}

	for _, idx := range w.ctrl.Visible() {
		var res *transform.Result
		if idx < len(w.results) {
			res = &w.results[idx]
		}

		var transformed *grid.Matrix
		if res != nil && res.Err == nil {
			transformed = &res.Output
		}
		ev, ok := w.cfg.Renderer.RenderExample(w.dataset, st.ActiveSet, idx, transformed)
		if !ok {
			continue
		}
		if res != nil {
			ev.Transformed = res.Err == nil
			ev.Matches = res.Matches
			if res.Err != nil {
				ev.TransformErr = res.Err.Error()
			}
		}
		v.Examples = append(v.Examples, ev)
	}
	return v
}

func (w *Workspace) touch() {
	w.lastUsed = time.Now()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// ShowsDefault reports whether w still shows the store's default task.
func (w *Workspace) ShowsDefault() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fromDefault
}
