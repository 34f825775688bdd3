// Package viewstate tracks which examples of a task are on screen.
//
// A Controller owns the active set (train/test), the display mode
// (one example at a time, or all of them) and the paging index. It knows
// only the size of each set, never the examples themselves.
package viewstate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/arcview/pkg/grid"
)

// ErrDisplayModeLocked is returned by SetDisplayMode while the Test set
// is active and LockTestToAll is enabled.
var ErrDisplayModeLocked = errors.New("display mode is locked while viewing the test set")

// DisplayMode selects between paging and showing every example.
type DisplayMode int

// Display modes.
const (
	// ModeSingle shows one example with previous/next paging.
	ModeSingle DisplayMode = iota
	// ModeAll shows every example of the active set.
	ModeAll
)

// String returns the configuration name of the mode.
func (m DisplayMode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeAll:
		return "all"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m DisplayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseDisplayMode converts "single" or "all" to a DisplayMode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "paged", "one":
		return ModeSingle, nil
	case "all", "show-all":
		return ModeAll, nil
	default:
		return ModeSingle, fmt.Errorf("unknown display mode %q (expected single or all)", s)
	}
}

// Options configure a Controller.
type Options struct {
	// InitialMode is the display mode a fresh controller starts in.
	InitialMode DisplayMode
	// LockTestToAll forces ModeAll whenever the Test set is active and
	// rejects manual mode changes until Train is selected again.
	LockTestToAll bool
}

// State is a snapshot of a Controller.
type State struct {
	ActiveSet    grid.SetKind `json:"active_set"`
	DisplayMode  DisplayMode  `json:"display_mode"`
	CurrentIndex int          `json:"current_index"`
	ModeLocked   bool         `json:"mode_locked"`
}

// Controller is the view-state machine over {Single, All} x {Train, Test}.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	opts      Options
	activeSet grid.SetKind
	mode      DisplayMode
	index     int
	counts    [2]int
}

// New creates a controller on the Train set with no examples loaded.
func New(opts Options) *Controller {
	return &Controller{
		opts:      opts,
		activeSet: grid.SetTrain,
		mode:      opts.InitialMode,
	}
}

// Options returns the controller's configuration.
func (c *Controller) Options() Options {
	return c.opts
}

// Reset records the sizes of a freshly loaded dataset and returns to the
// first example. The active set and mode carry over.
func (c *Controller) Reset(trainCount, testCount int) {
	c.counts[grid.SetTrain] = max(trainCount, 0)
	c.counts[grid.SetTest] = max(testCount, 0)
	c.index = 0
	c.applyLock()
}

// SetActiveSet switches the displayed set and returns to its first example.
func (c *Controller) SetActiveSet(set grid.SetKind) {
	if set != grid.SetTest {
		set = grid.SetTrain
	}
	c.activeSet = set
	c.index = 0
	c.applyLock()
}

// ToggleActiveSet switches between Train and Test.
func (c *Controller) ToggleActiveSet() {
	if c.activeSet == grid.SetTrain {
		c.SetActiveSet(grid.SetTest)
		return
	}
	c.SetActiveSet(grid.SetTrain)
}

// SetDisplayMode changes the display mode. Returns ErrDisplayModeLocked
// and leaves the state untouched while the mode is locked.
func (c *Controller) SetDisplayMode(mode DisplayMode) error {
	if c.ModeLocked() {
		return ErrDisplayModeLocked
	}
	if mode != ModeAll {
		mode = ModeSingle
	}
	c.mode = mode
	c.clamp()
	return nil
}

// ToggleDisplayMode switches between Single and All.
func (c *Controller) ToggleDisplayMode() error {
	if c.mode == ModeSingle {
		return c.SetDisplayMode(ModeAll)
	}
	return c.SetDisplayMode(ModeSingle)
}

// Next advances to the following example. It is a no-op in All mode and
// at the last example.
func (c *Controller) Next() {
	if c.CanNext() {
		c.index++
	}
}

// Previous goes back one example. It is a no-op in All mode and at the
// first example.
func (c *Controller) Previous() {
	if c.CanPrevious() {
		c.index--
	}
}

// CanNext reports whether Next would move.
func (c *Controller) CanNext() bool {
	return c.mode == ModeSingle && c.index < c.ActiveCount()-1
}

// CanPrevious reports whether Previous would move.
func (c *Controller) CanPrevious() bool {
	return c.mode == ModeSingle && c.index > 0
}

// ModeLocked reports whether manual display-mode changes are disabled.
func (c *Controller) ModeLocked() bool {
	return c.opts.LockTestToAll && c.activeSet == grid.SetTest
}

// ActiveCount returns the number of examples in the active set.
func (c *Controller) ActiveCount() int {
	return c.counts[c.activeSet]
}

// Visible returns the indices of the examples to display, in order.
func (c *Controller) Visible() []int {
	n := c.ActiveCount()
	if n == 0 {
		return []int{}
	}
	if c.mode == ModeSingle {
		return []int{c.index}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	return State{
		ActiveSet:    c.activeSet,
		DisplayMode:  c.mode,
		CurrentIndex: c.index,
		ModeLocked:   c.ModeLocked(),
	}
}

func (c *Controller) applyLock() {
	if c.ModeLocked() {
		c.mode = ModeAll
	}
	c.clamp()
}

func (c *Controller) clamp() {
	n := c.ActiveCount()
	if c.index > n-1 {
		c.index = n - 1
	}
	if c.index < 0 {
		c.index = 0
	}
}
