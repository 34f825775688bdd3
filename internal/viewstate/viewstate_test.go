package viewstate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/pkg/grid"
)

func TestController_Defaults(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	s := c.State()

	assert.Equal(t, grid.SetTrain, s.ActiveSet)
	assert.Equal(t, ModeSingle, s.DisplayMode)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.False(t, s.ModeLocked)
	assert.Empty(t, c.Visible(), "nothing is visible before a dataset is loaded")
	assert.False(t, c.CanNext())
	assert.False(t, c.CanPrevious())
}

func TestController_ScenarioC(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	c.Reset(3, 0)

	c.Previous()
	assert.Equal(t, 0, c.State().CurrentIndex, "previous at the first example is a no-op")

	c.Next()
	c.Next()
	assert.Equal(t, 2, c.State().CurrentIndex)

	c.Next()
	assert.Equal(t, 2, c.State().CurrentIndex, "next at the last example is a no-op")
	assert.False(t, c.CanNext())
	assert.True(t, c.CanPrevious())
	assert.Equal(t, []int{2}, c.Visible())
}

func TestController_SetActiveSetResetsIndex(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	c.Reset(4, 3)
	c.Next()
	c.Next()
	require.Equal(t, 2, c.State().CurrentIndex)

	c.SetActiveSet(grid.SetTest)
	assert.Equal(t, 0, c.State().CurrentIndex)
	assert.Equal(t, 3, c.ActiveCount())

	c.Next()
	c.SetActiveSet(grid.SetTest)
	assert.Equal(t, 0, c.State().CurrentIndex, "re-selecting the same set also resets")

	c.ToggleActiveSet()
	assert.Equal(t, grid.SetTrain, c.State().ActiveSet)
	assert.Equal(t, 0, c.State().CurrentIndex)
}

func TestController_ResetReturnsToFirst(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	c.Reset(5, 0)
	c.Next()
	c.Next()

	c.Reset(1, 0)
	assert.Equal(t, 0, c.State().CurrentIndex)
	assert.Equal(t, 1, c.ActiveCount())
}

func TestController_AllMode(t *testing.T) {
	c := New(Options{InitialMode: ModeAll})
	c.Reset(3, 1)

	assert.Equal(t, []int{0, 1, 2}, c.Visible())
	assert.False(t, c.CanNext(), "paging is disabled in all mode")

	c.Next()
	assert.Equal(t, 0, c.State().CurrentIndex)

	require.NoError(t, c.SetDisplayMode(ModeSingle))
	assert.Equal(t, []int{0}, c.Visible())
	assert.True(t, c.CanNext())
}

func TestController_LockTestToAll(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle, LockTestToAll: true})
	c.Reset(2, 2)

	c.SetActiveSet(grid.SetTest)
	s := c.State()
	assert.Equal(t, ModeAll, s.DisplayMode, "switching to test forces all mode")
	assert.True(t, s.ModeLocked)

	err := c.SetDisplayMode(ModeSingle)
	require.ErrorIs(t, err, ErrDisplayModeLocked)
	assert.Equal(t, ModeAll, c.State().DisplayMode, "locked mode is unchanged")

	c.SetActiveSet(grid.SetTrain)
	s = c.State()
	assert.False(t, s.ModeLocked)
	assert.Equal(t, ModeAll, s.DisplayMode, "returning to train does not revert the mode")

	require.NoError(t, c.SetDisplayMode(ModeSingle))
	assert.Equal(t, ModeSingle, c.State().DisplayMode)
}

func TestController_NoLockWithoutOption(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	c.Reset(1, 2)

	c.SetActiveSet(grid.SetTest)
	assert.Equal(t, ModeSingle, c.State().DisplayMode)
	assert.NoError(t, c.ToggleDisplayMode())
	assert.Equal(t, ModeAll, c.State().DisplayMode)
}

func TestController_EmptyActiveSet(t *testing.T) {
	c := New(Options{InitialMode: ModeSingle})
	c.Reset(0, 0)

	c.Next()
	c.Previous()
	assert.Equal(t, 0, c.State().CurrentIndex)
	assert.Empty(t, c.Visible())
}

// TestController_IndexAlwaysInBounds drives random operation sequences and
// checks the paging invariant after every step.
func TestController_IndexAlwaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 200; run++ {
		c := New(Options{InitialMode: DisplayMode(rng.IntN(2)), LockTestToAll: rng.IntN(2) == 0})
		c.Reset(rng.IntN(6), rng.IntN(6))

		for step := 0; step < 50; step++ {
			switch rng.IntN(6) {
			case 0:
				c.Next()
			case 1:
				c.Previous()
			case 2:
				c.ToggleActiveSet()
				require.Equal(t, 0, c.State().CurrentIndex)
			case 3:
				_ = c.ToggleDisplayMode()
			case 4:
				c.Reset(rng.IntN(6), rng.IntN(6))
				require.Equal(t, 0, c.State().CurrentIndex)
			default:
				c.Next()
				c.Next()
			}

			idx := c.State().CurrentIndex
			require.GreaterOrEqual(t, idx, 0)
			if n := c.ActiveCount(); n > 0 {
				require.Less(t, idx, n)
			}
			if c.ModeLocked() {
				require.Equal(t, ModeAll, c.State().DisplayMode)
			}
		}
	}
}

func TestParseDisplayMode(t *testing.T) {
	m, err := ParseDisplayMode("ALL")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, m)

	m, err = ParseDisplayMode("single")
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, m)

	_, err = ParseDisplayMode("grid")
	assert.Error(t, err)
}
