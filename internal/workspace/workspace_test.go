package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/testutil"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

const threeTrain = `{
  "train": [
    {"input": [[0, 1]], "output": [[1, 0]]},
    {"input": [[2, 3]], "output": [[3, 2]]},
    {"input": [[4, 5]], "output": [[5, 4]]}
  ],
  "test": [{"input": [[6, 7]]}]
}`

const flipCode = `
def transform(g):
    return [list(reversed(row)) for row in g]
`

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return New(Config{
		Viewer: viewstate.Options{InitialMode: viewstate.ModeSingle, LockTestToAll: true},
		Logger: testutil.NewTestLogger(t),
	})
}

func TestLoad_ReplacesDatasetAndResetsView(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	ws.Next()
	ws.Next()
	assert.Equal(t, 2, ws.View().State.CurrentIndex)

	require.NoError(t, ws.Load("b.json", []byte(threeTrain)))
	v := ws.View()
	assert.Equal(t, "b.json", v.Name)
	assert.Equal(t, 0, v.State.CurrentIndex)
	assert.Equal(t, 3, v.TrainCount)
	assert.Equal(t, 1, v.TestCount)
}

// Scenario D: malformed JSON leaves the dataset unchanged.
func TestLoad_FailureKeepsPreviousDataset(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("good.json", []byte(threeTrain)))
	ws.Next()
	before := ws.Dataset()

	err := ws.Load("bad.json", []byte(`{"train": [`))
	require.Error(t, err)
	assert.True(t, loader.IsParseError(err))

	assert.Same(t, before, ws.Dataset())
	v := ws.View()
	assert.Equal(t, "good.json", v.Name)
	assert.Equal(t, 1, v.State.CurrentIndex)
	assert.NotEmpty(t, v.LoadErr)

	require.NoError(t, ws.Load("good.json", []byte(threeTrain)))
	assert.Empty(t, ws.View().LoadErr)
}

func TestLoad_ValidationFailureKeepsPreviousDataset(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("good.json", []byte(threeTrain)))
	before := ws.Dataset()

	err := ws.Load("ragged.json", []byte(`{"train": [{"input": [[1, 2], [3]], "output": [[1]]}]}`))
	require.Error(t, err)
	assert.NotEmpty(t, grid.ValidationErrors(err))
	assert.Same(t, before, ws.Dataset())
}

func TestLoadFile(t *testing.T) {
	ws := newTestWorkspace(t)
	path := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(path, []byte(threeTrain), 0600))

	require.NoError(t, ws.LoadFile(path))
	assert.Equal(t, path, ws.Name())

	assert.Error(t, ws.LoadFile(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, path, ws.Name())
}

func TestLoadFile_LogsOutcome(t *testing.T) {
	rec, logger := testutil.NewLogRecorder(t)
	ws := New(Config{Logger: logger})
	path := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(path, []byte(threeTrain), 0600))

	require.NoError(t, ws.LoadFile(path))
	assert.Len(t, rec.Lines("task loaded", "train=3", "test=1"), 1)

	missing := filepath.Join(t.TempDir(), "missing.json")
	require.Error(t, ws.LoadFile(missing))
	assert.Len(t, rec.Lines("task rejected", "missing.json"), 1)
}

func TestTakeLoadErr_ClearsAfterRead(t *testing.T) {
	ws := newTestWorkspace(t)
	assert.Empty(t, ws.TakeLoadErr())

	require.Error(t, ws.Load("bad.json", []byte(`{"train": [`)))
	assert.Contains(t, ws.TakeLoadErr(), "error parsing")
	assert.Empty(t, ws.TakeLoadErr())
	assert.Empty(t, ws.View().LoadErr)
}

func TestView_SingleAndAll(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	v := ws.View()
	require.Len(t, v.Examples, 1)
	assert.Equal(t, 0, v.Examples[0].Index)
	assert.True(t, v.CanNext)
	assert.False(t, v.CanPrevious)

	require.NoError(t, ws.SetDisplayMode(viewstate.ModeAll))
	v = ws.View()
	require.Len(t, v.Examples, 3)
	assert.False(t, v.CanNext)
}

// Scenario B: the test set with one output-less example.
func TestView_TestSetSkipsOutput(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	ws.SetActiveSet(grid.SetTest)
	v := ws.View()
	assert.Equal(t, 0, v.State.CurrentIndex)
	assert.Equal(t, viewstate.ModeAll, v.State.DisplayMode)
	require.Len(t, v.Examples, 1)
	assert.Nil(t, v.Examples[0].Output)

	assert.ErrorIs(t, ws.SetDisplayMode(viewstate.ModeSingle), viewstate.ErrDisplayModeLocked)
}

func TestView_EmptyWorkspace(t *testing.T) {
	ws := newTestWorkspace(t)
	v := ws.View()
	assert.Empty(t, v.Examples)
	assert.NotNil(t, v.Examples)
	assert.Equal(t, 0, v.ActiveCount)
}

func TestApply_StoresResults(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	results, err := ws.Apply(context.Background(), flipCode)
	require.NoError(t, err)
	require.Len(t, results, 3)

	v := ws.View()
	assert.True(t, v.Applied)
	assert.Equal(t, 3, v.Solved)
	assert.Equal(t, 3, v.Checked)
	assert.Equal(t, flipCode, v.Code)

	require.Len(t, v.Examples, 1)
	ex := v.Examples[0]
	assert.True(t, ex.Transformed)
	require.NotNil(t, ex.Matches)
	assert.True(t, *ex.Matches)
	assert.Equal(t, ex.Output.Colors, ex.Middle.Colors)
}

func TestApply_CompileErrorIsRecorded(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	_, err := ws.Apply(context.Background(), "x = 1\n")
	require.Error(t, err)

	v := ws.View()
	assert.True(t, v.Applied)
	assert.NotEmpty(t, v.ApplyErr)
	assert.Equal(t, v.Examples[0].Input.Colors, v.Examples[0].Middle.Colors)
}

func TestApply_ClearedBySetSwitchAndLoad(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	_, err := ws.Apply(context.Background(), flipCode)
	require.NoError(t, err)

	ws.SetActiveSet(grid.SetTest)
	assert.False(t, ws.View().Applied)

	ws.SetActiveSet(grid.SetTrain)
	_, err = ws.Apply(context.Background(), flipCode)
	require.NoError(t, err)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))
	v := ws.View()
	assert.False(t, v.Applied)
	assert.Equal(t, flipCode, v.Code, "code survives a reload")
}

func TestApply_PerExampleError(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.Load("a.json", []byte(threeTrain)))

	src := `
def transform(g):
    if g[0][0] == 0:
        fail("first")
    return [list(reversed(row)) for row in g]
`
	_, err := ws.Apply(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, ws.SetDisplayMode(viewstate.ModeAll))
	v := ws.View()
	require.Len(t, v.Examples, 3)
	assert.False(t, v.Examples[0].Transformed)
	assert.Contains(t, v.Examples[0].TransformErr, "first")
	assert.True(t, v.Examples[1].Transformed)
	assert.Equal(t, 2, v.Solved)
	assert.Equal(t, 3, v.Checked)
}
