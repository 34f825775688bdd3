package transform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/internal/testutil"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

const flipCode = `
def transform(g):
    return [list(reversed(row)) for row in g]
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(Config{Logger: testutil.NewTestLogger(t)})
}

func TestCompile_Errors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		src     string
		wantErr error
		substr  string
	}{
		{name: "empty", src: "", wantErr: ErrEmptyCode},
		{name: "no entry point", src: "x = 1\n", wantErr: ErrNoTransform},
		{name: "entry point not callable", src: "transform = 3\n", wantErr: ErrNoTransform},
		{name: "syntax error", src: "def transform(g)\n    return g\n", substr: "compile"},
		{name: "load is disabled", src: "load('x.star', 'y')\n", substr: "compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Compile(ctx, tt.src)
			require.Error(t, err)

			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "compile", te.Stage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}

func TestApply_Flip(t *testing.T) {
	e := newTestEngine(t)
	prog, err := e.Compile(context.Background(), flipCode)
	require.NoError(t, err)

	out, err := prog.Apply(context.Background(), grid.Matrix{{0, 1}, {2, 3}})
	require.NoError(t, err)
	assert.Equal(t, grid.Matrix{{1, 0}, {3, 2}}, out)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	prog, err := e.Compile(context.Background(), `
def transform(g):
    g[0][0] = 9
    return g
`)
	require.NoError(t, err)

	in := grid.Matrix{{1, 2}}
	out, err := prog.Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, grid.Matrix{{9, 2}}, out)
	assert.Equal(t, grid.Matrix{{1, 2}}, in)
}

func TestApply_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	prog, err := e.Compile(context.Background(), flipCode)
	require.NoError(t, err)

	in := grid.Matrix{{3, 1, 4}, {1, 5, 9}}
	first, err := prog.Apply(context.Background(), in)
	require.NoError(t, err)
	second, err := prog.Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestApply_ResultErrors(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		src   string
		stage string
	}{
		{name: "not a list", src: "def transform(g):\n    return 5\n", stage: "result"},
		{name: "row not a list", src: "def transform(g):\n    return [1, 2]\n", stage: "result"},
		{name: "cell not int", src: "def transform(g):\n    return [['a']]\n", stage: "result"},
		{name: "cell out of range", src: "def transform(g):\n    return [[10]]\n", stage: "result"},
		{name: "ragged", src: "def transform(g):\n    return [[1, 2], [3]]\n", stage: "result"},
		{name: "runtime failure", src: "def transform(g):\n    return g[99]\n", stage: "run"},
		{name: "fail builtin", src: "def transform(g):\n    fail('nope')\n", stage: "run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := e.Compile(context.Background(), tt.src)
			require.NoError(t, err)

			_, err = prog.Apply(context.Background(), grid.Matrix{{1}})
			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.stage, te.Stage)
		})
	}
}

func TestApply_StepLimit(t *testing.T) {
	e := NewEngine(Config{MaxSteps: 10_000, Timeout: time.Minute, Logger: testutil.NewTestLogger(t)})
	prog, err := e.Compile(context.Background(), `
def transform(g):
    while True:
        pass
`)
	require.NoError(t, err)

	_, err = prog.Apply(context.Background(), grid.Matrix{{1}})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "run", te.Stage)
	assert.Contains(t, err.Error(), "too many steps")
}

func TestApply_Timeout(t *testing.T) {
	e := NewEngine(Config{MaxSteps: 1 << 62, Timeout: 50 * time.Millisecond, Logger: testutil.NewTestLogger(t)})
	prog, err := e.Compile(context.Background(), `
def transform(g):
    while True:
        pass
`)
	require.NoError(t, err)

	start := time.Now()
	_, err = prog.Apply(context.Background(), grid.Matrix{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestApply_TopLevelStateIsFrozen(t *testing.T) {
	e := newTestEngine(t)
	prog, err := e.Compile(context.Background(), `
seen = []
def transform(g):
    seen.append(1)
    return g
`)
	require.NoError(t, err)

	_, err = prog.Apply(context.Background(), grid.Matrix{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frozen")
}

func TestHelpers(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		src  string
		in   grid.Matrix
		want grid.Matrix
	}{
		{
			name: "new with fill",
			src:  "def transform(g):\n    return grid.new(2, 3, fill=4)\n",
			in:   grid.Matrix{{0}},
			want: grid.Matrix{{4, 4, 4}, {4, 4, 4}},
		},
		{
			name: "size",
			src:  "def transform(g):\n    r, c = grid.size(g)\n    return [[r, c]]\n",
			in:   grid.Matrix{{0, 0, 0}, {0, 0, 0}},
			want: grid.Matrix{{2, 3}},
		},
		{
			name: "transpose",
			src:  "def transform(g):\n    return grid.transpose(g)\n",
			in:   grid.Matrix{{1, 2, 3}, {4, 5, 6}},
			want: grid.Matrix{{1, 4}, {2, 5}, {3, 6}},
		},
		{
			name: "copy is independent",
			src:  "def transform(g):\n    c = grid.copy(g)\n    c[0][0] = 7\n    return g + c\n",
			in:   grid.Matrix{{1}},
			want: grid.Matrix{{1}, {7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := e.Compile(context.Background(), tt.src)
			require.NoError(t, err)
			got, err := prog.Apply(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHelpers_NewRejectsHugeGrids(t *testing.T) {
	e := newTestEngine(t)
	prog, err := e.Compile(context.Background(), "def transform(g):\n    return grid.new(1000, 1000)\n")
	require.NoError(t, err)

	_, err = prog.Apply(context.Background(), grid.Matrix{{0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestHelpers_NewRejectsOverflowingDimensions(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		call string
	}{
		{"rows overflow", "grid.new(1 << 62, 4)"},
		{"cols overflow", "grid.new(4, 1 << 62)"},
		{"both large", "grid.new(1 << 32, 1 << 32)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "def transform(g):\n    return " + tt.call + "\n"

			var results []Result
			var err error
			require.NotPanics(t, func() {
				results, err = e.Run(context.Background(), src, []grid.Example{{Input: grid.Matrix{{0}}}})
			})
			require.NoError(t, err)
			require.Len(t, results, 1)

			var terr *Error
			require.ErrorAs(t, results[0].Err, &terr)
			assert.Equal(t, "run", terr.Stage)
			assert.Contains(t, terr.Error(), "exceeds")
		})
	}
}

func TestRun(t *testing.T) {
	e := newTestEngine(t)
	flipped := grid.Matrix{{1, 0}}
	wrong := grid.Matrix{{5, 5}}
	examples := []grid.Example{
		{Input: grid.Matrix{{0, 1}}, Output: &flipped},
		{Input: grid.Matrix{{0, 1}}, Output: &wrong},
		{Input: grid.Matrix{{2, 3}}},
	}

	results, err := e.Run(context.Background(), flipCode, examples)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Matches)
	assert.True(t, *results[0].Matches)
	require.NotNil(t, results[1].Matches)
	assert.False(t, *results[1].Matches)
	assert.Nil(t, results[2].Matches)
	assert.Equal(t, grid.Matrix{{3, 2}}, results[2].Output)

	solved, checked := Summary(results)
	assert.Equal(t, 1, solved)
	assert.Equal(t, 2, checked)
}

func TestRun_LogsSubmissionsAndPrints(t *testing.T) {
	rec, logger := testutil.NewLogRecorder(t)
	e := NewEngine(Config{Logger: logger})

	src := `
def transform(g):
    print("rows", len(g))
    return g
`
	_, err := e.Run(context.Background(), src, []grid.Example{{Input: grid.Matrix{{1}, {2}}}})
	require.NoError(t, err)

	assert.Len(t, rec.Lines("transform submitted", "examples=1"), 1)
	assert.Len(t, rec.Lines("transform print", "rows 2"), 1)
}

func TestRun_CompileErrorIsReturned(t *testing.T) {
	e := newTestEngine(t)
	results, err := e.Run(context.Background(), "nothing = None\n", []grid.Example{{Input: grid.Matrix{{1}}}})
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, ErrNoTransform))
}

func TestRun_PerExampleErrors(t *testing.T) {
	e := newTestEngine(t)
	src := `
def transform(g):
    if len(g) > 1:
        fail("too tall")
    return g
`
	results, err := e.Run(context.Background(), src, []grid.Example{
		{Input: grid.Matrix{{1}}},
		{Input: grid.Matrix{{1}, {2}}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "too tall")
}

func TestRun_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, flipCode, []grid.Example{{Input: grid.Matrix{{1}}}})
	require.Error(t, err)
}
