// Package transform runs user-supplied transformation code over task grids.
//
// Transformation code is Starlark. It must define a function
//
//	def transform(grid):
//	    return ...
//
// that takes an input grid (a list of lists of ints) and returns the output
// grid. Execution is sandboxed: there is no load(), no I/O, a bounded step
// budget and a wall-clock timeout. Given the same code and input a
// transform always produces the same output.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/arcview/pkg/grid"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// EntryPoint is the function name transform code must define.
const EntryPoint = "transform"

// Default execution limits.
const (
	DefaultMaxSteps = 5_000_000
	DefaultTimeout  = 2 * time.Second
)

// ErrNoTransform is returned when the code does not define a callable transform.
var ErrNoTransform = errors.New("code must define a function named " + EntryPoint + "(grid)")

// ErrEmptyCode is returned for blank submissions.
var ErrEmptyCode = errors.New("transformation code is empty")

// fileOptions enables the full language; the step budget bounds execution.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Error wraps a failure at one stage of running transform code.
type Error struct {
	Stage string // "compile", "run" or "result"
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds execution limits.
type Config struct {
	MaxSteps uint64
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Engine compiles and runs transform code.
type Engine struct {
	maxSteps uint64
	timeout  time.Duration
	logger   *slog.Logger
}

// NewEngine creates an engine, filling unset limits with defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		maxSteps: cfg.MaxSteps,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Program is compiled transform code, ready to apply to grids.
type Program struct {
	engine *Engine
	fn     starlark.Callable
}

// Compile executes the top level of src and looks up the transform function.
// Globals are frozen afterwards so applications cannot affect each other.
func (e *Engine) Compile(ctx context.Context, src string) (*Program, error) {
	if len(src) == 0 {
		return nil, &Error{Stage: "compile", Err: ErrEmptyCode}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	thread, release := e.newThread(ctx, "compile")
	defer release()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "transform.star", src, Predeclared())
	if err != nil {
		return nil, &Error{Stage: "compile", Err: describe(err)}
	}
	globals.Freeze()

	fn, ok := globals[EntryPoint].(starlark.Callable)
	if !ok {
		return nil, &Error{Stage: "compile", Err: ErrNoTransform}
	}
	return &Program{engine: e, fn: fn}, nil
}

// Apply runs the transform on one input grid and validates the result.
func (p *Program) Apply(ctx context.Context, input grid.Matrix) (out grid.Matrix, err error) {
	e := p.engine
	// A panic inside a builtin must not take down the caller.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("transform panicked", "panic", r)
			out, err = nil, &Error{Stage: "run", Err: fmt.Errorf("internal error: %v", r)}
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	thread, release := e.newThread(ctx, "apply")
	defer release()

	v, err := starlark.Call(thread, p.fn, starlark.Tuple{MatrixToStarlark(input)}, nil)
	if err != nil {
		return nil, &Error{Stage: "run", Err: describe(err)}
	}

	out, err = MatrixFromStarlark(v)
	if err != nil {
		return nil, &Error{Stage: "result", Err: err}
	}
	if err := out.Validate(); err != nil {
		return nil, &Error{Stage: "result", Err: err}
	}
	return out, nil
}

// Result is the outcome of applying a transform to one example.
type Result struct {
	Index   int
	Output  grid.Matrix
	Err     error
	Matches *bool // nil when the example has no expected output; false on error
}

// Run compiles src and applies it to every example. A compile failure is
// returned as the error; per-example failures are recorded in the results.
func (e *Engine) Run(ctx context.Context, src string, examples []grid.Example) ([]Result, error) {
	e.logger.Info("transform submitted", "bytes", len(src), "examples", len(examples))

	prog, err := e.Compile(ctx, src)
	if err != nil {
		e.logger.Debug("transform compile failed", "error", err)
		return nil, err
	}

	results := make([]Result, len(examples))
	for i, ex := range examples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := Result{Index: i}
		res.Output, res.Err = prog.Apply(ctx, ex.Input)
		if ex.Output != nil {
			match := res.Err == nil && res.Output.Equal(*ex.Output)
			res.Matches = &match
		}
		if res.Err != nil {
			e.logger.Debug("transform failed", "example", i, "error", res.Err)
		}
		results[i] = res
	}
	return results, nil
}

// Summary counts solved examples among results that have an expected output.
func Summary(results []Result) (solved, checked int) {
	for _, r := range results {
		if r.Matches == nil {
			continue
		}
		checked++
		if *r.Matches {
			solved++
		}
	}
	return solved, checked
}

// newThread creates a step-bounded thread that is cancelled when ctx ends.
func (e *Engine) newThread(ctx context.Context, name string) (*starlark.Thread, func() bool) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.Debug("transform print", "msg", msg)
		},
	}
	thread.SetMaxExecutionSteps(e.maxSteps)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	return thread, stop
}

// describe keeps the Starlark backtrace for evaluation errors.
func describe(err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return errors.New(evalErr.Backtrace())
	}
	return err
}
