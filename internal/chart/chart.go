// Package chart turns a free-text chart request plus the current query
// result into a rendered chart. The generation collaborator emits Starlark
// code; the code is evaluated with exactly two bound names, the chart
// factory and the result data, never with ambient scope. Whatever handle
// the code creates is tracked and destroyed before the next draw.
package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/store"
)

// ErrNoChartCode reports a completion with no fenced Starlark block to
// execute. Reported, non-fatal.
var ErrNoChartCode = errors.New("could not generate chart code")

// ErrNoResult reports a draw attempt with no current query result.
var ErrNoResult = errors.New("no query result to chart")

// ErrPending reports a draw attempt while a previous one is in flight.
var ErrPending = errors.New("a chart request is already in flight")

// EvalFault wraps a fault raised while running generated chart code. The
// canvas is left with no chart attached.
type EvalFault struct {
	Err error
}

func (f *EvalFault) Error() string {
	return fmt.Sprintf("failed to draw chart: %v", f.Err)
}

func (f *EvalFault) Unwrap() error { return f.Err }

// Spec is the declarative chart description generated code hands to the
// renderer: a chart type, labeled data, and free-form options.
type Spec struct {
	Type    string
	Title   string
	Data    map[string]any
	Options map[string]any
}

// Handle is a rendered chart. Destroy releases whatever the renderer bound
// to the canvas; it must be safe to call once per handle.
type Handle interface {
	Destroy()
}

// Renderer is the charting collaborator: a factory that binds a chart
// description to a canvas-like target and returns a disposable handle.
type Renderer interface {
	New(target string, spec Spec) (Handle, error)
}

// Generator is the text-generation surface the orchestrator needs.
type Generator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Orchestrator owns the single current chart for a session.
type Orchestrator struct {
	gen      Generator
	renderer Renderer
	canvas   string
	logger   *slog.Logger

	mu      sync.Mutex
	pending bool
	current Handle
}

// New creates an orchestrator drawing onto the named canvas.
func New(gen Generator, renderer Renderer, canvas string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if canvas == "" {
		canvas = "chart"
	}
	return &Orchestrator{gen: gen, renderer: renderer, canvas: canvas, logger: logger}
}

const drawInstruction = `Write Starlark code to draw a chart.
Write the code inside a ` + "```star" + ` code fence.
Call chart.new(type=..., data=..., options=...) to draw. type is one of "bar", "line", "pie".
data must be a dict with "labels" (a list) and "datasets" (a list of dicts with "label" and "data" keys).
The query result is ALREADY available as ` + "`data`" + `, a list of dicts. Do not create it. Just use it.

` + "```star" + `
labels = [row["name"] for row in data]
values = [row["total"] for row in data]
chart.new(
    type = "bar",
    data = {"labels": labels, "datasets": [{"label": "total", "data": values}]},
)
` + "```" + `
`

// Draw asks the generator for chart code anchored to the current result and
// evaluates it. The previously rendered chart is destroyed before new code
// runs, so a stale handle is never left attached when the canvas is
// replaced; a fault during evaluation leaves no chart attached.
func (o *Orchestrator) Draw(ctx context.Context, question, intent string, rows *store.Rows) (Handle, error) {
	if rows.Len() == 0 {
		return nil, ErrNoResult
	}
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	sample, err := sampleJSON(rows, 3)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Question: %s\n\n// First 3 rows of result\ndata = %s\n\nIMPORTANT: %s", question, sample, intent)

	raw, err := o.gen.Complete(ctx, llm.Request{System: drawInstruction, User: user})
	if err != nil {
		return nil, err
	}

	code, found := llm.FirstFencedBlockTagged(raw, "star", "starlark", "python")
	if !found {
		return nil, ErrNoChartCode
	}
	o.logger.Debug("generated chart code", "code", code)

	// The canvas is replaced before the new code runs: drop the previous
	// chart now so a fault cannot leave a stale handle attached.
	o.destroyCurrent()

	handle, err := o.eval(code, rows)
	if err != nil {
		return nil, &EvalFault{Err: err}
	}
	if handle == nil {
		return nil, &EvalFault{Err: errors.New("chart code did not create a chart")}
	}

	o.mu.Lock()
	o.current = handle
	o.mu.Unlock()
	return handle, nil
}

// Destroy drops the current chart, if any.
func (o *Orchestrator) Destroy() {
	o.destroyCurrent()
}

func (o *Orchestrator) destroyCurrent() {
	o.mu.Lock()
	handle := o.current
	o.current = nil
	o.mu.Unlock()
	if handle != nil {
		handle.Destroy()
	}
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending {
		return ErrPending
	}
	o.pending = true
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.pending = false
	o.mu.Unlock()
}

// sampleJSON serializes the first n records for the prompt.
func sampleJSON(rows *store.Rows, n int) (string, error) {
	if rows.Len() < n {
		n = rows.Len()
	}
	ordered := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		ordered[i] = rows.Records[i]
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("failed to serialize sample rows: %w", err)
	}
	return string(b), nil
}
