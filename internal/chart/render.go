package chart

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
)

// barWidth is the widest bar drawn for the largest value.
const barWidth = 40

// TermRenderer draws charts as text onto a writer. It implements the
// charting collaborator for terminal sessions; tests substitute a fake.
type TermRenderer struct {
	mu sync.Mutex
	w  io.Writer
	// bound tracks the handle attached to each target so that a canvas
	// never carries two live charts.
	bound map[string]*termHandle
}

// NewTermRenderer creates a renderer writing to w.
func NewTermRenderer(w io.Writer) *TermRenderer {
	return &TermRenderer{w: w, bound: make(map[string]*termHandle)}
}

// New renders the spec and binds a handle to the target.
func (r *TermRenderer) New(target string, spec Spec) (Handle, error) {
	labels, datasets, err := decodeData(spec.Data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev := r.bound[target]; prev != nil {
		return nil, fmt.Errorf("canvas %q already has a chart attached", target)
	}

	if spec.Title != "" {
		_, _ = fmt.Fprintf(r.w, "%s\n", spec.Title)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"label"}
	for _, ds := range datasets {
		header = append(header, ds.label, "")
	}
	t.AppendHeader(header)

	for i, label := range labels {
		row := table.Row{label}
		for _, ds := range datasets {
			var v float64
			if i < len(ds.values) {
				v = ds.values[i]
			}
			row = append(row, formatNumber(v), bar(v, ds.max))
		}
		t.AppendRow(row)
	}
	t.Render()

	h := &termHandle{renderer: r, target: target}
	r.bound[target] = h
	return h, nil
}

type termHandle struct {
	renderer *TermRenderer
	target   string
	once     sync.Once
}

// Destroy unbinds the handle from its target.
func (h *termHandle) Destroy() {
	h.once.Do(func() {
		h.renderer.mu.Lock()
		defer h.renderer.mu.Unlock()
		if h.renderer.bound[h.target] == h {
			delete(h.renderer.bound, h.target)
		}
	})
}

type dataset struct {
	label  string
	values []float64
	max    float64
}

// decodeData pulls labels and datasets out of the chart.js-shaped data
// dict the generated code supplies.
func decodeData(data map[string]any) ([]string, []dataset, error) {
	rawLabels, ok := data["labels"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("chart data must contain a \"labels\" list")
	}
	labels := make([]string, len(rawLabels))
	for i, l := range rawLabels {
		labels[i] = fmt.Sprintf("%v", l)
	}

	rawSets, ok := data["datasets"].([]any)
	if !ok || len(rawSets) == 0 {
		return nil, nil, fmt.Errorf("chart data must contain a \"datasets\" list")
	}

	datasets := make([]dataset, 0, len(rawSets))
	for i, raw := range rawSets {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("dataset %d is not a dict", i)
		}
		ds := dataset{label: fmt.Sprintf("%v", m["label"])}
		values, ok := m["data"].([]any)
		if !ok {
			return nil, nil, fmt.Errorf("dataset %d has no \"data\" list", i)
		}
		for _, v := range values {
			f, err := asFloat(v)
			if err != nil {
				return nil, nil, fmt.Errorf("dataset %d: %w", i, err)
			}
			ds.values = append(ds.values, f)
			if f > ds.max {
				ds.max = f
			}
		}
		datasets = append(datasets, ds)
	}
	return labels, datasets, nil
}

func bar(v, max float64) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := int(v / max * barWidth)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
