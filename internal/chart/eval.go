package chart

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/datachat-labs/datachat/internal/store"
)

// eval runs generated chart code in a fresh Starlark thread with exactly
// two predeclared names: the chart factory module and the full result set.
// The factory builtin is the only capability the code receives; creating a
// chart through it binds the handle returned here.
func (o *Orchestrator) eval(code string, rows *store.Rows) (Handle, error) {
	var created Handle

	newBuiltin := starlark.NewBuiltin("new", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var chartType, title string
		var dataVal, optionsVal starlark.Value
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"type", &chartType,
			"data", &dataVal,
			"options?", &optionsVal,
			"title?", &title,
		); err != nil {
			return nil, err
		}

		spec := Spec{Type: chartType, Title: title}
		data, err := toGoMap(dataVal)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		spec.Data = data

		if optionsVal != nil {
			options, err := toGoMap(optionsVal)
			if err != nil {
				return nil, fmt.Errorf("options: %w", err)
			}
			spec.Options = options
		}

		// Successive new() calls within one draw keep only the last chart.
		if created != nil {
			created.Destroy()
		}
		handle, err := o.renderer.New(o.canvas, spec)
		if err != nil {
			return nil, err
		}
		created = handle
		return starlark.None, nil
	})

	chartModule := &starlarkstruct.Module{
		Name:    "chart",
		Members: starlark.StringDict{"new": newBuiltin},
	}

	data, err := rowsToStarlark(rows)
	if err != nil {
		return nil, err
	}

	thread := &starlark.Thread{
		Name: "chart",
		Print: func(_ *starlark.Thread, msg string) {
			o.logger.Debug("chart code print", "message", msg)
		},
	}
	predeclared := starlark.StringDict{
		"chart": chartModule,
		"data":  data,
	}

	if _, err := starlark.ExecFile(thread, o.canvas+".star", code, predeclared); err != nil {
		if created != nil {
			created.Destroy()
		}
		return nil, err
	}
	return created, nil
}
