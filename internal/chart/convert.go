package chart

import (
	"fmt"
	"time"

	"go.starlark.net/starlark"

	"github.com/datachat-labs/datachat/internal/store"
)

// rowsToStarlark converts a result set to the `data` binding: a list of
// dicts in column order.
func rowsToStarlark(rows *store.Rows) (starlark.Value, error) {
	list := make([]starlark.Value, rows.Len())
	for i, rec := range rows.Records {
		dict := starlark.NewDict(len(rows.Columns))
		for _, col := range rows.Columns {
			sv, err := goToStarlark(rec[col])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			if err := dict.SetKey(starlark.String(col), sv); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
		}
		list[i] = dict
	}
	return starlark.NewList(list), nil
}

// goToStarlark converts one scalar result value to a Starlark value.
func goToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}
	switch val := v.(type) {
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	case time.Time:
		return starlark.String(val.UTC().Format(time.RFC3339)), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// toGo converts a Starlark value back to a Go value for the renderer spec.
func toGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String(), nil
		}
		return i64, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case *starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case *starlark.Dict:
		result := make(map[string]any)
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := toGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Type())
	}
}

// toGoMap converts a Starlark dict to a Go map.
func toGoMap(v starlark.Value) (map[string]any, error) {
	gv, err := toGo(v)
	if err != nil {
		return nil, err
	}
	m, ok := gv.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a dict, got %s", v.Type())
	}
	return m, nil
}
