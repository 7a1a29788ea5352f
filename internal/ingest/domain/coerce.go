package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceFloats converts a column of raw cells to float64.
func CoerceFloats(column string, values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := toFloat(v)
		if !ok {
			return nil, &TypeCoercionError{Column: column, Row: i, Value: v}
		}
		out[i] = f
	}
	return out, nil
}

// CoerceStrings converts a column of raw cells to trimmed strings.
func CoerceStrings(column string, values []any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		switch s := v.(type) {
		case string:
			out[i] = strings.TrimSpace(s)
		case nil:
			return nil, &TypeCoercionError{Column: column, Row: i, Value: v}
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(s))
		}
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
