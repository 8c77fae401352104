package matching

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number coerces a loosely typed requirement value to a float. Anything that
// does not parse as a finite number yields 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// StringSet accepts a comma separated string or a list and returns the
// trimmed, non-empty entries in their original order.
func StringSet(v any) []string {
	var raw []string
	switch s := v.(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.Split(s, ",")
	case []string:
		raw = s
	case []any:
		raw = make([]string, 0, len(s))
		for _, item := range s {
			if item == nil {
				continue
			}
			if str, ok := item.(string); ok {
				raw = append(raw, str)
				continue
			}
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		return []string{}
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
