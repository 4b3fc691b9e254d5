package validation

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Helpers over the value shapes produced by json.Unmarshal into any:
// map[string]any, []any, string, float64 or json.Number, bool and nil.

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func has(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

// str returns the trimmed string at v, or fallback when v is not a string or
// is blank after trimming.
func str(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// boolean is true only for a real JSON true.
func boolean(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// stringSet returns the distinct non-blank trimmed strings of a JSON array,
// in first-seen order. Anything that is not an array yields an empty set.
func stringSet(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			arr = make([]any, len(typed))
			for i, s := range typed {
				arr[i] = s
			}
		} else {
			return []string{}
		}
	}
	out := make([]string, 0, len(arr))
	seen := make(map[string]struct{}, len(arr))
	for _, item := range arr {
		s := str(item, "")
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// number coerces JSON numbers and numeric strings to a finite float64.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// scalarString renders a JSON scalar as a trimmed string; non-scalars yield "".
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// entries returns the objects of a collection given either as an object keyed
// by id or as an array. The key (or "") is passed along as the fallback id.
// Keys are visited in sorted order so duplicate ids resolve deterministically.
func entries(v any) []keyed {
	switch c := v.(type) {
	case map[string]any:
		out := make([]keyed, 0, len(c))
		for _, k := range slices.Sorted(maps.Keys(c)) {
			out = append(out, keyed{key: strings.TrimSpace(k), value: c[k]})
		}
		return out
	case []any:
		out := make([]keyed, 0, len(c))
		for _, item := range c {
			out = append(out, keyed{value: item})
		}
		return out
	default:
		return nil
	}
}

type keyed struct {
	key   string
	value any
}
