package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {{ path }} and {path} forms. Double braces
// are tried first so {{x}} never reads as a single-brace placeholder
// wrapping "{x}".
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}|\{([A-Za-z0-9_.\-]+)\}`)

// Render substitutes placeholders in s with stringified dot-path lookups
// against data. Unresolved paths leave the placeholder text untouched.
func Render(s string, data map[string]any) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		path := groups[1]
		if path == "" {
			path = groups[2]
		}
		v, ok := Lookup(data, path)
		if !ok {
			return match
		}
		return stringifyValue(v)
	})
}

// RenderParams renders every string value in params, descending into
// nested maps and slices. The input is not modified.
func RenderParams(params map[string]any, data map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = renderValue(v, data)
	}
	return out
}

func renderValue(v any, data map[string]any) any {
	switch tv := v.(type) {
	case string:
		return Render(tv, data)
	case map[string]any:
		return RenderParams(tv, data)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = renderValue(e, data)
		}
		return out
	default:
		return v
	}
}

func stringifyValue(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	default:
		return fmt.Sprint(tv)
	}
}
