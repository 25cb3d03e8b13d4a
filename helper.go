// FILE: lixenwraith/optcfg/helper.go
package optcfg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// splitKeyPath splits a dotted path at its last dot into section and key.
// A path without dots belongs to the DEFAULT section.
func splitKeyPath(path string) (section, key string) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return DefaultSection, path
	}
	return path[:idx], path[idx+1:]
}

// isValidKeySegment reports whether s can name an option or section: a
// non-empty sequence of ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// scalarText renders a value decoded from a structured file as option text.
// Arrays become newline separated list items.
func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		f := listFormat{}
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, f.escape(scalarText(item)))
		}
		return strings.Join(items, "\n")
	default:
		return fmt.Sprint(val)
	}
}
