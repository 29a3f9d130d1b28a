package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a generic document returned by the resource store. System fields
// are "id", "created" and "updated"; relation fields hold an id or a list
// of ids, with expanded sub-objects arriving under the "expand" key.
type Record map[string]any

// ID returns the record identifier, or an empty string when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Expand returns the expanded relation objects for the given field. The
// second value reports whether an expansion was present in the response.
func (r Record) Expand(field string) (any, bool) {
	expand, ok := r["expand"].(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := expand[field]
	return value, ok
}

// Lookup resolves a possibly dot-nested field path against the record,
// descending through embedded objects.
func (r Record) Lookup(path string) (any, bool) {
	var current any = map[string]any(r)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Stringify converts a record value into its display string. Slices are
// joined with ", "; nil becomes the empty string.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
