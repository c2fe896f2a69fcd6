// Package records defines the row representation shared by every pipeline
// stage. A Record is a loosely typed map from column name to cell value; cell
// values are nil (missing), string (text), or float64 (numeric).
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record. Cell values are immutable
// scalars, so a shallow copy is a safe snapshot.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float returns the numeric value for key. The second return is false when
// the key is absent or the value is not a float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// String returns the string form of the value for key; missing keys and nil
// values yield "".
func (r Record) String(key string) string {
	return AsString(r[key])
}

// Empty reports whether the value for key is missing, nil, or a blank string.
func (r Record) Empty(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

// AsString converts common cell types to string without the overhead of
// fmt.Sprint; falls back to fmt.Sprint for uncommon types.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
