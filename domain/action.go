package domain

import (
	"math"
	"strconv"
)

// ActionSpec is one triggered action: the rule params plus the "action" key.
type ActionSpec map[string]any

// Kind returns the "action" key, or an empty kind when missing.
func (a ActionSpec) Kind() ActionKind {
	switch v := a["action"].(type) {
	case ActionKind:
		return v
	case string:
		return ActionKind(v)
	default:
		return ""
	}
}

// Text returns the reply text when present as a non-empty string.
func (a ActionSpec) Text() (string, bool) {
	s, ok := a["text"].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ProductID returns product_id when it is an integer.
// JSON integer literals and Go integers qualify; floats, strings and booleans do not.
func (a ActionSpec) ProductID() (int64, bool) {
	return asInteger(a["product_id"])
}

type jsonNumber interface {
	Int64() (int64, error)
	String() string
}

func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case jsonNumber:
		// json.Number keeps the literal, so "7.0" or "7e0" stay non-integers.
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
