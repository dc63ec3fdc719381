package models

import (
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceTime normalizes the timestamp shapes that device clients have
// historically written: RFC3339 strings, date strings, and epoch seconds or
// milliseconds (numeric or as a numeric string). Anything unparseable yields
// nil rather than an error; callers skip the value.
func CoerceTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case int64:
		return epochTime(t)
	case int:
		return epochTime(int64(t))
	case float64:
		return epochTime(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochTime(n)
		}
		return nil
	default:
		return nil
	}
}

// epochTime treats values past the year ~2286 in seconds as milliseconds.
func epochTime(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var t time.Time
	if n > 1e11 {
		t = time.UnixMilli(n)
	} else {
		t = time.Unix(n, 0)
	}
	t = t.UTC()
	return &t
}
