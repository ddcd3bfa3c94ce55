// Package tabular holds query results as plain rows and coerces driver values.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is a query result. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether t is nil or has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Values returns one column, top to bottom.
func (t *Table) Values(column string) []any {
	idx := t.Index(column)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// Records converts at most limit rows into maps keyed by rename(column).
// A nil rename keeps the column names.
func (t *Table) Records(limit int, rename func(string) string) []map[string]any {
	if t.Empty() {
		return []map[string]any{}
	}
	if limit <= 0 || limit > len(t.Rows) {
		limit = len(t.Rows)
	}
	out := make([]map[string]any, 0, limit)
	for _, row := range t.Rows[:limit] {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			key := c
			if rename != nil {
				key = rename(c)
			}
			if i < len(row) {
				rec[key] = Normalize(row[i])
			}
		}
		out = append(out, rec)
	}
	return out
}

// IsNull reports a SQL NULL as delivered by the drivers.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []byte:
		return x == nil
	}
	return false
}

// Normalize turns driver byte slices into strings so values serialize cleanly.
func Normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Float parses v as a number.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	case fmt.Stringer:
		// decimal types from some drivers
		return parseFloat(x.String())
	}
	return 0, false
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
}

// Time parses v as a date or timestamp.
func Time(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	}
	return time.Time{}, false
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// String renders v for labels and category keys.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// IsNumeric reports whether every non-null value parses as a number and at
// least one value is present.
func IsNumeric(values []any) bool {
	seen := false
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		if _, ok := Float(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// AllNull reports whether values holds no non-null entry.
func AllNull(values []any) bool {
	for _, v := range values {
		if !IsNull(v) {
			return false
		}
	}
	return true
}

// Distinct counts distinct non-null values by their string form.
func Distinct(values []any) int {
	seen := make(map[string]struct{})
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		seen[String(v)] = struct{}{}
	}
	return len(seen)
}
