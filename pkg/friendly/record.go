package friendly

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a row of an edge table keyed by column name.
type Record map[string]interface{}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Uint reads an integer column. Drivers disagree on integer widths, so
// every signed, unsigned and decimal-string form is accepted.
func (r Record) Uint(column string) (uint, error) {
	return ToUint(r[column])
}

// Time reads a timestamp column; ok is false for NULL or a missing column.
func (r Record) Time(column string) (t time.Time, ok bool, err error) {
	return ToTime(r[column])
}

func ToUint(v interface{}) (uint, error) {
	switch n := v.(type) {
	case uint:
		return n, nil
	case uint8:
		return uint(n), nil
	case uint16:
		return uint(n), nil
	case uint32:
		return uint(n), nil
	case uint64:
		return uint(n), nil
	case int:
		if n >= 0 {
			return uint(n), nil
		}
	case int8:
		if n >= 0 {
			return uint(n), nil
		}
	case int16:
		if n >= 0 {
			return uint(n), nil
		}
	case int32:
		if n >= 0 {
			return uint(n), nil
		}
	case int64:
		if n >= 0 {
			return uint(n), nil
		}
	case float64:
		if n >= 0 && n == float64(uint64(n)) {
			return uint(n), nil
		}
	case []byte:
		return ToUint(string(n))
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err == nil {
			return uint(u), nil
		}
	}
	return 0, fmt.Errorf("friendly: cannot read %T(%v) as an id", v, v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func ToTime(v interface{}) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t, true, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, false, nil
		}
		return *t, true, nil
	case []byte:
		return ToTime(string(t))
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true, nil
			}
		}
	}
	return time.Time{}, false, fmt.Errorf("friendly: cannot read %T(%v) as a timestamp", v, v)
}
