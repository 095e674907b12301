package memstore

import (
	"time"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
)

func matchAll(def friendly.EntityType, row friendly.Record, conds []friendly.Condition) (bool, error) {
	for _, c := range conds {
		ok, err := match(def, row, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(def friendly.EntityType, row friendly.Record, c friendly.Condition) (bool, error) {
	switch c.Op {
	case friendly.OpEq, friendly.OpIsNull, friendly.OpNotNull:
		if !def.HasField(c.Column) {
			return false, errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, c.Column)
		}
	}

	switch c.Op {
	case friendly.OpEq:
		return equal(row[c.Column], c.Value), nil
	case friendly.OpIsNull:
		return isNull(row[c.Column]), nil
	case friendly.OpNotNull:
		return !isNull(row[c.Column]), nil
	case friendly.OpEitherWay:
		a, b := row[c.Columns[0]], row[c.Columns[1]]
		x, y := c.Values[0], c.Values[1]
		return (equal(a, x) && equal(b, y)) || (equal(a, y) && equal(b, x)), nil
	case friendly.OpRaw:
		return false, errors.New(errors.ErrCodeValidation, "raw predicates are not supported by the memory store")
	}
	return false, errors.Newf(errors.ErrCodeValidation, "unknown condition %d", c.Op)
}

// matchRecord treats every entry of want as an equality guard, nil meaning NULL.
func matchRecord(row, want friendly.Record) bool {
	for col, v := range want {
		if isNull(v) {
			if !isNull(row[col]) {
				return false
			}
			continue
		}
		if !equal(row[col], v) {
			return false
		}
	}
	return true
}

func sameKey(keys []string, a, b friendly.Record) bool {
	for _, k := range keys {
		if !equal(a[k], b[k]) {
			return false
		}
	}
	return true
}

func samePair(pair [2]string, a, b friendly.Record) bool {
	a0, a1 := a[pair[0]], a[pair[1]]
	b0, b1 := b[pair[0]], b[pair[1]]
	return (equal(a0, b0) && equal(a1, b1)) || (equal(a0, b1) && equal(a1, b0))
}

func isNull(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *time.Time:
		return t == nil
	}
	return false
}

func equal(a, b interface{}) bool {
	if isNull(a) || isNull(b) {
		return false
	}
	if ua, err := friendly.ToUint(a); err == nil {
		if ub, err := friendly.ToUint(b); err == nil {
			return ua == ub
		}
	}
	if ta, ok, _ := friendly.ToTime(a); ok {
		if tb, ok, _ := friendly.ToTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return a == b
}
