package friendly

type Op int

const (
	OpEq Op = iota
	OpIsNull
	OpNotNull
	// OpEitherWay matches (A = X AND B = Y) OR (A = Y AND B = X).
	OpEitherWay
	// OpRaw is an adapter-native predicate with positional arguments.
	OpRaw
)

type Condition struct {
	Op      Op
	Column  string
	Value   interface{}
	Columns [2]string
	Values  [2]interface{}
	SQL     string
	Args    []interface{}
}

func Eq(column string, value interface{}) Condition {
	return Condition{Op: OpEq, Column: column, Value: value}
}

func IsNull(column string) Condition {
	return Condition{Op: OpIsNull, Column: column}
}

func NotNull(column string) Condition {
	return Condition{Op: OpNotNull, Column: column}
}

func EitherWay(columnA, columnB string, x, y interface{}) Condition {
	return Condition{Op: OpEitherWay, Columns: [2]string{columnA, columnB}, Values: [2]interface{}{x, y}}
}

func Raw(sql string, args ...interface{}) Condition {
	return Condition{Op: OpRaw, SQL: sql, Args: args}
}

// Query is a conjunction of conditions.
type Query struct {
	Conditions []Condition
	// Limit of 0 means unbounded.
	Limit int
	// ForUpdate asks the adapter to lock matched rows until the enclosing transaction ends.
	ForUpdate bool
}

func Where(conds ...Condition) Query {
	return Query{Conditions: conds}
}

func (q Query) And(conds ...Condition) Query {
	merged := make([]Condition, 0, len(q.Conditions)+len(conds))
	merged = append(merged, q.Conditions...)
	merged = append(merged, conds...)
	q.Conditions = merged
	return q
}

func (q Query) First() Query {
	q.Limit = 1
	return q
}

func (q Query) Locked() Query {
	q.ForUpdate = true
	return q
}
