package store

import "fmt"

type filterOp string

const (
	opEq    filterOp = "="
	opGte   filterOp = ">="
	opLte   filterOp = "<="
	opRange filterOp = "range"
)

type clause struct {
	field string
	op    filterOp
	value string
	upper string // set for range clauses only
}

// Filter is a conjunctive predicate over document body fields. Values are
// compared as text; dates stored as yyyy-mm-dd compare correctly that way.
type Filter struct {
	clauses []clause
}

func NewFilter() *Filter { return &Filter{} }

// Eq requires field == value.
func (f *Filter) Eq(field, value string) *Filter {
	f.clauses = append(f.clauses, clause{field: field, op: opEq, value: value})
	return f
}

// Range requires start <= field <= end.
func (f *Filter) Range(field, start, end string) *Filter {
	f.clauses = append(f.clauses, clause{field: field, op: opRange, value: start, upper: end})
	return f
}

// SQL renders the filter as a WHERE fragment over a jsonb column named
// "data", with placeholders starting at $startArg. Returns the fragment and
// the argument values in placeholder order. A nil or empty filter renders
// an empty fragment.
func (f *Filter) SQL(startArg int) (string, []interface{}) {
	if f == nil || len(f.clauses) == 0 {
		return "", nil
	}

	fragment := ""
	args := make([]interface{}, 0, len(f.clauses)*2)
	n := startArg

	for _, c := range f.clauses {
		switch c.op {
		case opRange:
			fragment += fmt.Sprintf(" AND data->>'%s' >= $%d AND data->>'%s' <= $%d", c.field, n, c.field, n+1)
			args = append(args, c.value, c.upper)
			n += 2
		default:
			fragment += fmt.Sprintf(" AND data->>'%s' %s $%d", c.field, c.op, n)
			args = append(args, c.value)
			n++
		}
	}
	return fragment, args
}
