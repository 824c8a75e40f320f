package units

import "strings"

const descriptorFields = 5

// Format serializes a unit as "nation,type,stat,size,label". Missing
// fields are written as empty strings so the result always has five
// fields.
func Format(u *Unit) string {
	return strings.Join([]string{u.Nation, string(u.Type), u.StatText(), u.Size, u.Label}, ",")
}

// Query selects units by descriptor. A nil field matches anything; a
// non-nil field must match exactly, including the empty string.
type Query struct {
	fields [descriptorFields]*string
}

// ParseQuery parses a descriptor used as a search. Fields are matched left
// to right; fields absent from s are wildcards. Anything after the fourth
// comma belongs to the label.
func ParseQuery(s string) Query {
	var q Query
	if s == "" {
		return q
	}
	for i, v := range strings.SplitN(s, ",", descriptorFields) {
		q.fields[i] = &v
	}
	return q
}

// Matches reports whether u satisfies every constrained field.
func (q Query) Matches(u *Unit) bool {
	values := [descriptorFields]string{u.Nation, string(u.Type), u.StatText(), u.Size, u.Label}
	for i, f := range q.fields {
		if f != nil && *f != values[i] {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	parts := make([]string, 0, descriptorFields)
	last := -1
	for i, f := range q.fields {
		if f != nil {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		if q.fields[i] == nil {
			parts = append(parts, "*")
			continue
		}
		parts = append(parts, *q.fields[i])
	}
	return strings.Join(parts, ",")
}
