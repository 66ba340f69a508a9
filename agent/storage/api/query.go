package api

import (
	"fmt"
	"strings"
)

// Query matches record tags.
type Query interface {
	Match(tags map[string]string) bool
	String() string
}

type eq struct {
	name, value string
}

// Eq matches when the tag has the value.
func Eq(name, value string) Query {
	return eq{name: name, value: value}
}

func (q eq) Match(tags map[string]string) bool {
	v, ok := tags[q.name]
	return ok && v == q.value
}

func (q eq) String() string {
	return fmt.Sprintf("%s=%q", q.name, q.value)
}

type and []Query

// And matches when all the queries match.
func And(qs ...Query) Query {
	return and(qs)
}

func (q and) Match(tags map[string]string) bool {
	for _, sub := range q {
		if !sub.Match(tags) {
			return false
		}
	}
	return true
}

func (q and) String() string {
	return join(q, " AND ")
}

type or []Query

// Or matches when any of the queries match.
func Or(qs ...Query) Query {
	return or(qs)
}

func (q or) Match(tags map[string]string) bool {
	for _, sub := range q {
		if sub.Match(tags) {
			return true
		}
	}
	return false
}

func (q or) String() string {
	return join(q, " OR ")
}

func join(qs []Query, sep string) string {
	s := make([]string, len(qs))
	for i, q := range qs {
		s[i] = q.String()
	}
	return "(" + strings.Join(s, sep) + ")"
}
