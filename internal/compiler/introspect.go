package compiler

import (
	"maps"
	"slices"
)

// Introspection is the state one layout pass observed about the finished
// document: how many pages it has, where each label landed, and the final
// value of each counter.
//
// A nil *Introspection is the empty state every query misses against.
type Introspection struct {
	pages    int
	labels   map[string]int
	counters map[string]int
}

// NewIntrospection creates a snapshot. The maps are copied.
func NewIntrospection(pages int, labels, counters map[string]int) *Introspection {
	return &Introspection{
		pages:    pages,
		labels:   maps.Clone(labels),
		counters: maps.Clone(counters),
	}
}

// Pages returns the total page count.
func (in *Introspection) Pages() (int, bool) {
	if in == nil || in.pages == 0 {
		return 0, false
	}
	return in.pages, true
}

// Label returns the page a label landed on.
func (in *Introspection) Label(name string) (int, bool) {
	if in == nil {
		return 0, false
	}
	v, ok := in.labels[name]
	return v, ok
}

// Counter returns the final value of a counter.
func (in *Introspection) Counter(name string) (int, bool) {
	if in == nil {
		return 0, false
	}
	v, ok := in.counters[name]
	return v, ok
}

// Labels returns the label names in sorted order.
func (in *Introspection) Labels() []string {
	if in == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(in.labels))
}

// Equal reports whether two snapshots are identical.
func (in *Introspection) Equal(other *Introspection) bool {
	a, _ := in.Pages()
	b, _ := other.Pages()
	if a != b {
		return false
	}
	var al, bl, ac, bc map[string]int
	if in != nil {
		al, ac = in.labels, in.counters
	}
	if other != nil {
		bl, bc = other.labels, other.counters
	}
	return maps.Equal(al, bl) && maps.Equal(ac, bc)
}

func (in *Introspection) answer(q Query) Answer {
	var v int
	var ok bool
	switch q.Kind {
	case QueryPages:
		v, ok = in.Pages()
	case QueryLabel:
		v, ok = in.Label(q.Name)
	case QueryCounter:
		v, ok = in.Counter(q.Name)
	}
	return Answer{Value: v, OK: ok}
}

// Validate reports whether every query recorded in c gets the same answer
// from in. Only what a pass observed matters: a label nobody referenced may
// move without invalidating the pass.
func (in *Introspection) Validate(c *Constraint) bool {
	if c == nil {
		return true
	}
	for _, q := range c.order {
		if in.answer(q) != c.answers[q] {
			return false
		}
	}
	return true
}

// QueryKind identifies what an introspection query asked for.
type QueryKind int

const (
	QueryPages QueryKind = iota
	QueryLabel
	QueryCounter
)

// Query is one introspection question.
type Query struct {
	Kind QueryKind
	Name string
}

// Answer is what a query returned.
type Answer struct {
	Value int
	OK    bool
}

// Constraint records the introspection queries made during a pass and the
// answers they received.
//
// The zero value is ready to use.
type Constraint struct {
	answers map[Query]Answer
	order   []Query
}

// Pages queries in for the page count and records the answer.
func (c *Constraint) Pages(in *Introspection) (int, bool) {
	return c.ask(in, Query{Kind: QueryPages})
}

// Label queries in for the page of name and records the answer.
func (c *Constraint) Label(in *Introspection, name string) (int, bool) {
	return c.ask(in, Query{Kind: QueryLabel, Name: name})
}

// Counter queries in for the final value of name and records the answer.
func (c *Constraint) Counter(in *Introspection, name string) (int, bool) {
	return c.ask(in, Query{Kind: QueryCounter, Name: name})
}

func (c *Constraint) ask(in *Introspection, q Query) (int, bool) {
	a := in.answer(q)
	if c.answers == nil {
		c.answers = make(map[Query]Answer)
	}
	if _, ok := c.answers[q]; !ok {
		c.answers[q] = a
		c.order = append(c.order, q)
	}
	return a.Value, a.OK
}

// Len returns the number of distinct queries recorded.
func (c *Constraint) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Queries returns the recorded queries in the order they were first made.
func (c *Constraint) Queries() []Query {
	if c == nil {
		return nil
	}
	return slices.Clone(c.order)
}
