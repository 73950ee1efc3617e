package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntrospectionNilIsEmpty(t *testing.T) {
	var in *Introspection

	_, ok := in.Pages()
	assert.False(t, ok)
	_, ok = in.Label("x")
	assert.False(t, ok)
	_, ok = in.Counter("x")
	assert.False(t, ok)
	assert.Nil(t, in.Labels())
}

func TestIntrospectionCopiesMaps(t *testing.T) {
	labels := map[string]int{"a": 1}
	in := NewIntrospection(3, labels, nil)
	labels["a"] = 9

	page, ok := in.Label("a")
	assert.True(t, ok)
	assert.Equal(t, 1, page)
}

func TestIntrospectionEqual(t *testing.T) {
	a := NewIntrospection(2, map[string]int{"x": 1}, map[string]int{"c": 4})
	b := NewIntrospection(2, map[string]int{"x": 1}, map[string]int{"c": 4})
	c := NewIntrospection(2, map[string]int{"x": 2}, map[string]int{"c": 4})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*Introspection)(nil).Equal(NewIntrospection(0, nil, nil)))
}

func TestConstraintRecordsFirstAnswer(t *testing.T) {
	var c Constraint
	in := NewIntrospection(4, map[string]int{"top": 1}, nil)

	n, ok := c.Pages(in)
	assert.Equal(t, 4, n)
	assert.True(t, ok)
	c.Pages(in)
	_, ok = c.Label(in, "missing")
	assert.False(t, ok)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []Query{{Kind: QueryPages}, {Kind: QueryLabel, Name: "missing"}}, c.Queries())
}

func TestValidateOnlyChecksObservedQueries(t *testing.T) {
	var c Constraint
	before := NewIntrospection(2, map[string]int{"a": 1, "b": 1}, nil)
	c.Label(before, "a")

	moved := NewIntrospection(2, map[string]int{"a": 1, "b": 2}, nil)
	assert.True(t, moved.Validate(&c), "unobserved label may move")

	shifted := NewIntrospection(2, map[string]int{"a": 2, "b": 1}, nil)
	assert.False(t, shifted.Validate(&c))
}

func TestValidateNilConstraint(t *testing.T) {
	assert.True(t, NewIntrospection(1, nil, nil).Validate(nil))
	assert.True(t, (*Introspection)(nil).Validate(&Constraint{}))
}

func TestValidateDetectsAppearingValue(t *testing.T) {
	var c Constraint
	c.Counter(nil, "fig")

	assert.False(t, NewIntrospection(1, nil, map[string]int{"fig": 3}).Validate(&c))
	assert.True(t, NewIntrospection(1, nil, nil).Validate(&c))
}
