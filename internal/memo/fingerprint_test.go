package memo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf_Deterministic(t *testing.T) {
	a := Of([]byte("hello"), nil)
	b := Of([]byte("hello"), nil)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 32)
}

func TestOf_DistinguishesContent(t *testing.T) {
	assert.NotEqual(t, Of([]byte("hello"), nil), Of([]byte("hellO"), nil))
	assert.NotEqual(t, Of(nil, nil), Of([]byte{0}, nil))
}

func TestOf_ErrorsAreFingerprinted(t *testing.T) {
	e1 := Of(nil, errors.New("file not found: a"))
	e2 := Of(nil, errors.New("file not found: a"))
	e3 := Of(nil, errors.New("file not found: b"))

	assert.Equal(t, e1, e2, "same error message yields same fingerprint")
	assert.NotEqual(t, e1, e3)
}

func TestOf_DomainSeparation(t *testing.T) {
	// Content that spells out an error message must not collide with the error.
	msg := "file not found: a"
	assert.NotEqual(t, Of([]byte(msg), nil), Of(nil, errors.New(msg)))
}
