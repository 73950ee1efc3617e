package memo

// Outcome reports how a lookup was served.
type Outcome int

const (
	// OutcomeHit means the cell was already accessed in this build.
	OutcomeHit Outcome = iota

	// OutcomeUnchanged means the input was loaded again but its fingerprint
	// matched, so the previous derived value was reused.
	OutcomeUnchanged

	// OutcomeDerived means the derivation function ran (or the load failed
	// with a new error).
	OutcomeDerived
)

// String returns the metric label for o.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "derived"
	}
}

// LoadFunc reads the raw bytes of an input.
type LoadFunc func() ([]byte, error)

// DeriveFunc turns raw bytes into a derived value. prev is the previous
// successfully derived value, valid only when hasPrev is true; derivations
// may update it in place as an incremental hint.
type DeriveFunc[T any] func(data []byte, prev T, hasPrev bool) (T, error)

// Cell lazily derives data for one input.
//
// A Cell is not safe for concurrent use; [Cache] serializes access.
type Cell[T any] struct {
	value  T
	err    error
	filled bool

	// fingerprint of the raw contents or access error of the last load.
	fingerprint Fingerprint

	// accessed is true once the cell was used in the current build.
	accessed bool
}

// Reset marks the cell as not yet accessed in preparation of the next
// build. The derived value and fingerprint are kept.
func (c *Cell[T]) Reset() {
	c.accessed = false
}

// Accessed reports whether the cell was used since the last Reset.
func (c *Cell[T]) Accessed() bool {
	return c.accessed
}

// Fingerprint returns the fingerprint of the last load.
func (c *Cell[T]) Fingerprint() Fingerprint {
	return c.fingerprint
}

// GetOrInit returns the cell's value, loading and deriving it if needed.
func (c *Cell[T]) GetOrInit(load LoadFunc, derive DeriveFunc[T]) (T, error) {
	v, _, err := c.lookup(load, derive)
	return v, err
}

func (c *Cell[T]) lookup(load LoadFunc, derive DeriveFunc[T]) (T, Outcome, error) {
	// Already used in this build: no second load, no second derivation.
	wasAccessed := c.accessed
	c.accessed = true
	if wasAccessed && c.filled {
		return c.value, OutcomeHit, c.err
	}

	data, loadErr := load()
	fp := Of(data, loadErr)

	prevFingerprint := c.fingerprint
	c.fingerprint = fp
	if prevFingerprint == fp && c.filled {
		return c.value, OutcomeUnchanged, c.err
	}

	var prev T
	hasPrev := c.filled && c.err == nil
	if hasPrev {
		prev = c.value
	}

	var value T
	err := loadErr
	if err == nil {
		value, err = derive(data, prev, hasPrev)
	}
	if err != nil {
		var zero T
		value = zero
	}

	c.value = value
	c.err = err
	c.filled = true
	return value, OutcomeDerived, err
}
