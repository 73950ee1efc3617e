package engine

// DefaultMaxPasses is the default layout pass budget per build.
//
// Most documents converge in one or two passes; the budget only bounds
// pathological self-reference.
const DefaultMaxPasses = 5

// PassBudget counts layout passes against a fixed limit.
//
// Each build gets its own PassBudget. Take is called before every layout
// pass, so a document that never converges performs exactly Max passes.
type PassBudget struct {
	max  int
	used int
}

// NewPassBudget creates a budget of limit passes. Values below 1 are
// raised to 1 so that every build lays out at least once.
func NewPassBudget(limit int) *PassBudget {
	return &PassBudget{max: max(limit, 1)}
}

// Take consumes one pass. It returns false once the budget is spent.
func (b *PassBudget) Take() bool {
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Used returns the number of passes taken.
func (b *PassBudget) Used() int {
	return b.used
}

// Max returns the limit.
func (b *PassBudget) Max() int {
	return b.max
}

// Exhausted reports whether no passes remain.
func (b *PassBudget) Exhausted() bool {
	return b.used >= b.max
}
