package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// check compares a step's observations with its expectations and returns
// one message per mismatch.
func (h *Harness) check(index int, e *Expect, sr *StepResult) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("steps[%d] (%s): ", index, sr.Action)+fmt.Sprintf(format, args...))
	}

	if sr.Action == ActionRender {
		switch {
		case e != nil && e.Error != "":
			if sr.Err == "" {
				fail("expected error containing %q, render succeeded", e.Error)
			} else if !strings.Contains(sr.Err, e.Error) {
				fail("expected error containing %q, got %q", e.Error, sr.Err)
			}
		case sr.Err != "":
			fail("unexpected error: %s", sr.Err)
		}
	}
	if e == nil {
		return errs
	}

	if e.Passes != 0 && sr.Err == "" && sr.Passes != e.Passes {
		fail("passes = %d, want %d", sr.Passes, e.Passes)
	}
	if e.Stable != nil && sr.Err == "" && sr.Stable != *e.Stable {
		fail("stable = %t, want %t", sr.Stable, *e.Stable)
	}
	if e.SameAsPrevious != nil && sr.Err == "" && sr.SameAsPrevious != *e.SameAsPrevious {
		fail("same_as_previous = %t, want %t", sr.SameAsPrevious, *e.SameAsPrevious)
	}
	for _, path := range slices.Sorted(maps.Keys(e.Reads)) {
		if got, want := sr.Reads[path], e.Reads[path]; got != want {
			fail("reads[%s] = %d, want %d", path, got, want)
		}
	}
	return errs
}
