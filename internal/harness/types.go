package harness

import "github.com/roach88/folio/internal/world"

// StepResult records what one step observed.
type StepResult struct {
	Index  int    `json:"index"`
	Action string `json:"action"`

	// Render steps only.
	Token          string `json:"token,omitempty"`
	Output         []byte `json:"-"`
	Err            string `json:"error,omitempty"`
	Passes         int    `json:"passes,omitempty"`
	Stable         bool   `json:"stable,omitempty"`
	SameAsPrevious bool   `json:"same_as_previous,omitempty"`

	// Reads holds provider read counts after the step.
	Reads map[string]int `json:"reads"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held and no render failed
	// unexpectedly.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Artifact is the output of the last successful render, or nil.
	Artifact []byte `json:"-"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stats are the World's counters after the last step.
	Stats world.Stats `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
