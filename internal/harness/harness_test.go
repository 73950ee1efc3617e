package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestRun_MinimalScenario(t *testing.T) {
	s := &Scenario{
		Name:        "minimal",
		Description: "One source, one render",
		Sources:     map[string]string{"main.fol": "Hello."},
		Steps:       []Step{{Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Steps, 1)
	step := result.Steps[0]
	assert.Equal(t, ActionRender, step.Action)
	assert.Equal(t, "build-1", step.Token)
	assert.Equal(t, 1, step.Passes)
	assert.True(t, step.Stable)
	assert.False(t, step.SameAsPrevious, "first render has nothing to compare with")
	assert.Equal(t, "%folio 1\ntitle: \ndate: 2024-05-06\npages: 1\n\n--- page 1 ---\nHello.\n", string(result.Artifact))
}

func TestRun_TokensAreSequential(t *testing.T) {
	s := &Scenario{
		Name:        "tokens",
		Description: "Each build gets the next token",
		Sources:     map[string]string{"main.fol": "x"},
		Steps:       []Step{{Render: &RenderStep{}}, {Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, "build-1", result.Steps[0].Token)
	assert.Equal(t, "build-2", result.Steps[1].Token)
	assert.True(t, result.Steps[1].SameAsPrevious)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := &Scenario{
		Name:        "broken",
		Description: "Unknown variable",
		Sources:     map[string]string{"main.fol": "Hi {who}"},
		Steps:       []Step{{Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err, "expectation failures are reported in the result")
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] (render): unexpected error:")
	assert.Contains(t, result.Errors[0], "unknown variable {who}")
	assert.Nil(t, result.Artifact)
}

func TestRun_ExpectedErrorPasses(t *testing.T) {
	s := &Scenario{
		Name:        "expected",
		Description: "Unknown variable is expected",
		Sources:     map[string]string{"main.fol": "Hi {who}"},
		Steps: []Step{{
			Render: &RenderStep{},
			Expect: &Expect{Error: "unknown variable {who}"},
		}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MismatchesAreReported(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "Every expectation is wrong",
		Sources:     map[string]string{"main.fol": "#lines \"data.txt\""},
		Provider:    map[string]string{"part.fol": "unused"},
		Steps: []Step{
			{Render: &RenderStep{Data: strPtr("a")}},
			{
				Render: &RenderStep{Data: strPtr("b")},
				Expect: &Expect{
					Error:          "",
					Passes:         3,
					Stable:         boolPtr(false),
					SameAsPrevious: boolPtr(true),
					Reads:          map[string]int{"part.fol": 1},
				},
			},
			{
				Render: &RenderStep{},
				Expect: &Expect{Error: "boom"},
			},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"steps[1] (render): passes = 1, want 3",
		"steps[1] (render): stable = true, want false",
		"steps[1] (render): same_as_previous = false, want true",
		"steps[1] (render): reads[part.fol] = 0, want 1",
		`steps[2] (render): expected error containing "boom", render succeeded`,
	}, result.Errors)
}

func TestRun_LayoutSettings(t *testing.T) {
	s := &Scenario{
		Name:        "layout",
		Description: "Narrow pages",
		Sources:     map[string]string{"main.fol": "one two three"},
		Layout:      Layout{Width: 7, LinesPerPage: 1},
		Steps:       []Step{{Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, string(result.Artifact), "pages: 2\n")
}

func TestRun_JSONExporter(t *testing.T) {
	s := &Scenario{
		Name:        "json",
		Description: "Canonical JSON artifact",
		Exporter:    "json",
		Sources:     map[string]string{"main.fol": "= T"},
		Steps:       []Step{{Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Contains(t, string(result.Artifact), `"title":"T"`)
}

func TestRun_Stats(t *testing.T) {
	s := &Scenario{
		Name:        "stats",
		Description: "World counters are reported",
		Sources:     map[string]string{"main.fol": "#include \"p.fol\""},
		Provider:    map[string]string{"p.fol": "x"},
		Steps:       []Step{{Render: &RenderStep{}}, {Render: &RenderStep{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Builds)
	assert.Equal(t, 1, result.Stats.ProviderReads)
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, &Scenario{
		Name:        "cancelled",
		Description: "d",
		Steps:       []Step{{Refresh: true}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
