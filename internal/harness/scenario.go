package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/folio/internal/export"
)

// Scenario describes a World and a sequence of steps to run against it.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Main is the entry source. Defaults to main.fol.
	Main string `yaml:"main,omitempty"`

	// Sources are written with WriteSource before the first step.
	Sources map[string]string `yaml:"sources,omitempty"`

	// Provider files are served lazily and their reads are counted.
	Provider map[string]string `yaml:"provider,omitempty"`

	// Layout overrides typesetter settings. Zero fields take defaults.
	Layout Layout `yaml:"layout,omitempty"`

	// Exporter names the artifact format ("text" or "json").
	Exporter string `yaml:"exporter,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Layout holds typesetter settings for a scenario.
type Layout struct {
	Width        int `yaml:"width,omitempty"`
	LinesPerPage int `yaml:"lines_per_page,omitempty"`
	MaxPasses    int `yaml:"max_passes,omitempty"`
}

// Step is one action. Exactly one of Write, WriteSource, Refresh and
// Render is set.
type Step struct {
	Write       *WriteStep  `yaml:"write,omitempty"`
	WriteSource *WriteStep  `yaml:"write_source,omitempty"`
	Refresh     bool        `yaml:"refresh,omitempty"`
	Render      *RenderStep `yaml:"render,omitempty"`

	// Expect is checked after the step runs.
	Expect *Expect `yaml:"expect,omitempty"`
}

// WriteStep writes Data at Path.
type WriteStep struct {
	Path string `yaml:"path"`
	Data string `yaml:"data"`
}

// RenderStep renders the document. If Data is set it is written to the
// data path in the same atomic operation.
type RenderStep struct {
	Data *string `yaml:"data,omitempty"`
}

// Expect lists what a step must observe. Unset fields are not checked.
type Expect struct {
	Error          string         `yaml:"error,omitempty"`
	Passes         int            `yaml:"passes,omitempty"`
	Stable         *bool          `yaml:"stable,omitempty"`
	Reads          map[string]int `yaml:"reads,omitempty"`
	SameAsPrevious *bool          `yaml:"same_as_previous,omitempty"`
}

// Step action names, as reported in results and errors.
const (
	ActionWrite       = "write"
	ActionWriteSource = "write_source"
	ActionRefresh     = "refresh"
	ActionRender      = "render"
)

// Action returns the name of the step's action, or "" if none or several
// are set.
func (s *Step) Action() string {
	var actions []string
	if s.Write != nil {
		actions = append(actions, ActionWrite)
	}
	if s.WriteSource != nil {
		actions = append(actions, ActionWriteSource)
	}
	if s.Refresh {
		actions = append(actions, ActionRefresh)
	}
	if s.Render != nil {
		actions = append(actions, ActionRender)
	}
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if _, err := export.ByName(s.Exporter); err != nil {
		return err
	}
	if s.Layout.Width < 0 || s.Layout.LinesPerPage < 0 || s.Layout.MaxPasses < 0 {
		return fmt.Errorf("layout values must be non-negative")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	action := st.Action()
	if action == "" {
		return fmt.Errorf("steps[%d]: exactly one of write, write_source, refresh, render is required", index)
	}

	for _, w := range []*WriteStep{st.Write, st.WriteSource} {
		if w != nil && w.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, action)
		}
	}

	if e := st.Expect; e != nil && action != ActionRender {
		if e.Error != "" || e.Passes != 0 || e.Stable != nil || e.SameAsPrevious != nil {
			return fmt.Errorf("steps[%d]: only reads may be expected after %s", index, action)
		}
	}
	if e := st.Expect; e != nil && e.Passes < 0 {
		return fmt.Errorf("steps[%d]: passes must be non-negative", index)
	}
	return nil
}
