package site

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// schemaFile names the embedded schema in CUE positions.
const schemaFile = "schema.cue"

//go:embed schema.cue
var schemaCUE string

// Layout holds typesetting settings shared by every page.
type Layout struct {
	Width        int `json:"width"`
	LinesPerPage int `json:"linesPerPage"`
	MaxPasses    int `json:"maxPasses"`
}

// Page describes one document. Paths are relative to the site directory.
type Page struct {
	Main  string   `json:"main"`
	Files []string `json:"files"`
	Data  string   `json:"data,omitempty"`
}

// Site is a loaded site definition.
type Site struct {
	Dir      string          `json:"-"`
	Layout   Layout          `json:"layout"`
	Pages    map[string]Page `json:"pages"`
	Fallback *Page           `json:"fallback,omitempty"`
}

// PageNames returns the page names in sorted order.
func (s *Site) PageNames() []string {
	return slices.Sorted(maps.Keys(s.Pages))
}

// Load reads the CUE package in dir and validates it against #Site.
func Load(dir string) (*Site, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("site directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing site directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename(schemaFile))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile site schema: %w", err)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Site")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeInvalidSite, err)
	}

	s := &Site{}
	if err := unified.Decode(s); err != nil {
		return nil, fromCUE(ErrCodeInvalidSite, err)
	}
	if len(s.Pages) == 0 {
		return nil, &LoadError{Code: ErrCodeNoPages, Message: "site defines no pages", Pos: value.Pos()}
	}
	s.Dir = dir
	return s, nil
}

// path converts a site-relative slash path to a file system path.
func (s *Site) path(rel string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(rel))
}
