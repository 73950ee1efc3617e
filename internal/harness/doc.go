// Package harness runs render scenarios against a World and compares
// their artifacts with golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: report
//	description: "Unchanged inputs are not read twice"
//	main: main.fol
//	sources:
//	  main.fol: |
//	    = Report
//	    #include "part.fol"
//	provider:
//	  part.fol: "Shared part."
//	layout:
//	  width: 40
//	steps:
//	  - render: {data: "alpha"}
//	    expect: {passes: 1, stable: true, reads: {part.fol: 1}}
//	  - write: {path: data.txt, data: "beta"}
//	  - refresh: true
//	  - render: {}
//	    expect: {same_as_previous: false}
//
// Sources are written with WriteSource before the first step. Provider
// files are served lazily through a provider that counts its reads.
//
// # Expectations
//
//   - error: the render fails and its message contains this text
//   - passes: number of layout passes the build took
//   - stable: whether layout converged
//   - reads: provider read counts by path, checked after the step
//   - same_as_previous: whether the artifact equals the previous render's
//
// A render that fails without an error expectation fails the scenario.
//
// # Deterministic Testing
//
// Scenarios run with testutil.FixedDate as the document date and build
// tokens "build-1", "build-2", and so on, so artifacts are byte-identical
// across runs and can be compared with testdata/golden/<name>.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
