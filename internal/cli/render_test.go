package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Stdout(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "render", dir, "home")
	require.NoError(t, res.err, res.stderr)

	assert.True(t, strings.HasPrefix(res.stdout, "%folio 1\ntitle: Hello Ada\n"), res.stdout)
	assert.Contains(t, res.stdout, "--- page 1 ---\n1 Hello Ada\n")
	assert.Contains(t, res.stdout, "See 1 on page 1 of 1.")
}

func TestRender_SiteData(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "render", dir, "report")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Report\n\nalpha\nbeta\n")
}

func TestRender_DataFromStdin(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, strings.NewReader("gamma\n"), "render", dir, "report", "--data", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Report\n\ngamma\n")
	assert.NotContains(t, res.stdout, "alpha")
}

func TestRender_SetOverridesInputs(t *testing.T) {
	dir := sampleSite(t)
	alt := filepath.Join(t.TempDir(), "alt.yaml")
	require.NoError(t, os.WriteFile(alt, []byte("name: Grace\n"), 0o644))
	altSource := filepath.Join(t.TempDir(), "home.fol")
	require.NoError(t, os.WriteFile(altSource, []byte("#meta \"who.yaml\"\n= Bye {name}\n"), 0o644))

	res := execute(t, nil, "render", dir, "home", "--set", "who.yaml="+alt)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Hello Grace")

	res = execute(t, nil, "render", dir, "home", "--set", "who.yaml="+alt, "--set", "home.fol="+altSource)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Bye Grace")
}

func TestRender_InvalidSet(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "render", dir, "home", "--set", "who.yaml")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.stderr, "want vpath=file")
}

func TestRender_JSONExporter(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "render", dir, "home", "--exporter", "json")
	require.NoError(t, res.err, res.stderr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "Hello Ada", doc["title"])
}

func TestRender_OutputFile(t *testing.T) {
	dir := sampleSite(t)
	out := filepath.Join(t.TempDir(), "home.txt")

	res := execute(t, nil, "render", dir, "home", "-o", out)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Wrote ")
	assert.Contains(t, res.stdout, out)
	assert.Contains(t, res.stdout, "(2 passes, build=")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1 Hello Ada")
}

func TestRender_JSONSummary(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "--format", "json", "render", dir, "home")
	require.NoError(t, res.err, res.stderr)

	var resp struct {
		Status string        `json:"status"`
		Data   RenderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "home", resp.Data.Page)
	assert.Equal(t, 2, resp.Data.Passes)
	assert.True(t, resp.Data.Stable)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Contains(t, resp.Data.Artifact, "1 Hello Ada")
	assert.Equal(t, len(resp.Data.Artifact), resp.Data.Bytes)
}

func TestRender_BuildFailure(t *testing.T) {
	dir := brokenSite(t)

	res := execute(t, nil, "render", dir, "bad")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, res.code())
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "bad.fol:1:7: error: unknown variable {missing}")
	assert.Contains(t, res.stderr, "Error [E005]")
}

func TestRender_BuildFailureJSON(t *testing.T) {
	dir := brokenSite(t)

	res := execute(t, nil, "--format", "json", "render", dir, "bad")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, res.code())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBuildFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "RESOLVE_FAILED")
}

func TestRender_CommandErrors(t *testing.T) {
	dir := sampleSite(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown page", []string{"render", dir, "nope"}, "E003"},
		{"missing site", []string{"render", filepath.Join(dir, "absent"), "home"}, "E002"},
		{"unknown exporter", []string{"render", dir, "home", "--exporter", "pdf"}, "unknown exporter"},
		{"bad repeat", []string{"render", dir, "home", "--repeat", "0"}, "--repeat must be at least 1"},
		{"missing data", []string{"render", dir, "home", "--data", filepath.Join(dir, "absent.txt")}, "E004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, nil, tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, res.code())
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestRender_Metrics(t *testing.T) {
	dir := sampleSite(t)

	res := execute(t, nil, "render", dir, "home", "--repeat", "2", "--metrics")
	require.NoError(t, res.err, res.stderr)

	assert.Contains(t, res.stderr, "# TYPE folio_engine_builds_total counter")
	assert.Contains(t, res.stderr, "folio_world_provider_reads_total")
	// The artifact is printed once.
	assert.Equal(t, 1, strings.Count(res.stdout, "%folio 1"))
}

func TestRender_DBRecordsHistory(t *testing.T) {
	dir := sampleSite(t)
	db := filepath.Join(t.TempDir(), "folio.db")

	res := execute(t, nil, "render", dir, "home", "--db", db, "--repeat", "3")
	require.NoError(t, res.err, res.stderr)
	res = execute(t, nil, "render", dir, "report", "--db", db)
	require.NoError(t, res.err, res.stderr)

	renders := historyJSON(t, db)
	require.Len(t, renders, 4)
	for i, r := range renders {
		assert.Equal(t, int64(i+1), r.Seq, "seq continues across processes")
		assert.Empty(t, r.Error)
		assert.Len(t, r.Fingerprint, 32)
	}
	assert.Equal(t, "report", renders[3].Page)
	// Unchanged inputs give the same artifact.
	assert.Equal(t, renders[0].Fingerprint, renders[2].Fingerprint)
}

func TestRender_DBRecordsFailures(t *testing.T) {
	dir := brokenSite(t)
	db := filepath.Join(t.TempDir(), "folio.db")

	res := execute(t, nil, "render", dir, "bad", "--db", db, "--repeat", "3")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, res.code())

	renders := historyJSON(t, db)
	require.Len(t, renders, 1, "a failed render stops the repeat loop")
	assert.Equal(t, "bad", renders[0].Page)
	assert.Contains(t, renders[0].Error, "unknown variable {missing}")
	assert.False(t, renders[0].Stable)
}
