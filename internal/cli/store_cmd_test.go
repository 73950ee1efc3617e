package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/store"
)

// historyJSON runs "history --format json" and decodes the render log.
func historyJSON(t *testing.T, db string, args ...string) []store.Render {
	t.Helper()
	res := execute(t, nil, append([]string{"--format", "json", "history", "--db", db}, args...)...)
	require.NoError(t, res.err, res.stderr)

	var resp struct {
		Status string         `json:"status"`
		Data   []store.Render `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestPut_StoredFileShadowsSiteFile(t *testing.T) {
	dir := sampleSite(t)
	db := filepath.Join(t.TempDir(), "folio.db")

	res := execute(t, strings.NewReader("name: Linus\n"), "put", "--db", db, "who.yaml", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Stored who.yaml (12 bytes, seq 1)\n", res.stdout)

	res = execute(t, nil, "render", dir, "home", "--db", db)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Hello Linus")

	// Without the store the site file is used.
	res = execute(t, nil, "render", dir, "home")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "1 Hello Ada")
}

func TestPut_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folio.db")
	file := filepath.Join(writeFiles(t, map[string]string{"a.txt": "abc"}), "a.txt")

	res := execute(t, nil, "--format", "json", "put", "--db", db, "dir/../a.txt", file)
	require.NoError(t, res.err, res.stderr)

	var resp struct {
		Data PutResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, PutResult{Path: "a.txt", Bytes: 3, Seq: 1}, resp.Data)
}

func TestPut_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folio.db")

	res := execute(t, nil, "put", "a.txt", "-")
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.stderr, "--db is required")

	res = execute(t, nil, "put", "--db", db, "a.txt", filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.stderr, "E004")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folio.db")

	res := execute(t, nil, "history", "--db", db)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "No renders recorded\n", res.stdout)

	assert.Empty(t, historyJSON(t, db))
}

func TestHistory_TableAndFilter(t *testing.T) {
	dir := brokenSite(t)
	db := filepath.Join(t.TempDir(), "folio.db")

	require.NoError(t, execute(t, nil, "render", dir, "good", "--db", db).err)
	require.Error(t, execute(t, nil, "render", dir, "bad", "--db", db).err)

	res := execute(t, nil, "history", "--db", db)
	require.NoError(t, res.err, res.stderr)
	lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SEQ"))
	assert.Regexp(t, `^1\s+good\s+\S+\s+1\s+true\s+\d+\s+[0-9a-f]{12}…\s+-$`, lines[1])
	assert.Regexp(t, `^2\s+bad\s+.*✗ RESOLVE_FAILED`, lines[2])

	renders := historyJSON(t, db, "bad")
	require.Len(t, renders, 1)
	assert.Equal(t, int64(2), renders[0].Seq)
}

func TestHistory_RequiresDB(t *testing.T) {
	res := execute(t, nil, "history")
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.stderr, "--db is required")
}
