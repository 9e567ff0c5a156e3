package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opskit/toolbox/internal/logger"
)

func testLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)
	return log, buf
}

func writePlugin(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func TestDiscoverBuildsCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "audit.lua", "-- name: Payroll audit\n-- description: checks the workbook\nfunction main(f) return 1 end\n")
	writePlugin(t, dir, "export.lua", "-- name: Honda export\nfunction main(f) return 2 end\n")

	log, _ := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	require.Equal(t, 2, reg.Len())
	assert.Equal(t, dir, reg.Dir())

	p, ok := reg.Get("Payroll audit")
	require.True(t, ok)
	assert.Equal(t, "checks the workbook", p.Meta.Description)
	assert.Equal(t, filepath.Join(dir, "audit.lua"), p.Ref.Path)
}

func TestDiscoverSkipsMalformedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "good.lua", "-- name: A\nfunction main(f) return 1 end\n")
	writePlugin(t, dir, "mangled.lua", "-- name: [unclosed\nfunction main(f) return 2 end\n")

	log, buf := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	require.Equal(t, 1, reg.Len())
	_, ok := reg.Get("A")
	assert.True(t, ok)

	// The warning must identify the offending file.
	assert.Contains(t, buf.String(), "mangled.lua")
}

func TestDiscoverRequiresName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "anon.lua", "-- description: no name declared\nfunction main(f) return 1 end\n")

	log, buf := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	assert.Equal(t, 0, reg.Len())
	assert.Contains(t, buf.String(), "anon.lua")
}

func TestDiscoverNeverExecutesScriptCode(t *testing.T) {
	t.Parallel()

	// A file whose body would blow up if evaluated must still be listed.
	dir := t.TempDir()
	writePlugin(t, dir, "landmine.lua", "-- name: landmine\nerror(\"must not run at discovery\")\n")

	log, _ := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	_, ok := reg.Get("landmine")
	assert.True(t, ok)
}

func TestDiscoverEmptyDirectory(t *testing.T) {
	t.Parallel()

	log, _ := testLogger(t)
	reg, err := Discover(t.TempDir(), log)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.List())
}

func TestDiscoverMissingDirectory(t *testing.T) {
	t.Parallel()

	log, _ := testLogger(t)
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), log)
	require.Error(t, err)
}

func TestDiscoverIgnoresPrivateAndForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "real.lua", "-- name: real\nfunction main(f) return 1 end\n")
	writePlugin(t, dir, "_helper.lua", "-- name: helper\n")
	writePlugin(t, dir, ".hidden.lua", "-- name: hidden\n")
	writePlugin(t, dir, "notes.txt", "-- name: notes\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.lua"), 0o755))

	log, _ := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	require.Equal(t, 1, reg.Len())
	_, ok := reg.Get("real")
	assert.True(t, ok)
}

func TestDiscoverDuplicateNamesLastWinsBySortOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "a_first.lua", "-- name: dup\n-- description: from a_first\n")
	writePlugin(t, dir, "b_second.lua", "-- name: dup\n-- description: from b_second\n")

	log, buf := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	require.Equal(t, 1, reg.Len())
	p, ok := reg.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "from b_second", p.Meta.Description)
	assert.Contains(t, buf.String(), "duplicate plugin name")
}

func TestListOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePlugin(t, dir, "c.lua", "-- name: Charlie\n")
	writePlugin(t, dir, "a.lua", "-- name: Alpha\n")
	writePlugin(t, dir, "b.lua", "-- name: Bravo\n")

	log, _ := testLogger(t)
	reg, err := Discover(dir, log)
	require.NoError(t, err)

	var names []string
	for _, p := range reg.List() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names)
}
