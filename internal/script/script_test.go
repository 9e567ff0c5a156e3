package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

func writeScript(t *testing.T, content string) Reference {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.lua")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewReference(path)
}

func TestLoadAndCallReturnsEntryPointResult(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `
function main(files)
	return files.REPORT .. ".out"
end
`)

	program, err := ref.Load(nil)
	require.NoError(t, err)

	result, err := program.Call(map[string]string{"REPORT": "/tmp/report.csv"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.csv.out", result)
}

func TestLoadRejectsScriptWithoutEntryPoint(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `local x = 1`)

	_, err := ref.Load(nil)
	require.Error(t, err)

	var pluginErr *toolboxerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Contains(t, err.Error(), "main")
}

func TestLoadSurfacesTopLevelErrors(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `error("broken at top level")`)

	_, err := ref.Load(nil)
	require.Error(t, err)

	var pluginErr *toolboxerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Contains(t, err.Error(), "broken at top level")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	ref := NewReference(filepath.Join(t.TempDir(), "ghost.lua"))
	_, err := ref.Load(nil)
	require.Error(t, err)
}

func TestCallCapturesRuntimeErrors(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `
function main(files)
	error("exploded inside the plugin")
end
`)

	program, err := ref.Load(nil)
	require.NoError(t, err)

	_, err = program.Call(nil)
	require.Error(t, err)

	var execErr *toolboxerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "exploded inside the plugin")
}

func TestSandboxRemovesProcessControl(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `
function main(files)
	return tostring(os.execute) .. "/" .. tostring(dofile) .. "/" .. tostring(require)
end
`)

	program, err := ref.Load(nil)
	require.NoError(t, err)

	result, err := program.Call(nil)
	require.NoError(t, err)
	assert.Equal(t, "nil/nil/nil", result)
}

func TestCallPassesOneArgumentPerKey(t *testing.T) {
	t.Parallel()

	ref := writeScript(t, `
function main(files)
	local n = 0
	for _ in pairs(files) do n = n + 1 end
	return n
end
`)

	program, err := ref.Load(nil)
	require.NoError(t, err)

	result, err := program.Call(map[string]string{"A": "a", "B": "b", "C": "c"})
	require.NoError(t, err)
	assert.Equal(t, float64(3), result)
}
