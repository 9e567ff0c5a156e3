package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupCacheHome points the run cache at a throwaway directory.
func setupCacheHome(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeScriptFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListCommand_TableOutput(t *testing.T) {
	setupCacheHome(t)

	dir := t.TempDir()
	writeScriptFile(t, dir, "audit.lua",
		"-- name: Payroll audit\n"+
			"-- description: Flags rows that break payroll policy\n"+
			"-- required_files:\n"+
			"--   BASE: Base workbook\n"+
			"function main(files) return 0 end\n")
	writeScriptFile(t, dir, "export.lua",
		"-- name: Honda export\nfunction main(files) return 0 end\n")

	stdout, _, err := executeCommand(t, "list", "--scripts", dir)
	require.NoError(t, err)

	require.Contains(t, stdout, "NAME")
	require.Contains(t, stdout, "Payroll audit")
	require.Contains(t, stdout, "Flags rows that break payroll policy")
	require.Contains(t, stdout, "Honda export")
	require.Contains(t, stdout, "(no description)")
	// Buffer capture is non-TTY, so ASCII fallback icons apply.
	require.Contains(t, stdout, "[??] unknown")
	require.Contains(t, stdout, "never")
}

func TestListCommand_EmptyDirectory(t *testing.T) {
	setupCacheHome(t)

	dir := t.TempDir()
	stdout, _, err := executeCommand(t, "list", "--scripts", dir)
	require.NoError(t, err)
	require.Contains(t, stdout, "No plug-ins found")
	require.Contains(t, stdout, dir)
}

func TestListCommand_MissingDirectory(t *testing.T) {
	setupCacheHome(t)

	_, _, err := executeCommand(t, "list", "--scripts", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to scan plug-in directory")
}

func TestListCommand_JSONOutput(t *testing.T) {
	setupCacheHome(t)

	dir := t.TempDir()
	writeScriptFile(t, dir, "audit.lua",
		"-- name: Payroll audit\n"+
			"-- required_files:\n"+
			"--   BASE: Base workbook\n"+
			"--   DEMO: Demographics export\n"+
			"-- file_filters:\n"+
			"--   BASE: CSV Files (*.csv)\n"+
			"function main(files) return 0 end\n")

	stdout, _, err := executeCommand(t, "list", "--scripts", dir, "--json")
	require.NoError(t, err)

	var payload listJSONPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	require.Equal(t, 1, payload.Count)
	require.Equal(t, "Payroll audit", payload.Plugins[0].Name)
	require.Len(t, payload.Plugins[0].Inputs, 2)
	require.Equal(t, "BASE", payload.Plugins[0].Inputs[0].Key)
	require.Equal(t, "CSV Files (*.csv)", payload.Plugins[0].Inputs[0].Filter)
	require.Equal(t, "DEMO", payload.Plugins[0].Inputs[1].Key)
	require.Equal(t, "unknown", payload.Plugins[0].Status.String())
}
