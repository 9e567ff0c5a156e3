package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCachePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache", "runs.json")

	c, err := NewRunCache(path)
	require.NoError(t, err)

	completed := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	c.Set("Payroll audit", CachedRun{Status: RunSuccess, Summary: "audit.csv", CompletedAt: completed})
	require.NoError(t, c.Save())

	reloaded, err := NewRunCache(path)
	require.NoError(t, err)

	run, ok := reloaded.Get("Payroll audit")
	require.True(t, ok)
	assert.Equal(t, RunSuccess, run.Status)
	assert.Equal(t, "audit.csv", run.Summary)
	assert.True(t, run.CompletedAt.Equal(completed))
}

func TestRunCacheStartsEmptyWhenFileMissing(t *testing.T) {
	t.Parallel()

	c, err := NewRunCache(filepath.Join(t.TempDir(), "runs.json"))
	require.NoError(t, err)

	_, ok := c.Get("anything")
	assert.False(t, ok)
}

func TestRunCacheInvalidate(t *testing.T) {
	t.Parallel()

	c, err := NewRunCache(filepath.Join(t.TempDir(), "runs.json"))
	require.NoError(t, err)

	c.Set("x", CachedRun{Status: RunFailed, Summary: "boom"})
	c.Invalidate("x")

	_, ok := c.Get("x")
	assert.False(t, ok)
}

func TestRunCacheRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewRunCache(path)
	require.Error(t, err)
}
