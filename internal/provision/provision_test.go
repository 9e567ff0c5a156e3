package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/opskit/toolbox/internal/metadata"
	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

func metaFromYAML(t *testing.T, doc string) *metadata.Metadata {
	t.Helper()
	var meta metadata.Metadata
	require.NoError(t, yaml.Unmarshal([]byte(doc), &meta))
	return &meta
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

// scriptedSelector replays canned answers and records the prompts it saw.
type scriptedSelector struct {
	answers map[string]string
	cancel  string // key at which to simulate a cancelled dialog
	prompts []FileRequest
}

func (s *scriptedSelector) SelectFile(_ context.Context, req FileRequest) (string, error) {
	s.prompts = append(s.prompts, req)
	if req.Key == s.cancel {
		return "", ErrCancelled
	}
	return s.answers[req.Key], nil
}

func TestProvisionCollectsAllPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := touch(t, dir, "base.csv")
	demo := touch(t, dir, "demo.csv")

	meta := metaFromYAML(t, `
name: Honda export
required_files:
  BASE_FILE: "Billing file"
  DEMO_FILE: "Demographics file"
`)

	sel := &scriptedSelector{answers: map[string]string{"BASE_FILE": base, "DEMO_FILE": demo}}
	req, err := Provision(context.Background(), meta, sel)
	require.NoError(t, err)

	assert.Equal(t, "Honda export", req.Plugin)
	assert.Equal(t, map[string]string{"BASE_FILE": base, "DEMO_FILE": demo}, req.Paths)
}

func TestProvisionPromptsInDeclarationOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := touch(t, dir, "f.csv")

	meta := metaFromYAML(t, `
name: ordering
required_files:
  BASE: "Billing file"
  DEMO: "Demographics file"
`)

	sel := &scriptedSelector{answers: map[string]string{"BASE": p, "DEMO": p}}
	_, err := Provision(context.Background(), meta, sel)
	require.NoError(t, err)

	require.Len(t, sel.prompts, 2)
	assert.Equal(t, "BASE", sel.prompts[0].Key)
	assert.Equal(t, "Billing file", sel.prompts[0].Label)
	assert.Equal(t, "DEMO", sel.prompts[1].Key)
}

func TestProvisionCancellationAbortsEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := touch(t, dir, "f.csv")

	meta := metaFromYAML(t, `
name: cancelled
required_files:
  P1: "First workbook"
  P2: "Second workbook"
`)

	sel := &scriptedSelector{answers: map[string]string{"P1": p}, cancel: "P2"}
	req, err := Provision(context.Background(), meta, sel)

	require.Nil(t, req, "no partial RunRequest may escape")
	var cancelled *toolboxerrors.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, "P2", cancelled.Key)
	assert.Equal(t, "Second workbook", cancelled.Label)
}

func TestProvisionEmptyPathCountsAsCancel(t *testing.T) {
	t.Parallel()

	meta := metaFromYAML(t, `
name: empty
required_files:
  IN: "Input file"
`)

	sel := &scriptedSelector{answers: map[string]string{}}
	_, err := Provision(context.Background(), meta, sel)

	var cancelled *toolboxerrors.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, "IN", cancelled.Key)
}

func TestProvisionRejectsVanishedPath(t *testing.T) {
	t.Parallel()

	meta := metaFromYAML(t, `
name: vanished
required_files:
  IN: "Input file"
`)

	sel := &scriptedSelector{answers: map[string]string{"IN": filepath.Join(t.TempDir(), "gone.csv")}}
	_, err := Provision(context.Background(), meta, sel)
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(*toolboxerrors.CancelledError))
}

func TestProvisionPassesFilterPattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := touch(t, dir, "f.xlsx")

	meta := metaFromYAML(t, `
name: filtered
required_files:
  P1: "First workbook"
file_filters:
  P1: "*.xlsx"
`)

	sel := &scriptedSelector{answers: map[string]string{"P1": p}}
	_, err := Provision(context.Background(), meta, sel)
	require.NoError(t, err)

	require.Len(t, sel.prompts, 1)
	assert.Equal(t, "*.xlsx", sel.prompts[0].Pattern)
}

func TestProvisionNoRequirements(t *testing.T) {
	t.Parallel()

	meta := metaFromYAML(t, `name: standalone`)

	sel := &scriptedSelector{}
	req, err := Provision(context.Background(), meta, sel)
	require.NoError(t, err)
	assert.Empty(t, req.Paths)
	assert.Empty(t, sel.prompts)
}

func TestSelectorFuncAdapter(t *testing.T) {
	t.Parallel()

	called := false
	sel := SelectorFunc(func(_ context.Context, req FileRequest) (string, error) {
		called = true
		return "", errors.New("nope")
	})

	_, err := sel.SelectFile(context.Background(), FileRequest{Key: "X"})
	require.Error(t, err)
	assert.True(t, called)
}
