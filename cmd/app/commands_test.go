package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/doclife/internal/models"
	"github.com/starford/doclife/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{"doclife"}, args...))
	return &out, err
}

func project(t *testing.T) string {
	t.Helper()
	dir, _ := testutil.Project(t, map[string]string{
		"docs/a.md":                "# A\n**Status**: in-progress\n- [x] one\n",
		"docs/b.md":                "# B\n- [ ] one\n- [x] two\n",
		"docs/handoffs/session.md": "**Status**: in-progress\n- [x] one\n",
	})
	return dir
}

func TestReportCommand(t *testing.T) {
	dir := project(t)

	out, err := runCLI(t, "--root", dir, "-c", filepath.Join(dir, "missing.yaml"), "report")
	require.NoError(t, err)

	var rep models.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.NeedsTransition)
	// Not a git repository: recorded, not fatal.
	assert.NotEmpty(t, rep.CodeChanges.Error)
	assert.False(t, rep.CodeChanges.Detected)
}

func TestApplyCommand(t *testing.T) {
	dir := project(t)

	out, err := runCLI(t, "--root", dir, "-c", filepath.Join(dir, "missing.yaml"), "apply", "--dry-run")
	require.NoError(t, err)
	var plan models.ApplyResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &plan))
	assert.True(t, plan.DryRun)
	require.Len(t, plan.Transitions, 1)
	assert.Equal(t, "docs/implemented/a.md", plan.Transitions[0].NewPath)

	out, err = runCLI(t, "--root", dir, "-c", filepath.Join(dir, "missing.yaml"), "apply")
	require.NoError(t, err)
	var res models.ApplyResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.Applied)
	assert.FileExists(t, filepath.Join(dir, "docs", "implemented", "a.md"))
}

func TestCompletionCommand(t *testing.T) {
	dir := project(t)

	out, err := runCLI(t, "--root", dir, "-c", filepath.Join(dir, "missing.yaml"), "completion", "docs/b.md")
	require.NoError(t, err)
	var c models.Completion
	require.NoError(t, json.Unmarshal(out.Bytes(), &c))
	assert.Equal(t, 50, c.Percentage)

	_, err = runCLI(t, "--root", dir, "-c", filepath.Join(dir, "missing.yaml"), "completion")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestConfigFileRoots(t *testing.T) {
	dir := project(t)
	cfgPath := filepath.Join(dir, "doclife.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("docs:\n  roots: []\n"), 0o644))

	_, err := runCLI(t, "--root", dir, "-c", cfgPath, "documents")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document roots configured")
}
