package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestGitSource_ChangedPaths(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFiles(t, repo, dir, map[string]string{"docs/a.md": "# A\n"}, "docs")
	commitFiles(t, repo, dir, map[string]string{
		"internal/x.go": "package x\n",
		"docs/a.md":     "# A\n- [x] done\n",
	}, "code")

	src := NewGitSource(dir, 5*time.Second)
	paths, err := src.ChangedPaths(context.Background(), Range{From: "HEAD~1", To: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "internal/x.go"}, paths)

	paths, err = src.ChangedPaths(context.Background(), Range{From: "HEAD", To: "HEAD"})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestGitSource_MergeBase(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFiles(t, repo, dir, map[string]string{"a.go": "package a\n"}, "one")
	commitFiles(t, repo, dir, map[string]string{"b.go": "package b\n"}, "two")

	src := NewGitSource(dir, 0)
	paths, err := src.ChangedPaths(context.Background(), Range{From: "HEAD~1", To: "HEAD", MergeBase: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go"}, paths)
}

func TestGitSource_Errors(t *testing.T) {
	_, err := NewGitSource(t.TempDir(), 0).ChangedPaths(context.Background(), Range{From: "HEAD~1", To: "HEAD"})
	assert.Error(t, err, "not a repository")

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFiles(t, repo, dir, map[string]string{"a.go": "package a\n"}, "one")

	_, err = NewGitSource(dir, 0).ChangedPaths(context.Background(), Range{From: "HEAD~5", To: "HEAD"})
	assert.Error(t, err, "unknown revision")
}

func TestGitSource_ProjectInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFiles(t, repo, dir, map[string]string{"sub/docs/a.md": "# A\n"}, "docs")
	commitFiles(t, repo, dir, map[string]string{
		"sub/docs/a.md":   "# A\n- [x] done\n",
		"sub/cmd/main.go": "package main\n",
		"lib/util.go":     "package lib\n",
	}, "code")

	project := filepath.Join(dir, "sub")
	src := NewGitSource(project, 0).WithBase(project)
	paths, err := src.ChangedPaths(context.Background(), Range{From: "HEAD~1", To: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"../lib/util.go", "cmd/main.go", "docs/a.md"}, paths)

	filter := CodeFilter{DocRoots: []string{"docs"}, Extensions: []string{".go"}}
	assert.Equal(t, []string{"../lib/util.go", "cmd/main.go"}, filter.CodePaths(paths))
}

func TestGitSource_SeparateRepoDir(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFiles(t, repo, dir, map[string]string{"site/docs/a.md": "# A\n"}, "docs")
	commitFiles(t, repo, dir, map[string]string{"site/docs/b.md": "# B\n"}, "more docs")

	src := NewGitSource(dir, 0).WithBase(filepath.Join(dir, "site"))
	paths, err := src.ChangedPaths(context.Background(), Range{From: "HEAD~1", To: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/b.md"}, paths)

	filter := CodeFilter{DocRoots: []string{"docs"}, Extensions: []string{".go", ".md"}}
	assert.Empty(t, filter.CodePaths(paths), "doc paths must match doc roots in the project frame")
}
