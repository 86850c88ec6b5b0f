// Package testutil provides shared test helpers for building project trees
// and git repositories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/starford/doclife/internal/storage"
)

// Project creates a temporary project directory holding files (paths are
// slash-separated and relative) and returns it with a storage.FS over it.
func Project(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFiles writes files under dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// GitInit initializes a repository in dir.
func GitInit(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

// GitCommit writes files under dir, stages them, and commits.
func GitCommit(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) {
	t.Helper()
	WriteFiles(t, dir, files)
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name := range files {
		if _, err := wt.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}
