package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/doclife/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("# Hello\n**Status**: draft\n")
	if err := s.Write("doc.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("doc.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestMove(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("old.md", []byte("data"))
	if err := s.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.md"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestMoveRefusesOverwrite(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("dst/a.md", []byte("b"))
	err := s.Move("a.md", "dst/a.md")
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	got, _ := s.Read("dst/a.md")
	if string(got) != "b" {
		t.Errorf("destination clobbered: %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.MD", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".git/c.md", []byte("hidden"))

	items, err := s.List("", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.UpdatedAt.IsZero() || it.Error != "" {
			t.Errorf("item = %+v", it)
		}
	}
}

func TestListSkipDir(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("docs/a.md", []byte("a"))
	_ = s.Write("docs/scratch/b.md", []byte("b"))
	_ = s.Write("docs/x/scratch/c.md", []byte("c"))

	var visited []string
	items, err := s.List("docs", func(rel string) bool {
		visited = append(visited, rel)
		return filepath.Base(rel) == "scratch"
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "docs/a.md" {
		t.Errorf("items = %+v", items)
	}
	for _, v := range visited {
		if v == "docs" {
			t.Error("skipDir must not be asked about the listed directory itself")
		}
	}
}

func TestListDanglingSymlinkIsNotFatal(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("docs/a.md", []byte("a"))
	if err := os.Symlink(filepath.Join(s.root, "gone"), filepath.Join(s.root, "docs", "gone.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	items, err := s.List("docs", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v, want a.md and gone.md", items)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempRoot(t)
	if _, err := s.List("nope", nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestListCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("b.txt", []byte("b"))
	items, err := s.List("", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "b.txt" {
		t.Errorf("items = %+v", items)
	}
}

func TestMkdirAll(t *testing.T) {
	s := tempRoot(t)
	created, err := s.MkdirAll("docs/approved")
	if err != nil || !created {
		t.Fatalf("first MkdirAll = %v, %v", created, err)
	}
	created, err = s.MkdirAll("docs/approved")
	if err != nil || created {
		t.Fatalf("second MkdirAll = %v, %v", created, err)
	}
	_ = s.Write("file.md", []byte("x"))
	if _, err := s.MkdirAll("file.md"); !errors.Is(err, apperr.ErrInvalidDirectory) {
		t.Errorf("err = %v, want ErrInvalidDirectory", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("read %q: err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "doclife-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
