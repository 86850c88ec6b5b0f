package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	events  []string
	settled atomic.Int32
}

func (r *recorder) has(e string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.events {
		if got == e {
			return true
		}
	}
	return false
}

func (r *recorder) contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.events {
		if strings.Contains(got, substr) {
			return true
		}
	}
	return false
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func startWatch(t *testing.T, root string) *recorder {
	t.Helper()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := Config{
		Root:     root,
		Roots:    []string{"docs"},
		Debounce: 100 * time.Millisecond,
		Managed: func(rel string) bool {
			return strings.HasSuffix(rel, ".md") && !strings.Contains(rel, "scratch-pads")
		},
		SkipDir: func(rel string) bool {
			return filepath.Base(rel) == "scratch-pads"
		},
		OnChange: func(op, rel string) {
			rec.mu.Lock()
			rec.events = append(rec.events, op+":"+rel)
			rec.mu.Unlock()
		},
		OnSettle: func(context.Context) {
			rec.settled.Add(1)
		},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	go func() { _ = Watch(ctx, cfg) }()
	time.Sleep(100 * time.Millisecond)
	return rec
}

func projectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs", "scratch-pads"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestWatch_NewDocumentReportedAndSettled(t *testing.T) {
	root := projectDir(t)
	rec := startWatch(t, root)

	_ = os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("# A"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:docs/a.md")
	}, "expected created:docs/a.md")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.settled.Load() >= 1
	}, "expected settle callback after debounce")
}

func TestWatch_IgnoresUnmanagedAndEphemeral(t *testing.T) {
	root := projectDir(t)
	rec := startWatch(t, root)

	_ = os.WriteFile(filepath.Join(root, "docs", "scratch-pads", "notes.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "docs", "image.png"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "docs", "b.md"), []byte("# B"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:docs/b.md")
	}, "expected created:docs/b.md")
	if rec.contains("scratch-pads") || rec.contains("image.png") {
		t.Errorf("unexpected events: %v", rec.snapshot())
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := projectDir(t)
	rec := startWatch(t, root)

	sub := filepath.Join(root, "docs", "in-progress")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.contains(":docs/in-progress/deep.md")
	}, "file in new subdir not reported")
}

func TestWatch_RenameReportsDeleteAndCreate(t *testing.T) {
	root := projectDir(t)
	_ = os.WriteFile(filepath.Join(root, "docs", "old.md"), []byte("# Old"), 0o644)
	rec := startWatch(t, root)

	_ = os.Rename(filepath.Join(root, "docs", "old.md"), filepath.Join(root, "docs", "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("deleted:docs/old.md") && rec.has("created:docs/renamed.md")
	}, "rename should report old path deleted and new path created")
}

func TestWatch_NoRoots(t *testing.T) {
	err := Watch(context.Background(), Config{
		Root:    t.TempDir(),
		Roots:   []string{"missing"},
		Managed: func(string) bool { return true },
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if !errors.Is(err, ErrNoRootExists) {
		t.Fatalf("expected ErrNoRootExists, got %v", err)
	}
}
