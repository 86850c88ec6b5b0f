package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventDocumentChanged, Data: ChangeData{Path: "docs/a.md", Op: "updated"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"docs/a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishTransition(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishTransition(models.TransitionOutcome{
		Path:    "docs/b.md",
		NewPath: "docs/in-progress/b.md",
		From:    lifecycle.Approved,
		To:      lifecycle.InProgress,
		Moved:   true,
	})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.transitioned") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"new_path":"docs/in-progress/b.md"`) {
			t.Errorf("transition payload = %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishReport_Throttle(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First summary goes out immediately; the rest collapse into one
	// trailing event carrying the latest summary.
	b.PublishReport(models.Summary{Total: 1})
	b.PublishReport(models.Summary{Total: 2})
	b.PublishReport(models.Summary{Total: 3})

	var got []string
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
			if len(got) == 2 {
				break loop
			}
		case <-deadline:
			break loop
		}
	}

	if len(got) != 2 {
		t.Fatalf("report events = %d, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], `"total":1`) {
		t.Errorf("first report = %q", got[0])
	}
	if !strings.Contains(got[1], `"total":3`) {
		t.Errorf("trailing report should carry latest summary: %q", got[1])
	}

	// Nothing else should follow.
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra event %q", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

// syncRecorder guards the recorder body; the handler writes from its own goroutine.
type syncRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishDocumentChanged("updated", "docs/x.md")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: document.changed") {
		t.Errorf("handler output missing event: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: EventDocumentChanged, Data: ChangeData{Path: "x.md"}})
	b.PublishDocumentChanged("updated", "x.md")
	b.PublishTransition(models.TransitionOutcome{Path: "x.md"})
	b.PublishReport(models.Summary{})
}
