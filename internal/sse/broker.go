// Package sse implements a Server-Sent Events broker for lifecycle updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/doclife/internal/models"
)

// Event types emitted by the broker.
const (
	EventDocumentChanged      = "document.changed"
	EventDocumentTransitioned = "document.transitioned"
	EventReportUpdated        = "report.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChangeData is the payload of a document.changed event.
type ChangeData struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + report throttle state). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	reportMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	reportCh      chan models.Summary
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. report.updated is emitted at most once
// per reportThrottle; the latest summary published inside the window is sent
// when it closes.
func NewBroker(reportThrottle time.Duration) *Broker {
	if reportThrottle <= 0 {
		reportThrottle = 2 * time.Second
	}

	b := &Broker{
		reportMin:     reportThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		reportCh:      make(chan models.Summary, 16),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	var (
		lastReport time.Time
		pending    *models.Summary
		flushTimer *time.Timer
		flushCh    <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	flush := func() {
		if pending == nil {
			return
		}
		broadcast(Event{Type: EventReportUpdated, Data: *pending})
		pending = nil
		lastReport = time.Now()
	}

	for {
		select {
		case <-b.stopCh:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case sum := <-b.reportCh:
			pending = &sum
			wait := b.reportMin - time.Since(lastReport)
			if wait <= 0 {
				flush()
			} else if flushTimer == nil {
				flushTimer = time.NewTimer(wait)
				flushCh = flushTimer.C
			}

		case <-flushCh:
			flushTimer, flushCh = nil, nil
			flush()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocumentChanged publishes a document.changed event.
// op is one of "created", "updated", "deleted".
func (b *Broker) PublishDocumentChanged(op, path string) {
	b.Publish(Event{Type: EventDocumentChanged, Data: ChangeData{Path: path, Op: op}})
}

// PublishTransition publishes a document.transitioned event.
func (b *Broker) PublishTransition(outcome models.TransitionOutcome) {
	b.Publish(Event{Type: EventDocumentTransitioned, Data: outcome})
}

// PublishReport publishes a throttled report.updated event carrying summary.
func (b *Broker) PublishReport(summary models.Summary) {
	if b.closed.Load() {
		return
	}
	select {
	case b.reportCh <- summary:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
