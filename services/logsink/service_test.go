package logsink

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"sigfoxbridge-go/bus"
)

// syncWriter guards the buffer against the sink goroutine.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func newTestSink(t *testing.T) (*Service, *syncWriter, *bus.Bus, context.CancelFunc) {
	t.Helper()
	w := &syncWriter{}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := bus.NewBus(16, "+", "#")
	s := New(log)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, b.NewConnection("logsink")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, w, b, cancel
}

func waitContains(t *testing.T, w *syncWriter, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(w.String(), want) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("log never contained %q; got:\n%s", want, w.String())
}

func TestSink_MirrorsMessages(t *testing.T) {
	s, w, b, cancel := newTestSink(t)
	defer cancel()

	b.Publish(&bus.Message{Topic: bus.T("bridge", "serial", "rx"), Payload: "abc"})
	waitContains(t, w, "topic=bridge/serial/rx")
	waitContains(t, w, "payload=abc")

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("sink did not stop on cancel")
	}
}

func TestSink_TruncatesLongPayloads(t *testing.T) {
	_, w, b, cancel := newTestSink(t)
	defer cancel()

	b.Publish(&bus.Message{
		Topic:   bus.T("bridge", "serial", "rx"),
		Payload: strings.Repeat("x", 500),
	})
	waitContains(t, w, "...")
	if strings.Contains(w.String(), strings.Repeat("x", 200)) {
		t.Error("payload not truncated")
	}
}

func TestRenderPayloadShort(t *testing.T) {
	if got := renderPayload(42); got != "42" {
		t.Errorf("renderPayload(42) = %q", got)
	}
}
