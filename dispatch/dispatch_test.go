package dispatch

import (
	"context"
	"testing"
	"time"

	"sigfoxbridge-go/errcode"
)

// fakeSource is a manually signalled ready channel plus a call counter.
type fakeSource struct {
	ready chan struct{}
	calls int
	err   error
}

func newFakeSource() *fakeSource { return &fakeSource{ready: make(chan struct{}, 1)} }

func (f *fakeSource) fire() {
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *fakeSource) cb() error {
	f.calls++
	return f.err
}

func TestRegisterRejectsBadInput(t *testing.T) {
	d := New()
	if err := d.Register("", make(chan struct{}), func() error { return nil }); errcode.Of(err) != errcode.RegistrationFailed {
		t.Errorf("empty name: got %v", err)
	}
	if err := d.Register("a", nil, func() error { return nil }); errcode.Of(err) != errcode.RegistrationFailed {
		t.Errorf("nil channel: got %v", err)
	}
	if err := d.Register("a", make(chan struct{}), nil); errcode.Of(err) != errcode.RegistrationFailed {
		t.Errorf("nil callback: got %v", err)
	}

	src := newFakeSource()
	if err := d.Register("a", src.ready, src.cb); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Register("a", src.ready, src.cb); errcode.Of(err) != errcode.RegistrationFailed {
		t.Errorf("duplicate name: got %v", err)
	}
}

func TestDispatchSingleReadySource(t *testing.T) {
	d := New()
	a, b := newFakeSource(), newFakeSource()
	mustRegister(t, d, "a", a)
	mustRegister(t, d, "b", b)

	a.fire()
	if err := d.WaitAndDispatch(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if a.calls != 1 || b.calls != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", a.calls, b.calls)
	}
}

func TestDispatchServicesAllReadyAtMostOnce(t *testing.T) {
	d := New()
	a, b, c := newFakeSource(), newFakeSource(), newFakeSource()
	mustRegister(t, d, "a", a)
	mustRegister(t, d, "b", b)
	mustRegister(t, d, "c", c)

	a.fire()
	b.fire()
	c.fire()
	if err := d.WaitAndDispatch(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Errorf("calls = (%d, %d, %d), want (1, 1, 1)", a.calls, b.calls, c.calls)
	}
}

func TestUnregisteredSourceNeverInvoked(t *testing.T) {
	d := New()
	a, b := newFakeSource(), newFakeSource()
	mustRegister(t, d, "a", a)
	mustRegister(t, d, "b", b)

	// a's callback unregisters b; even though b is ready it must not run.
	aCalls := 0
	d.Unregister("a")
	if err := d.Register("a", a.ready, func() error {
		aCalls++
		d.Unregister("b")
		return nil
	}); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	a.fire()
	b.fire()
	if err := d.WaitAndDispatch(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if aCalls != 1 {
		t.Errorf("a calls = %d, want 1", aCalls)
	}
	if b.calls != 0 {
		t.Errorf("b invoked after unregister: %d calls", b.calls)
	}
}

func TestCallbackErrorPropagates(t *testing.T) {
	d := New()
	a := newFakeSource()
	a.err = errcode.PeripheralRead
	mustRegister(t, d, "a", a)

	a.fire()
	if err := d.WaitAndDispatch(context.Background()); errcode.Of(err) != errcode.PeripheralRead {
		t.Errorf("got %v, want peripheral_read", err)
	}
}

func TestClosedSourceIsWaitFailure(t *testing.T) {
	d := New()
	ch := make(chan struct{})
	if err := d.Register("a", ch, func() error { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	close(ch)
	if err := d.WaitAndDispatch(context.Background()); errcode.Of(err) != errcode.WaitFailed {
		t.Errorf("got %v, want wait_failed", err)
	}
}

func TestContextCancelUnblocks(t *testing.T) {
	d := New()
	a := newFakeSource()
	mustRegister(t, d, "a", a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.WaitAndDispatch(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAndDispatch did not unblock on cancel")
	}
	if a.calls != 0 {
		t.Errorf("callback ran on cancel: %d calls", a.calls)
	}
}

func mustRegister(t *testing.T, d *Dispatcher, name string, f *fakeSource) {
	t.Helper()
	if err := d.Register(name, f.ready, f.cb); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
}
