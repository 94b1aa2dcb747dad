// Package dispatch is a readiness multiplexer over a small set of event
// sources. Each source exposes a coalescing ready channel; callbacks run
// to completion on the caller's goroutine, never concurrently.
package dispatch

import (
	"context"
	"reflect"

	"sigfoxbridge-go/errcode"
)

// Callback services one ready source. A returned error is terminal for
// the run loop.
type Callback func() error

type entry struct {
	name  string
	ready <-chan struct{}
	cb    Callback
}

type Dispatcher struct {
	entries []entry // registration order
	names   map[string]int
}

func New() *Dispatcher {
	return &Dispatcher{names: map[string]int{}}
}

// Register adds a source under a unique name.
func (d *Dispatcher) Register(name string, ready <-chan struct{}, cb Callback) error {
	if name == "" || ready == nil || cb == nil {
		return errcode.Wrap(errcode.RegistrationFailed, "dispatch.register", nil)
	}
	if _, dup := d.names[name]; dup {
		return errcode.Wrap(errcode.RegistrationFailed, "dispatch.register", errcode.Code("duplicate_source"))
	}
	d.names[name] = len(d.entries)
	d.entries = append(d.entries, entry{name: name, ready: ready, cb: cb})
	return nil
}

// Unregister removes a source. Its callback will not run again.
func (d *Dispatcher) Unregister(name string) {
	i, ok := d.names[name]
	if !ok {
		return
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.names, name)
	for j := i; j < len(d.entries); j++ {
		d.names[d.entries[j].name] = j
	}
}

// Len reports the number of registered sources.
func (d *Dispatcher) Len() int { return len(d.entries) }

// WaitAndDispatch blocks until at least one source is ready or ctx ends,
// then services each ready source at most once: the waking source first,
// the rest in registration order. A spurious wakeup returns nil. A closed
// ready channel reports wait_failed.
func (d *Dispatcher) WaitAndDispatch(ctx context.Context) error {
	cases := make([]reflect.SelectCase, 0, len(d.entries)+1)
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(ctx.Done()),
	})
	snapshot := append([]entry(nil), d.entries...)
	for _, e := range snapshot {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(e.ready),
		})
	}

	chosen, _, recvOK := reflect.Select(cases)
	if chosen == 0 {
		return ctx.Err()
	}
	if !recvOK {
		return errcode.Wrap(errcode.WaitFailed, "dispatch.wait", errcode.Code("source_closed"))
	}

	woke := snapshot[chosen-1]
	if err := d.invoke(woke); err != nil {
		return err
	}

	// Service every other source that is already ready, once each.
	for i, e := range snapshot {
		if i == chosen-1 {
			continue
		}
		select {
		case _, ok := <-e.ready:
			if !ok {
				return errcode.Wrap(errcode.WaitFailed, "dispatch.wait", errcode.Code("source_closed"))
			}
			if err := d.invoke(e); err != nil {
				return err
			}
		default:
		}
	}
	return nil
}

// invoke runs the callback only if the source is still registered; a
// callback may unregister its peers.
func (d *Dispatcher) invoke(e entry) error {
	if _, ok := d.names[e.name]; !ok {
		return nil
	}
	return e.cb()
}
