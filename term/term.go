// Package term provides the process-wide termination token. Request is a
// single atomic store plus a coalescing wake, so it is safe to call from
// any goroutine, including the signal relay; it performs no I/O.
package term

import "sync/atomic"

type Flag struct {
	v    atomic.Bool
	wake chan struct{}
}

func NewFlag() *Flag {
	return &Flag{wake: make(chan struct{}, 1)}
}

// Request marks termination and wakes one waiter. It never blocks.
func (f *Flag) Request() {
	f.v.Store(true)
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Requested reports whether termination has been requested.
func (f *Flag) Requested() bool { return f.v.Load() }

// Wake is signalled (coalescing) when Request is called.
func (f *Flag) Wake() <-chan struct{} { return f.wake }
