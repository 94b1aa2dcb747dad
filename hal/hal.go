// Package hal defines the peripheral interfaces the bridge runs against.
// Host adapters live in hal/hostserial and hal/hostgpio; tests use fakes.
package hal

import (
	"io"

	"sigfoxbridge-go/types"
)

// SerialPort is a byte-stream port with a readiness signal.
//
// Read must not block: it returns whatever is buffered, up to len(p),
// and (0, nil) when nothing is pending. Readable is signalled (capacity 1,
// coalescing) whenever new bytes arrive.
type SerialPort interface {
	io.Reader
	io.Writer

	Buffered() int
	Readable() <-chan struct{}
	Close() error
}

// DigitalIn is a sampled input line (the button).
type DigitalIn interface {
	Get() (types.Level, error)
	Close() error
}

// DigitalOut is a driven output line (the LED).
// Set takes the logical level; electrical inversion is the adapter's concern.
type DigitalOut interface {
	Set(active bool) error
	Close() error
}
