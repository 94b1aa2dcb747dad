// Package hostserial adapts a go.bug.st/serial port to hal.SerialPort.
//
// The OS read blocks, so a single pump goroutine owns it and feeds a
// bounded SPSC ring; the dispatcher sees readiness through a coalescing
// channel and the application reads never block.
package hostserial

import (
	"sync"

	"go.bug.st/serial"

	"sigfoxbridge-go/errcode"
	"sigfoxbridge-go/types"
	"sigfoxbridge-go/x/ring"
)

const (
	pumpChunk = 512
	ringSize  = 4096
)

type Port struct {
	p        serial.Port
	rx       *ring.Ring
	readable chan struct{}
	done     chan struct{}

	mu   sync.Mutex
	rerr error // latched pump read error, surfaced by Read

	closeOnce sync.Once
}

// Open opens the device and starts the RX pump.
func Open(cfg types.SerialConfig) (*Port, error) {
	if cfg.Device == "" {
		return nil, errcode.Wrap(errcode.InvalidParams, "hostserial.open", nil)
	}
	if cfg.FlowControl {
		// The modem link runs without flow control; nothing here drives RTS/CTS.
		return nil, errcode.Wrap(errcode.Unsupported, "hostserial.open", nil)
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = types.DefaultBaud
	}
	sp, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "hostserial.open", err)
	}

	return newPort(sp, ringSize), nil
}

func newPort(sp serial.Port, size int) *Port {
	p := &Port{
		p:        sp,
		rx:       ring.New(size),
		readable: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.pump()
	return p
}

func (p *Port) pump() {
	tmp := make([]byte, pumpChunk)
	for {
		n, err := p.p.Read(tmp)
		if n > 0 {
			rest := tmp[:n]
			for len(rest) > 0 {
				w := p.rx.WriteFrom(rest)
				rest = rest[w:]
				p.signal()
				if len(rest) == 0 {
					break
				}
				// Ring full: hold the bytes until the consumer drains.
				select {
				case <-p.rx.Writable():
				case <-p.done:
					return
				}
			}
		}
		if err != nil {
			p.mu.Lock()
			select {
			case <-p.done:
				// Close tore down the OS port; not a peripheral fault.
			default:
				p.rerr = errcode.Wrap(errcode.PeripheralRead, "hostserial.pump", err)
			}
			p.mu.Unlock()
			p.signal()
			return
		}
	}
}

func (p *Port) signal() {
	select {
	case p.readable <- struct{}{}:
	default:
	}
}

// Read drains buffered bytes without blocking. It returns (0, nil) when
// nothing is pending, and re-signals readiness when bytes remain so a
// bounded read is serviced again on the next dispatch. A latched pump
// error also re-signals: the pump's own wakeup for it may have coalesced
// with the data wakeup this read is servicing, and the error must still
// reach a later empty read.
func (p *Port) Read(b []byte) (int, error) {
	n := p.rx.ReadInto(b)
	if n > 0 {
		if p.rx.Available() > 0 || p.latched() != nil {
			p.signal()
		}
		return n, nil
	}
	return 0, p.latched()
}

func (p *Port) latched() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rerr
}

func (p *Port) Write(b []byte) (int, error) {
	n, err := p.p.Write(b)
	if err != nil {
		return n, errcode.Wrap(errcode.PeripheralWrite, "hostserial.write", err)
	}
	return n, nil
}

func (p *Port) Buffered() int { return p.rx.Available() }

func (p *Port) Readable() <-chan struct{} { return p.readable }

func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.p.Close() // unblocks the pump's OS read
	})
	return err
}
