package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"sigfoxbridge-go/errcode"
)

// TickerSource turns a time.Ticker into a dispatcher source. Every firing
// must be acknowledged by the serviced callback; dispatching without a
// pending firing is a timer fault.
type TickerSource struct {
	ticker  *time.Ticker
	ready   chan struct{}
	done    chan struct{}
	pending atomic.Int32

	stopOnce sync.Once
}

func NewTicker(period time.Duration) *TickerSource {
	if period <= 0 {
		period = time.Millisecond
	}
	s := &TickerSource{
		ticker: time.NewTicker(period),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.forward()
	return s
}

func (s *TickerSource) forward() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.pending.Add(1)
			s.signal()
		}
	}
}

func (s *TickerSource) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *TickerSource) Ready() <-chan struct{} { return s.ready }

// Ack consumes exactly one pending firing. Firings left pending keep the
// source ready so no period is silently skipped.
func (s *TickerSource) Ack() error {
	for {
		n := s.pending.Load()
		if n <= 0 {
			return errcode.Wrap(errcode.TimerAckFailed, "dispatch.ticker", nil)
		}
		if s.pending.CompareAndSwap(n, n-1) {
			if n > 1 {
				s.signal()
			}
			return nil
		}
	}
}

func (s *TickerSource) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}
