// Package bridge is the harness core: it owns the peripherals, the
// readiness dispatcher, and the lifecycle state machine, and runs the
// button-poll and serial-receive handlers on a single goroutine.
package bridge

import (
	"context"
	"log/slog"

	"sigfoxbridge-go/bus"
	"sigfoxbridge-go/dispatch"
	"sigfoxbridge-go/errcode"
	"sigfoxbridge-go/modem"
	"sigfoxbridge-go/term"
	"sigfoxbridge-go/types"
	"sigfoxbridge-go/x/timex"
)

type Service struct {
	conn *bus.Connection
	log  *slog.Logger
	flag *term.Flag
	open Opener

	cfg   types.BridgeConfig
	disp  *dispatch.Dispatcher
	per   peripherals
	mdm   *modem.Modem
	st    peripheralState
	rxBuf []byte

	ctrl  *bus.Subscription
	phase types.Phase
	fatal error
}

// Run blocks until the bridge terminates. It waits for configuration on
// config/bridge, acquires peripherals, drives the dispatch loop until the
// termination flag is set or a fatal error occurs, then unwinds. The
// returned error is nil for a signal-initiated shutdown and the fatal
// cause otherwise.
func Run(ctx context.Context, conn *bus.Connection, flag *term.Flag, open Opener, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		conn:  conn,
		log:   log.With("service", "bridge"),
		flag:  flag,
		open:  open,
		disp:  dispatch.New(),
		phase: types.PhaseUninitialized,
	}
	s.setPhase(types.PhaseUninitialized, "")
	s.run(ctx)
	return s.fatal
}

func (s *Service) run(ctx context.Context) {
	// The dispatch wait must unblock on the termination flag as well as
	// on parent cancellation.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-s.flag.Wake():
		}
		cancel()
	}()

	cfgSub := s.conn.Subscribe(topicConfig())
	defer s.conn.Unsubscribe(cfgSub)

	cfg, ok := s.awaitConfig(runCtx, cfgSub)
	if !ok {
		s.setPhase(types.PhaseTerminated, "no_config")
		return
	}
	s.cfg = cfg
	s.rxBuf = make([]byte, cfg.ChunkSize)

	s.setPhase(types.PhaseInitializing, "")
	if err := s.initPeripherals(); err != nil {
		s.failf(err, "initialization failed")
		s.shutdown()
		return
	}

	s.ctrl = s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(s.ctrl)

	s.setPhase(types.PhaseRunning, "")
	for !s.flag.Requested() {
		err := s.disp.WaitAndDispatch(runCtx)
		if err == nil {
			continue
		}
		if err == context.Canceled || err == context.DeadlineExceeded {
			break // termination requested or parent gone
		}
		s.failf(err, "dispatch failed")
	}

	s.shutdown()
}

// awaitConfig blocks for the retained bridge configuration.
func (s *Service) awaitConfig(ctx context.Context, sub *bus.Subscription) (types.BridgeConfig, bool) {
	for {
		select {
		case <-ctx.Done():
			return types.BridgeConfig{}, false
		case msg := <-sub.Channel():
			cfg, ok := decodeConfig(msg.Payload)
			if !ok {
				s.log.Warn("ignoring malformed config payload")
				continue
			}
			return cfg, true
		}
	}
}

// initPeripherals acquires everything and registers the dispatch sources.
// A registration failure releases all peripherals before returning.
func (s *Service) initPeripherals() error {
	if err := s.per.acquire(s.open, s.cfg); err != nil {
		return err
	}
	s.mdm = modem.New(s.per.serial, s.log)
	s.st.lastButton = s.releasedLevel()

	if err := s.disp.Register("serial", s.per.serial.Readable(), s.onSerial); err != nil {
		s.per.releaseAll()
		return err
	}
	if err := s.disp.Register("timer", s.per.ticker.Ready(), s.onTick); err != nil {
		s.disp.Unregister("serial")
		s.per.releaseAll()
		return err
	}
	return nil
}

// shutdown runs the ShuttingDown -> Terminated path: LED forced inactive
// first (best effort), sources unregistered before their peripherals
// close, then release in reverse acquisition order.
func (s *Service) shutdown() {
	s.setPhase(types.PhaseShuttingDown, string(errcode.Of(s.fatal)))

	if s.per.led != nil {
		if err := s.per.led.Set(false); err != nil {
			s.log.Warn("could not clear LED on shutdown", "err", err)
		}
	}
	s.disp.Unregister("timer")
	s.disp.Unregister("serial")
	s.per.releaseAll()

	s.setPhase(types.PhaseTerminated, "")
}

func (s *Service) failf(err error, msg string) {
	s.log.Error(msg, "err", err)
	if s.fatal == nil {
		s.fatal = err
	}
	s.flag.Request()
}

func (s *Service) setPhase(p types.Phase, status string) {
	s.phase = p
	if status == "ok" {
		status = ""
	}
	s.log.Info("phase", "phase", string(p), "status", status)
	s.conn.Publish(s.conn.NewMessage(
		topicState(),
		types.BridgeState{Phase: p, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func (s *Service) pressedLevel() types.Level {
	if s.cfg.ActiveLow {
		return types.Low
	}
	return types.High
}

func (s *Service) releasedLevel() types.Level {
	if s.cfg.ActiveLow {
		return types.High
	}
	return types.Low
}
