package bridge

import (
	"sigfoxbridge-go/bus"
	"sigfoxbridge-go/errcode"
	"sigfoxbridge-go/types"
)

// onTick services one timer firing: acknowledge it, then run one poll.
func (s *Service) onTick() error {
	if err := s.per.ticker.Ack(); err != nil {
		return err
	}
	return s.pollOnce()
}

// pollOnce drains at most one control message, then samples the button
// and detects the pressed edge.
func (s *Service) pollOnce() error {
	if err := s.drainControl(); err != nil {
		return err
	}

	lvl, err := s.per.button.Get()
	if err != nil {
		return errcode.Wrap(errcode.PeripheralRead, "bridge.button", err)
	}
	if lvl == s.st.lastButton {
		return nil
	}

	pressed := lvl == s.pressedLevel()
	s.conn.Publish(s.conn.NewMessage(topicButtonEvent(), types.ButtonValue{Pressed: pressed}, false))
	if pressed {
		rep, err := s.mdm.SendPress(s.cfg.PayloadHex)
		if err != nil {
			return err
		}
		s.conn.Publish(s.conn.NewMessage(topicSerialTx(), rep, false))
	}
	s.st.lastButton = lvl
	return nil
}

// onSerial services one readiness wakeup with a single bounded read.
// Remaining buffered data re-arms the source for the next dispatch.
func (s *Service) onSerial() error {
	n, err := s.per.serial.Read(s.rxBuf)
	if err != nil {
		return errcode.Wrap(errcode.PeripheralRead, "bridge.serial", err)
	}
	if n == 0 {
		return nil
	}

	chunk := append([]byte(nil), s.rxBuf[:n]...)
	s.st.rxTotal += uint64(n)
	s.log.Info("serial rx", "bytes", n, "total", s.st.rxTotal, "data", string(chunk))
	s.conn.Publish(s.conn.NewMessage(
		topicSerialRx(),
		types.RxChunk{N: n, Total: s.st.rxTotal, Data: chunk},
		false,
	))

	active := s.st.ledActive()
	if err := s.per.led.Set(active); err != nil {
		return errcode.Wrap(errcode.PeripheralWrite, "bridge.led", err)
	}
	s.conn.Publish(s.conn.NewMessage(topicLEDState(), types.LEDValue{Active: active}, true))
	return nil
}

// drainControl handles at most one pending control message per tick, on
// the dispatch goroutine.
func (s *Service) drainControl() error {
	if s.ctrl == nil {
		return nil
	}
	select {
	case msg := <-s.ctrl.Channel():
		return s.handleControl(msg)
	default:
		return nil
	}
}

// handleControl serves bridge/control/<verb>.
func (s *Service) handleControl(msg *bus.Message) error {
	if msg.Topic.Len() < 3 {
		s.conn.Reply(msg, types.ErrorReply{Error: string(errcode.InvalidTopic)}, false)
		return nil
	}
	switch verb := msg.Topic.At(2); verb {
	case "send":
		payload := s.cfg.PayloadHex
		if hexStr, ok := msg.Payload.(string); ok && hexStr != "" {
			payload = hexStr
		}
		rep, err := s.mdm.SendPress(payload)
		if err != nil {
			if errcode.Of(err) == errcode.InvalidParams {
				// Operator typo, not a peripheral fault.
				s.conn.Reply(msg, types.ErrorReply{Error: string(errcode.InvalidParams)}, false)
				return nil
			}
			s.conn.Reply(msg, types.ErrorReply{Error: string(errcode.Of(err))}, false)
			return err
		}
		s.conn.Publish(s.conn.NewMessage(topicSerialTx(), rep, false))
		s.conn.Reply(msg, types.OKReply{OK: true}, false)
		return nil
	case "state":
		s.conn.Reply(msg, types.BridgeState{Phase: s.phase}, false)
		return nil
	case "stop":
		s.flag.Request()
		s.conn.Reply(msg, types.OKReply{OK: true}, false)
		return nil
	default:
		s.conn.Reply(msg, types.ErrorReply{Error: string(errcode.UnknownCommand)}, false)
		return nil
	}
}
