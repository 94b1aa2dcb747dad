// Package modem builds and sends the Sigfox AT command sequences the
// bridge emits over the serial port.
package modem

import (
	"encoding/hex"
	"io"
	"log/slog"

	"sigfoxbridge-go/errcode"
	"sigfoxbridge-go/types"
)

// Constants for the Sigfox modem link.
const (
	Terminator = "\n\r" // command framing used by the modem firmware

	cmdResetChannels = "AT$RC"
	cmdSendFrame     = "AT$SF="

	// MaxPayloadBytes is the Sigfox uplink frame limit.
	MaxPayloadBytes = 12
)

// PressMessage builds the outbound sequence for one button press: a macro
// channel reset followed by a send-frame with the given hex payload.
// The default payload reproduces the byte sequence
// "AT$RC\n\rAT$SF=692665535048455245\n\r".
func PressMessage(payloadHex string) ([]byte, error) {
	raw, err := hex.DecodeString(payloadHex)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "modem.press_message", err)
	}
	if len(raw) == 0 || len(raw) > MaxPayloadBytes {
		return nil, errcode.Wrap(errcode.InvalidParams, "modem.press_message", nil)
	}
	msg := make([]byte, 0, len(cmdResetChannels)+len(cmdSendFrame)+len(payloadHex)+2*len(Terminator))
	msg = append(msg, cmdResetChannels...)
	msg = append(msg, Terminator...)
	msg = append(msg, cmdSendFrame...)
	msg = append(msg, payloadHex...)
	msg = append(msg, Terminator...)
	return msg, nil
}

// Send writes msg in full, looping on partial writes. The message is sent
// whole or aborted at the first write error; there is no retry.
func Send(w io.Writer, msg []byte) (types.TxReport, error) {
	sent := 0
	calls := 0
	for sent < len(msg) {
		calls++
		n, err := w.Write(msg[sent:])
		sent += n
		if err != nil {
			return types.TxReport{N: sent, Calls: calls},
				errcode.Wrap(errcode.PeripheralWrite, "modem.send", err)
		}
		if n == 0 {
			return types.TxReport{N: sent, Calls: calls},
				errcode.Wrap(errcode.PeripheralWrite, "modem.send", errcode.Code("zero_write"))
		}
	}
	return types.TxReport{N: sent, Calls: calls}, nil
}

// Modem binds a port to the command layer.
type Modem struct {
	port io.Writer
	log  *slog.Logger
}

func New(port io.Writer, log *slog.Logger) *Modem {
	if log == nil {
		log = slog.Default()
	}
	return &Modem{port: port, log: log.With("component", "modem")}
}

// SendPress emits the press sequence for the given payload.
func (m *Modem) SendPress(payloadHex string) (types.TxReport, error) {
	msg, err := PressMessage(payloadHex)
	if err != nil {
		return types.TxReport{}, err
	}
	rep, err := Send(m.port, msg)
	if err != nil {
		m.log.Error("send aborted", "sent", rep.N, "of", len(msg), "err", err)
		return rep, err
	}
	m.log.Debug("sent frame", "bytes", rep.N, "calls", rep.Calls)
	return rep, nil
}
