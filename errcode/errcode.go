package errcode

// Code is a stable, short error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Lifecycle and dispatch.
	InitFailed         Code = "init_failed"
	RegistrationFailed Code = "registration_failed"
	WaitFailed         Code = "wait_failed"
	TimerAckFailed     Code = "timer_ack_failed"

	// Peripheral I/O.
	PeripheralRead  Code = "peripheral_read"
	PeripheralWrite Code = "peripheral_write"

	// Bus / control plane.
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidTopic   Code = "invalid_topic"
	UnknownCommand Code = "unknown_command"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches op context and a cause to a code.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries the given code, directly or wrapped.
func Is(err error, c Code) bool { return Of(err) == c }
