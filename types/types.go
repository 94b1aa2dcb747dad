package types

// ------------------------
// Logic levels
// ------------------------

// Level is a sampled digital logic level.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

func (l Level) MarshalJSON() ([]byte, error) { return []byte(`"` + l.String() + `"`), nil }

// ------------------------
// Bridge lifecycle
// ------------------------

// Phase is the bridge lifecycle phase, published retained on bridge/state.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseInitializing  Phase = "initializing"
	PhaseRunning       Phase = "running"
	PhaseShuttingDown  Phase = "shutting_down"
	PhaseTerminated    Phase = "terminated"
)

type BridgeState struct {
	Phase  Phase  `json:"phase"`
	Status string `json:"status,omitempty"` // freeform short code
	TSms   int64  `json:"ts_ms"`
}

// ------------------------
// Telemetry payloads
// ------------------------

type ButtonValue struct {
	Pressed bool `json:"pressed"`
}

// RxChunk is one bounded serial read worth of modem output.
type RxChunk struct {
	N     int    `json:"n"`
	Total uint64 `json:"total"`
	Data  []byte `json:"data"`
}

type LEDValue struct {
	Active bool `json:"active"`
}

type TxReport struct {
	N     int `json:"n"`
	Calls int `json:"calls"` // write calls needed to drain the message
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
