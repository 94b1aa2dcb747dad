package types

import "sigfoxbridge-go/x/mathx"

// ------------------------
// Bridge configuration
// ------------------------

// SerialConfig selects and configures the modem port.
type SerialConfig struct {
	Device      string `json:"device"`       // e.g. "/dev/ttyUSB0"
	Baud        int    `json:"baud"`         // 0 => 9600
	FlowControl bool   `json:"flow_control"` // RTS/CTS; the modem link runs without it
}

// BridgeConfig is supplied on the "config/bridge" bus topic.
type BridgeConfig struct {
	Serial    SerialConfig `json:"serial"`
	ButtonPin string       `json:"button_pin"` // periph.io pin name, e.g. "GPIO17"
	LEDPin    string       `json:"led_pin"`    // e.g. "GPIO27"

	// ActiveLow maps logical "active" to electrical low for both pins
	// (pressed button reads low, asserted LED drives low).
	ActiveLow bool `json:"active_low"`

	PollIntervalMs int    `json:"poll_interval_ms"` // button poll period; default 1
	ChunkSize      int    `json:"chunk_size"`       // max bytes per serial read; default 256
	PayloadHex     string `json:"payload_hex"`      // AT$SF payload; default DefaultPayloadHex
}

const (
	DefaultBaud       = 9600
	DefaultPollMs     = 1
	DefaultChunkSize  = 256
	DefaultPayloadHex = "692665535048455245"
)

// Normalize fills defaults and clamps numeric fields into sane bounds.
func (c BridgeConfig) Normalize() BridgeConfig {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = DefaultBaud
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = DefaultPollMs
	}
	c.PollIntervalMs = mathx.Clamp(c.PollIntervalMs, 1, 1000)
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	c.ChunkSize = mathx.Clamp(c.ChunkSize, 16, 4096)
	if c.PayloadHex == "" {
		c.PayloadHex = DefaultPayloadHex
	}
	return c
}
