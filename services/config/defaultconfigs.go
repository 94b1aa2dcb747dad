package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: profile name (same value placed in ctx under CtxProfileKey)
// Val: raw JSON bytes for that profile
// -----------------------------------------------------------------------------

const cfgHostDev = `{
  "bridge": {
    "serial": {
      "device": "/dev/ttyUSB0",
      "baud": 9600
    },
    "button_pin": "GPIO17",
    "led_pin": "GPIO27",
    "active_low": true,
    "poll_interval_ms": 1,
    "chunk_size": 256
  }
}`

const cfgRPi = `{
  "bridge": {
    "serial": {
      "device": "/dev/serial0",
      "baud": 9600
    },
    "button_pin": "GPIO17",
    "led_pin": "GPIO27",
    "active_low": true,
    "poll_interval_ms": 1,
    "chunk_size": 256
  }
}`

var embeddedConfigs = map[string][]byte{
	"host-dev": []byte(cfgHostDev),
	"rpi":      []byte(cfgRPi),
}
