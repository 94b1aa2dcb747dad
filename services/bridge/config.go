package bridge

import "sigfoxbridge-go/types"

// decodeConfig accepts either a typed BridgeConfig (tests, embedded use)
// or the map form the config service publishes from JSON.
func decodeConfig(v any) (types.BridgeConfig, bool) {
	switch c := v.(type) {
	case types.BridgeConfig:
		return c.Normalize(), true
	case *types.BridgeConfig:
		return c.Normalize(), true
	case map[string]any:
		var cfg types.BridgeConfig
		if s, ok := c["serial"].(map[string]any); ok {
			cfg.Serial.Device, _ = s["device"].(string)
			cfg.Serial.Baud, _ = asInt(s["baud"])
			cfg.Serial.FlowControl, _ = s["flow_control"].(bool)
		}
		cfg.ButtonPin, _ = c["button_pin"].(string)
		cfg.LEDPin, _ = c["led_pin"].(string)
		cfg.ActiveLow, _ = c["active_low"].(bool)
		cfg.PollIntervalMs, _ = asInt(c["poll_interval_ms"])
		cfg.ChunkSize, _ = asInt(c["chunk_size"])
		cfg.PayloadHex, _ = c["payload_hex"].(string)
		return cfg.Normalize(), true
	default:
		return types.BridgeConfig{}, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
