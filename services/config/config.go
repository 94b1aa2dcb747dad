package config

import (
	"context"
	"errors"

	"sigfoxbridge-go/bus"

	"github.com/andreyvit/tinyjson"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	serviceName   = "config"
	configPrefix  = "config"
	CtxProfileKey = ctxKey("profile") // context key carrying the profile name
)

type ctxKey string

// EmbeddedConfigLookup allows overriding how profiles are resolved.
var EmbeddedConfigLookup = func(profile string) ([]byte, bool) {
	b, ok := embeddedConfigs[profile]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the profile config from embedded data and publishes
// each top-level key as a retained message on config/<key>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	profile, _ := ctx.Value(CtxProfileKey).(string)
	if profile == "" {
		return errors.New("missing profile in context")
	}

	raw, ok := EmbeddedConfigLookup(profile)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for profile: " + profile)
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		})
	}

	return nil
}

// Start publishes the profile configuration. Publication is retained, so
// services starting later still observe it.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	return s.publishConfig(ctx, conn)
}
