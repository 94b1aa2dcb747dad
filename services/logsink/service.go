// Package logsink mirrors bus traffic to the structured log. It subscribes
// to the full topic space, so queue pressure is absorbed by the bus's
// drop-oldest policy rather than by slowing publishers down.
package logsink

import (
	"context"
	"fmt"
	"log/slog"

	"sigfoxbridge-go/bus"
)

type Service struct {
	Log *slog.Logger

	// Level applied to mirrored messages. Defaults to Debug so the sink
	// stays quiet unless explicitly enabled.
	Level slog.Level

	done chan struct{}
}

func New(log *slog.Logger) *Service {
	return &Service{Log: log, Level: slog.LevelDebug, done: make(chan struct{})}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	defer close(s.done)

	sub := conn.Subscribe(bus.T("#"))
	defer conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			s.Log.Debug("logsink stopping")
			return
		case msg := <-sub.Channel():
			if msg == nil {
				return
			}
			s.Log.Log(ctx, s.Level, "bus",
				slog.String("topic", msg.Topic.String()),
				slog.Bool("retained", msg.Retained),
				slog.String("payload", renderPayload(msg.Payload)),
			)
		}
	}
}

// renderPayload keeps log lines one-line and bounded.
func renderPayload(p any) string {
	const max = 160
	s := fmt.Sprintf("%+v", p)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

// Start launches the sink. It returns immediately; use Done to observe exit.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

// Done is closed once the sink's loop has exited.
func (s *Service) Done() <-chan struct{} { return s.done }
