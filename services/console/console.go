// Package console implements a line-oriented operator shell. Each input
// line becomes a message on bridge/control/<verb>; replies come back on a
// per-console topic and are printed to the output writer.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sigfoxbridge-go/bus"

	"github.com/google/shlex"
)

var controlPrefix = bus.T("bridge", "control")

type Service struct {
	In  io.Reader
	Out io.Writer
	Log *slog.Logger

	done chan struct{}
}

func New(in io.Reader, out io.Writer, log *slog.Logger) *Service {
	return &Service{In: in, Out: out, Log: log, done: make(chan struct{})}
}

// Done is closed when the input stream ends or the context is cancelled.
func (s *Service) Done() <-chan struct{} { return s.done }

// Start launches the console loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	defer close(s.done)

	replyTopic := bus.T("console", conn.ID(), "reply")
	replies := conn.Subscribe(replyTopic)
	defer conn.Unsubscribe(replies)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(s.Out, "commands: send [hex], state, stop, quit")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-replies.Channel():
			if msg != nil {
				fmt.Fprintf(s.Out, "%+v\n", msg.Payload)
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := s.handleLine(conn, replyTopic, line); quit {
				return
			}
		}
	}
}

// handleLine parses one input line and publishes the control message.
// It reports whether the console should terminate.
func (s *Service) handleLine(conn *bus.Connection, replyTopic bus.Topic, line string) bool {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(s.Out, "parse error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	verb := strings.ToLower(args[0])
	switch verb {
	case "quit", "exit":
		return true
	case "send":
		var payload any
		if len(args) > 1 {
			payload = args[1]
		}
		s.publish(conn, replyTopic, "send", payload)
	case "state":
		s.publish(conn, replyTopic, "state", nil)
	case "stop":
		s.publish(conn, replyTopic, "stop", nil)
	default:
		fmt.Fprintf(s.Out, "unknown command: %s\n", verb)
	}
	return false
}

func (s *Service) publish(conn *bus.Connection, replyTopic bus.Topic, verb string, payload any) {
	conn.Publish(&bus.Message{
		Topic:   append(append(bus.Topic{}, controlPrefix...), verb),
		Payload: payload,
		ReplyTo: replyTopic,
	})
	s.Log.Debug("console command", slog.String("verb", verb))
}
