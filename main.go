package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sigfoxbridge-go/bus"
	"sigfoxbridge-go/services/bridge"
	"sigfoxbridge-go/services/config"
	"sigfoxbridge-go/services/console"
	"sigfoxbridge-go/services/logsink"
	"sigfoxbridge-go/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		profile     = flag.String("profile", "host-dev", "embedded config profile")
		withConsole = flag.Bool("console", false, "enable the stdin operator console")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log := newLogger(*logLevel)
	log.Info("starting", slog.String("profile", *profile))

	b := bus.NewBus(32, "+", "#")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := term.NewFlag()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigs
		stop.Request()
	}()

	ctx = context.WithValue(ctx, config.CtxProfileKey, *profile)
	if err := config.NewConfigService().Start(ctx, b.NewConnection("config")); err != nil {
		log.Error("config service failed", slog.Any("err", err))
		return 1
	}

	sink := logsink.New(log)
	if err := sink.Start(ctx, b.NewConnection("logsink")); err != nil {
		log.Error("log sink failed", slog.Any("err", err))
		return 1
	}

	if *withConsole {
		cons := console.New(os.Stdin, os.Stdout, log)
		if err := cons.Start(ctx, b.NewConnection("console")); err != nil {
			log.Error("console failed", slog.Any("err", err))
			return 1
		}
		go func() {
			<-cons.Done()
			stop.Request()
		}()
	}

	err := bridge.Run(ctx, b.NewConnection("bridge"), stop, bridge.HostOpener{}, log)
	cancel()
	if err != nil {
		log.Error("bridge exited with error", slog.Any("err", err))
		return 1
	}
	log.Info("bridge exited cleanly")
	return 0
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
