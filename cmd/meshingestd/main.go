package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/potatomesh/meshingest/internal/app"
	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/config"
	"github.com/potatomesh/meshingest/internal/ingest"
	"github.com/potatomesh/meshingest/internal/logging"
	"github.com/potatomesh/meshingest/internal/radio"
	"github.com/potatomesh/meshingest/internal/uplink"
)

const ignoredLogFile = "ignored.txt"

func main() {
	if err := run(); err != nil {
		slog.Error("run meshingestd", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(logging.LevelFor(cfg.Debug)); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	logger := logMgr.Logger("main")
	logger.Info("starting meshingestd",
		"version", app.BuildVersionWithDate(),
		"target", cfg.Target, "instance", cfg.InstanceURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// Restore default handling after the first signal so a second
		// SIGINT can force a hung shutdown.
		<-ctx.Done()
		stop()
	}()

	b := bus.NewPubSubBus()
	defer b.Shutdown()

	session := ingest.NewSession(cfg.ChannelName, cfg.ChannelIndex)
	ignored := ingest.NewIgnoredLog(logMgr.Logger("ignored"), ignoredLogFile)
	if cfg.Debug {
		if err := ignored.Enable(); err != nil {
			logger.Warn("ignored-packet capture unavailable", "error", err)
		} else {
			defer func() {
				_ = ignored.Close()
			}()
		}
	}

	client := uplink.NewClient(logMgr.Logger("uplink"), cfg.InstanceURL, cfg.APIToken)
	if !client.Enabled() {
		logger.Warn("no instance URL configured, uploads disabled")
	}
	queue := uplink.NewQueue(logMgr.Logger("uplink"), client)

	dispatcher := ingest.NewDispatcher(logMgr.Logger("ingest"), session, queue, ignored)
	receiver := ingest.NewReceiver(logMgr.Logger("receiver"), b, session, dispatcher)
	receiver.Start(ctx)

	opener := func(ctx context.Context) (radio.Interface, error) {
		return radio.Open(ctx, radio.OpenOptions{
			Logger: logMgr.Logger("radio"),
			Bus:    b,
			Sink:   session,
			Target: cfg.Target,
		})
	}
	heartbeat := app.NewHeartbeat(logMgr.Logger("heartbeat"), queue, time.Now())
	supervisor := app.NewSupervisor(logMgr.Logger("supervisor"), cfg, b, opener, queue, session, heartbeat)

	if err := supervisor.Run(ctx); err != nil {
		return err
	}
	logger.Info("meshingestd stopped")

	return nil
}
