package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/tssctl/internal/admin"
	"github.com/danmuck/tssctl/internal/config"
	"github.com/danmuck/tssctl/internal/ingress"
	"github.com/danmuck/tssctl/internal/observability"
	"github.com/danmuck/tssctl/internal/protocol/command"
	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/danmuck/tssctl/internal/simulator"
	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/danmuck/tssctl/internal/transport"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to tssctl config (.toml or .yaml); empty uses defaults")
	source := flag.String("source", "", "override source: tss|simulator")
	flag.Parse()

	rt, err := loadRunConfig(*configPath, *source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tssctl: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("tssctl", rt.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, rt); err != nil {
		log.Error().Err(err).Msg("tssctl exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, rt config.Runtime) error {
	store := telemetry.NewStore()
	opts := admin.Options{
		Addr:        rt.AdminAddr,
		Token:       rt.AdminToken,
		CorsOrigins: rt.CorsOrigins,
		Store:       store,
	}

	var client *session.Client
	switch rt.Source {
	case config.SourceSimulator:
		sim := simulator.New(store)
		opts.Simulator = sim
		opts.Tracker = ingress.NewTracker(nil, sim)
	case config.SourceTSS:
		dialer, err := transport.NewDialer(rt.Transport, transport.OptionsFromSession(rt.Session))
		if err != nil {
			return err
		}
		client, err = session.NewClient(session.Options{
			Config:     rt.Session,
			Dialer:     dialer,
			Dispatcher: command.NewDispatcher(store),
		})
		if err != nil {
			return err
		}
		opts.Client = client
		opts.Tracker = ingress.NewTracker(nil, nil)
	default:
		return fmt.Errorf("%w: source %q", config.ErrInvalidConfig, rt.Source)
	}

	log.Info().
		Str("source", string(rt.Source)).
		Str("transport", string(rt.Transport)).
		Str("url", rt.Session.URL).
		Dur("tick", rt.TickInterval).
		Msg("tssctl starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)

	if client != nil {
		go func() {
			err := client.Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			errCh <- err
		}()
	}

	srv := admin.New(opts)
	go func() { errCh <- srv.Serve(ctx) }()

	ticker := time.NewTicker(rt.TickInterval)
	defer ticker.Stop()
	lastText := ""
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("tssctl stopping")
			return nil
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ticker.C:
			if client != nil {
				client.Tick()
			}
			res := opts.Tracker.Evaluate(store.Snapshot())
			if res.Text != lastText {
				lastText = res.Text
				log.Info().Str("cursor", res.Cursor.String()).Str("text", res.Text).Msg("ingress instruction")
			}
		}
	}
}
