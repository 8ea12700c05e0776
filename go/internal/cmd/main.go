package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/parlor/go/internal/config"
	"github.com/mcdev12/parlor/go/internal/coordinator"
	"github.com/mcdev12/parlor/go/internal/events"
	"github.com/mcdev12/parlor/go/internal/gateway"
	"github.com/mcdev12/parlor/go/internal/parlor"
	"github.com/mcdev12/parlor/go/internal/relay"
	"github.com/mcdev12/parlor/go/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transport shell.
	cm := gateway.NewConnectionManager(connectionConfig(cfg))

	// Outbound notifications go straight to the websocket pools, with an
	// optional NATS tee for external subscribers.
	var notifier events.Notifier = cm
	if cfg.NATS.URL != "" {
		relayCfg := relay.DefaultConfig()
		relayCfg.URL = cfg.NATS.URL
		relayCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		r, err := relay.New(cm, relayCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS relay")
		}
		defer r.Close()
		notifier = r
	}

	directory := parlor.NewDirectory()
	sched := scheduler.New(directory, notifier, clockwork.NewRealClock())
	coord := coordinator.New(directory, sched, notifier)
	cm.SetHandler(gateway.NewDispatcher(coord, cm))

	wsHandler := gateway.NewWebSocketHandler(cm)
	server := setupServer(cfg, wsHandler)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cm.Start(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("parlor server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
