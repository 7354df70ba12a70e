package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcdxn/f1sim/internal/config"
	"github.com/bcdxn/f1sim/internal/logger"
	"github.com/bcdxn/f1sim/internal/metrics"
	"github.com/bcdxn/f1sim/internal/racesim"
	"github.com/bcdxn/f1sim/internal/session"
	"github.com/bcdxn/f1sim/internal/simserver"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.Level()
	l, f, err := logger.New(cfg.LogFile, level)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var sessions uint64
	store := session.New(
		session.WithLogger(l),
		session.WithMetrics(m),
		session.WithMaxLaps(cfg.MaxLapsPerCall),
		session.WithTTL(time.Duration(cfg.SessionTTL)),
		session.WithEngineFactory(func() *racesim.Engine {
			opts := []racesim.EngineOption{racesim.WithLogger(l)}
			if cfg.Seed != 0 {
				// every session gets its own reproducible sequence
				sessions++
				opts = append(opts, racesim.WithSeed(cfg.Seed+sessions))
			}
			return racesim.New(opts...)
		}),
	)

	serverOpts := []simserver.ServerOption{
		simserver.WithLogger(l),
		simserver.WithStreamInterval(time.Duration(cfg.StreamInterval), time.Duration(cfg.MinStreamPeriod)),
	}
	if cfg.MetricsEnabled() {
		serverOpts = append(serverOpts, simserver.WithMetrics(m))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           simserver.New(store, serverOpts...).Handler(),
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("simulator listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return store.RunJanitor(gctx, time.Duration(cfg.JanitorInterval))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout))
		defer cancel()
		l.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Error("simulator exited with error", "err", err)
		os.Exit(1)
	}
}
