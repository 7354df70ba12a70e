package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"time"

	"github.com/bcdxn/f1sim/internal/logger"
	"github.com/bcdxn/f1sim/internal/simclient"
	"github.com/bcdxn/f1sim/internal/tui"
	"golang.org/x/sync/errgroup"
)

func main() {
	server := flag.String("server", "ws://localhost:8080", "websocket URL of the simulator server")
	session := flag.String("session", "default", "simulation session to follow")
	interval := flag.Duration("interval", 2*time.Second, "time between simulated laps")
	reset := flag.Bool("reset", false, "start a fresh race")
	flag.Parse()

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	// the TUI owns the terminal so logs go to a file
	l, f, err := logger.New("app.log", slog.LevelDebug)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	opts := []simclient.ClientOption{
		simclient.WithLogger(l),
		simclient.WithBaseURL(*server),
		simclient.WithSession(*session),
		simclient.WithInterval(*interval),
	}
	if *reset {
		opts = append(opts, simclient.WithReset())
	}
	// create client responsible for listening to snapshots from the simulator
	client := simclient.New(opts...)
	// create TUI
	leaderboard := tui.NewLeaderboard(tui.WithContext(ctx), tui.WithLogger(l))

	// wait for both the client and the TUI to exit before returning
	g := errgroup.Group{}
	g.Go(func() error {
		// the leaderboard stays up with the final standings after the stream ends
		client.Listen(ctx)
		l.Debug("client exited")
		return nil
	})
	g.Go(func() error {
		defer cancelCtx() // quitting the TUI stops the client
		_, err := leaderboard.Run()
		l.Debug("tui exited")
		return err
	})

	// pass messages between client and TUI
	done := client.Done()
	for {
		select {
		case <-ctx.Done():
			l.Debug("context done")
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				l.Error("tui exited with error", "err", err)
			}
			return
		case err, ok := <-done:
			if !ok {
				done = nil
				continue
			}
			if err != nil {
				l.Error("client exited with error", "err", err)
				leaderboard.Send(tui.ErrMsg{Err: err})
			}
		case race := <-client.Race():
			leaderboard.Send(tui.RaceMsg(race))
		case incidents := <-client.Incidents():
			leaderboard.Send(tui.IncidentsMsg(incidents))
		}
	}
}
