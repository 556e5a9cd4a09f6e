package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shivang17saini/AuraMeet/relay"
	pageServer "github.com/shivang17saini/AuraMeet/server/http"
	websocketServer "github.com/shivang17saini/AuraMeet/server/websocket"
	store "github.com/shivang17saini/AuraMeet/storage/memory"
	"github.com/spf13/pflag"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	fs := pflag.NewFlagSet("main", pflag.ContinueOnError)

	var (
		pageListenAddr = fs.StringP("listen-addr", "a", ":8080", "page server listen address")
		wsListenAddr   = fs.StringP("ws-listen-addr", "w", ":8888", "websocket signaling listen address")
		webRoot        = fs.StringP("web-root", "r", "./web", "directory with the conferencing page assets")
		logLevel       = fs.StringP("log-level", "l", "debug", "log level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse loglevel")
	}
	logger = logger.Level(lvl)

	rl := relay.NewRelay(relay.Config{
		Logger: &logger,
		Store:  store.NewMemStore(),
	})
	pageSrv := pageServer.NewServer(pageServer.Config{
		Logger:     &logger,
		ListenAddr: *pageListenAddr,
		WebRoot:    *webRoot,
	})
	wsSrv := websocketServer.NewServer(websocketServer.Config{
		Logger:     &logger,
		Relay:      rl,
		ListenAddr: *wsListenAddr,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(2)
	go pageSrv.Run(ctx, wg, errc)
	go wsSrv.Run(ctx, wg, errc)

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
