// main.go
//
// Entry point for the imagematch binary.
// Responsibilities:
//   - Load .env and dispatch the serve / play subcommands.
//   - serve: config, tracing, preset catalogue, provider, usage store, HTTP server,
//     graceful shutdown on SIGINT/SIGTERM.
//   - play: console logging on stderr and the terminal client.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/imagematch/internal/config"
	"github.com/robalobadob/imagematch/internal/httpserver"
	"github.com/robalobadob/imagematch/internal/play"
	"github.com/robalobadob/imagematch/internal/presets"
	"github.com/robalobadob/imagematch/internal/quota"
	"github.com/robalobadob/imagematch/internal/telemetry"
)

const usage = `imagematch - describe the picture before the clock runs out

Usage:
  %[1]s serve [--port PORT]      run the generation server
  %[1]s play  [--server URL] [--keep-images]
                                 play in this terminal

Environment variables are read from the process and from .env.
See internal/config for the full list.
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(ctx, os.Args[2:])
	case "play":
		err = playCmd(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Printf(usage, os.Args[0])
		return
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("exited")
	}
}

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	portFlag := fs.String("port", "", "Port to listen on (overrides PORT env var)")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	shutdownTracing, err := telemetry.Setup(ctx, "imagematch", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	cat, err := presets.Load(cfg.ReferenceImagesFile)
	if err != nil {
		return err
	}
	provider, name, err := newProvider(cfg)
	if err != nil {
		return err
	}

	db, err := quota.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := quota.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := httpserver.New(httpserver.Options{
		Provider:        provider,
		ProviderName:    name,
		Presets:         cat,
		Quota:           quota.NewStore(db, cfg.DailyQuota),
		GenerateTimeout: cfg.GenerateTimeout,
		ClientOrigin:    cfg.ClientOrigin,
		TrustProxy:      cfg.TrustProxy,
		Auth: httpserver.AuthConfig{
			Secret:      cfg.JWTSecret,
			ExpiresDays: cfg.JWTExpiresDays,
			CookieName:  cfg.CookieName,
			Production:  cfg.Production,
		},
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("provider", name).Int("presets", cat.Len()).Msg("starting imagematch server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

func playCmd(ctx context.Context, args []string) error {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("play", flag.ExitOnError)
	server := fs.String("server", cfg.ServerURL, "Base URL of an imagematch server (SERVER_URL)")
	level := fs.String("log-level", "warn", "Log level for diagnostics on stderr")
	keep := fs.Bool("keep-images", false, "Keep the reference and generated images after quitting")
	_ = fs.Parse(args)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// The server enforces its own deadline; leave room for it to answer.
	return play.Run(ctx, play.Options{
		ServerURL:  *server,
		KeepImages: *keep,
		Timeout:    cfg.GenerateTimeout + 10*time.Second,
	})
}
