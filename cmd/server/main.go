// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/innerbeat/internal/api/connect"
	"github.com/osa030/innerbeat/internal/api/playerv1/playerv1connect"
	"github.com/osa030/innerbeat/internal/app/filter"
	"github.com/osa030/innerbeat/internal/app/player"
	"github.com/osa030/innerbeat/internal/app/source"
	"github.com/osa030/innerbeat/internal/infra/config"
	"github.com/osa030/innerbeat/internal/infra/library"
	"github.com/osa030/innerbeat/internal/infra/logger"
	"github.com/osa030/innerbeat/internal/infra/report"
	"github.com/osa030/innerbeat/internal/infra/store"
)

var version = "dev"

var (
	app        = kingpin.New("innerbeat-server", "innerbeat now-playing server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").Envar("INNERBEAT_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listSourcesCmd = app.Command("list-sources", "List configured listing sources and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
	app.Version(version)
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Config file logging applies unless overridden on the command line
	if !*verbose && *logfile == "" {
		closer, err := logger.Init(logger.Config{
			Output: cfg.Log.Output,
			Level:  cfg.Log.Level,
			File:   cfg.Log.File,
		})
		if err != nil {
			zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
		}
		defer closer.Close()
	}

	if command == listSourcesCmd.FullCommand() {
		printSources(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	reporter, err := report.New(report.Config{
		DSN:         cfg.Report.SentryDSN,
		Environment: cfg.Report.Environment,
		Release:     "innerbeat@" + version,
		SampleRate:  cfg.Report.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create error reporter: %w", err)
	}

	var lib *library.Library
	if cfg.Library.Root != "" {
		lib, err = library.New(library.Config{
			Root:       cfg.Library.Root,
			Extensions: cfg.Library.Extensions,
			PageSize:   cfg.Playback.PageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open library: %w", err)
		}
		if cfg.Library.ScanOnStart {
			n, err := lib.Scan(ctx)
			if err != nil {
				return fmt.Errorf("failed to scan library: %w", err)
			}
			zlog.Info().Msgf("Library scanned: root=%s tracks=%d", cfg.Library.Root, n)
		}
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path, store.Options{HistoryLimit: cfg.Store.HistoryLimit})
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
	}

	if _, err := filter.Build(cfg.Playback.Filters); err != nil {
		return fmt.Errorf("invalid listing filters: %w", err)
	}

	sources, err := source.NewMuxFromConfig(ctx, cfg, lib)
	if err != nil {
		return fmt.Errorf("failed to create sources: %w", err)
	}

	playerMgr := player.NewManager(cfg, sources, player.Options{
		Library:  lib,
		Store:    st,
		Reporter: reporter,
	})

	var handlerOpts []connect.HandlerOption
	if cfg.Admin.Token != "" {
		handlerOpts = append(handlerOpts, connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg.Admin.Token)))
	} else {
		zlog.Warn().Msg("admin.token is not set, the API is unauthenticated")
	}

	mux := http.NewServeMux()
	playerPath, playerHandler := playerv1connect.NewPlayerServiceHandler(apiconnect.NewPlayerService(playerMgr), handlerOpts...)
	mux.Handle(playerPath, playerHandler)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := playerMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Give the server a moment to start listening
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the player first to end Watch streams and save the queue
	playerMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// printSources prints the configured sources.
func printSources(cfg *config.Config) {
	fmt.Println("Configured Sources:")
	for _, s := range cfg.Sources {
		def := ""
		if s.Name == cfg.Playback.DefaultSource {
			def = " (default)"
		}
		fmt.Printf("  %-20s - %s%s\n", s.Name, s.Type, def)
	}
	if cfg.Library.Root != "" {
		fmt.Printf("  %-20s - %s [root: %s]\n", config.SourceLibrary, config.SourceLibrary, cfg.Library.Root)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
