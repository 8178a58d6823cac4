package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/portwatch/internal/config"
	"github.com/hamed0406/portwatch/internal/domain"
	"github.com/hamed0406/portwatch/internal/httpapi"
	"github.com/hamed0406/portwatch/internal/logging"
	"github.com/hamed0406/portwatch/internal/probe"
	"github.com/hamed0406/portwatch/internal/repo/memory"
	"github.com/hamed0406/portwatch/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start polling and serve the status endpoint",
	Long: `Start polling every target in the config file and serve the status table.

Settings come from the environment (HOST, PORT, TLS, TLS_DIR, CONFIG_FILE,
LOG_DIR, LOG_LEVEL, POLL_INTERVAL, PROBE_TIMEOUT, MAX_CONCURRENT_PROBES,
PUBLIC_RPM, PUBLIC_BURST, TRUST_PROXY, ALLOWED_ORIGINS). --config overrides
CONFIG_FILE.

The server runs until interrupted (Ctrl+C) or it receives SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "path to the target file (overrides CONFIG_FILE)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigFile = path
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	return serve(ctx, cfg, logger, ln)
}

// targetsLoaded, when set, runs right after the initial target file read.
var targetsLoaded func()

// serve owns ln. It returns nil after a clean shutdown triggered by ctx, or
// the error that stopped the HTTP server.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, ln net.Listener) error {
	poller := scheduler.NewPoller(
		logger,
		memory.NewRegistry(),
		memory.NewStatusTable(),
		probe.NewTCPChecker(cfg.ProbeTimeout),
		cfg.PollInterval,
		cfg.MaxConcurrentProbes,
	)

	// watch before the first read so an edit in between is not lost
	watcher, err := config.NewWatcher(cfg.ConfigFile, logger, func(r []domain.RawTarget) {
		poller.Reload(r)
	})
	if err != nil {
		ln.Close()
		return err
	}
	raws, err := config.LoadTargets(cfg.ConfigFile)
	if err != nil {
		ln.Close()
		_ = watcher.Close()
		return err
	}
	if targetsLoaded != nil {
		targetsLoaded()
	}
	poller.Reload(raws)

	srv := &http.Server{
		Handler: httpapi.NewServer(logger, poller).Router(httpapi.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			PublicRPM:      cfg.PublicRPM,
			PublicBurst:    cfg.PublicBurst,
			TrustProxy:     cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.TLS {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile(), cfg.KeyFile())
		if err != nil {
			ln.Close()
			_ = watcher.Close()
			return fmt.Errorf("load tls material from %s: %w", cfg.TLSDir, err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		if err := watcher.Run(runCtx); err != nil {
			logger.Warn("config_watch_stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLS {
			errCh <- srv.ServeTLS(ln, "", "")
		} else {
			errCh <- srv.Serve(ln)
		}
	}()
	logger.Info("api_listen",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("tls", cfg.TLS),
		zap.String("config", cfg.ConfigFile),
	)

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	err = srv.Shutdown(shutdownCtx)
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown_complete")
	return nil
}
