package cmd

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nagara-network/metaquery/pkg/api"
	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP query server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, configPath, listen string) error {
	logger := log.ForService("server")

	cfg, err := loadValidConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}

	service, closeService, err := buildService(cfg)
	if err != nil {
		return fmt.Errorf("creating query service: %w", err)
	}
	defer func() {
		if err := closeService(); err != nil {
			logger.Warnf("failed to close search backend: %v", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewServer(service).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdlog.New(logger.Writer(), "", 0),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s (store: %s, chain enrichment: %t)", cfg.Listen, cfg.Store.Backend, cfg.Chain.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
