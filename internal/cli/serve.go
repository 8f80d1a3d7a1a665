package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
	"github.com/roach88/shelf/internal/transport"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API under /api/v1, plus /metrics and /healthz.

The caller's principal is read from the X-Principal header. Logs are JSON
on stderr. SIGINT or SIGTERM stops accepting requests, waits up to
SHELF_SHUTDOWN_TIMEOUT for in-flight ones and drains the event bus.

Example:
  shelf serve --db ./shelf.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $SHELF_HTTP_ADDR or :8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	addr := firstNonEmpty(opts.Addr, cfg.HTTPAddr)

	logger := newLogger(cmd.ErrOrStderr(), opts.RootOptions, serveLevel(cfg), true)

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	sh, err := shop.Open(ctx, shop.WithJournal(st), shop.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load state", err)
	}

	metrics := transport.NewMetrics(sh)
	bus := sh.Bus()
	bus.Subscribe("log", events.LogSubscriber(logger))
	bus.Subscribe("metrics", metrics.Subscriber())

	api := transport.NewServer(sh,
		transport.WithEventLog(st),
		transport.WithPayoutLog(st),
		transport.WithMetrics(metrics),
		transport.WithLogger(logger),
	)
	srv := transport.NewHTTPServer(addr, api.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", addr, "version", sh.Version().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Run until Close; pending events are still delivered after shutdown.
		return bus.Run(context.Background())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		bus.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
