package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/config"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
)

// newLogger builds the process logger. One-shot commands stay at Warn so
// log lines do not drown the command output; --verbose always means Debug.
func newLogger(w io.Writer, opts *RootOptions, level slog.Level, asJSON bool) *slog.Logger {
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// session is an open database plus the shop restored from it.
type session struct {
	store  *store.Store
	shop   *shop.Shop
	logger *slog.Logger
}

func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*session, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts, slog.LevelWarn, false)

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	sh, err := shop.Open(ctx, shop.WithJournal(st), shop.WithLogger(logger))
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load state", err)
	}
	sh.Bus().Subscribe("log", events.LogSubscriber(logger))
	return &session{store: st, shop: sh, logger: logger}, nil
}

// close delivers the events the command committed, then closes the store.
func (s *session) close(ctx context.Context) error {
	s.shop.Bus().Drain(ctx)
	return s.store.Close()
}

// runWithShop opens a session, runs fn and prints its result. Shop errors
// are reported in the selected format and exit with ExitFailure.
func runWithShop(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *session) (any, error)) error {
	ctx := contextOf(cmd)
	out := opts.formatter(cmd)

	s, err := openSession(ctx, cmd, opts)
	if err != nil {
		return err
	}
	data, err := fn(ctx, s)
	if cerr := s.close(ctx); cerr != nil && err == nil {
		return WrapExitError(ExitCommandError, "failed to close database", cerr)
	}
	if err != nil {
		return out.Fail(err)
	}
	return out.Success(data)
}

func (o *RootOptions) principal() access.Principal {
	return access.Principal(o.As)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid product id "+strconv.Quote(s), err)
	}
	return id, nil
}

func parseAmount(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid "+name+" "+strconv.Quote(s), err)
	}
	return n, nil
}

// serveLevel is the level for long-running processes.
func serveLevel(cfg config.Config) slog.Level {
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}
