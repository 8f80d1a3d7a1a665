package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/canon"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/shop"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Verify bool
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show sales and balance totals",
		Long: `Show sales and balance totals.

Total revenue is the collected figure: the baseline recorded when the sales
ledger was installed plus the ledger revenue.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				sum, err := s.shop.Summary()
				return summaryView(sum), err
			})
		},
	}
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the committed event log",
		Long: `Print the committed event log in sequence order.

--verify checks that every stored payload is canonical JSON and that its
digest matches, and fails on the first event that does not.

Examples:
  shelf events
  shelf events --after 10 --limit 5
  shelf events --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts.RootOptions, func(ctx context.Context, s *session) (any, error) {
				recs, err := s.store.Events(ctx, opts.After, opts.Limit)
				if err != nil {
					return nil, err
				}
				if opts.Verify {
					if err := verifyDigests(recs); err != nil {
						return nil, err
					}
				}
				return eventList(recs), nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with a greater sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events to print (0 = all)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute and check event digests")

	return cmd
}

// NewPayoutsCommand creates the payouts command.
func NewPayoutsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "payouts",
		Short: "List recorded refunds and withdrawals (admin)",
		Long: `List every refund and withdrawal transfer in the order it was recorded.

Payouts are written in the same transaction as the purchase or withdrawal
that made them, so this list is the outbox an external payment step reads.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(ctx context.Context, s *session) (any, error) {
				if !s.shop.IsAdmin(opts.principal()) {
					return nil, &shop.Error{Kind: shop.KindAccessDenied, Op: "payouts"}
				}
				recs, err := s.store.Payouts(ctx)
				return payoutList(recs), err
			})
		},
	}
}

func verifyDigests(recs []events.Record) error {
	for _, r := range recs {
		canonical, err := canon.FromJSON(r.Payload)
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", r.Seq, r.Type, err)
		}
		if !bytes.Equal(canonical, r.Payload) {
			return fmt.Errorf("event %d (%s): payload is not canonical", r.Seq, r.Type)
		}
		if got := canon.HashWithDomain(canon.DomainEvent, r.Payload); got != r.Digest {
			return fmt.Errorf("event %d (%s): digest mismatch: stored %s, computed %s", r.Seq, r.Type, r.Digest, got)
		}
	}
	return nil
}
