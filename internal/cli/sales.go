package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// SalesListOptions holds flags for sales list.
type SalesListOptions struct {
	*RootOptions
	Offset int
	Limit  int
}

// SalesRangeOptions holds flags for sales range.
type SalesRangeOptions struct {
	*RootOptions
	From string
	To   string
}

// NewSalesCommand creates the sales command group. Every subcommand needs
// schema version 2.
func NewSalesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Query the sales ledger",
	}
	cmd.AddCommand(
		newSalesListCommand(opts),
		newSalesRangeCommand(opts),
		newSalesRevenueCommand(opts),
		newSalesCountCommand(opts),
	)
	return cmd
}

func newSalesListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SalesListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales in ledger order",
		Long: `List sales in ledger order.

Without --offset or --limit the whole ledger is printed. With either flag a
page is returned; an offset at or past the end of the ledger is an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paged := cmd.Flags().Changed("offset") || cmd.Flags().Changed("limit")
			return runWithShop(cmd, opts.RootOptions, func(_ context.Context, s *session) (any, error) {
				if paged {
					recs, err := s.shop.SalesPage(opts.Offset, opts.Limit)
					return saleList(recs), err
				}
				recs, err := s.shop.SalesHistory()
				return saleList(recs), err
			})
		},
	}
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "first record to return")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum records to return")
	return cmd
}

func newSalesRangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SalesRangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "range --from <time> --to <time>",
		Short:         "List sales with from <= timestamp <= to (RFC 3339)",
		Example:       "  shelf sales range --from 2024-01-01T00:00:00Z --to 2024-02-01T00:00:00Z",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(time.RFC3339Nano, opts.From)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --from", err)
			}
			to, err := time.Parse(time.RFC3339Nano, opts.To)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --to", err)
			}
			return runWithShop(cmd, opts.RootOptions, func(_ context.Context, s *session) (any, error) {
				recs, err := s.shop.SalesByTimeRange(from, to)
				return saleList(recs), err
			})
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "range start, inclusive (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "range end, inclusive (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSalesRevenueCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "revenue <id>",
		Short:         "Show the ledger revenue of one product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				rev, err := s.shop.RevenueFor(id)
				return field{"revenue", rev}, err
			})
		},
	}
}

func newSalesCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count",
		Short:         "Count recorded sales",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				n, err := s.shop.TotalSales()
				return field{"count", n}, err
			})
		},
	}
}
