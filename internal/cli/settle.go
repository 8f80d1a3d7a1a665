package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// PurchaseOptions holds flags for the purchase command.
type PurchaseOptions struct {
	*RootOptions
	Pay uint64
}

// NewPurchaseCommand creates the purchase command.
func NewPurchaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurchaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purchase <id>",
		Short: "Buy one unit of a product",
		Long: `Buy one unit of a product as the --as principal.

Any amount paid above the price is refunded in the same operation. If the
refund cannot be delivered the purchase is rolled back.

Example:
  shelf --as bob purchase 1 --pay 150`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithShop(cmd, opts.RootOptions, func(ctx context.Context, s *session) (any, error) {
				rc, err := s.shop.Purchase(ctx, opts.principal(), id, opts.Pay)
				return receiptView(rc), err
			})
		},
	}

	cmd.Flags().Uint64Var(&opts.Pay, "pay", 0, "amount paid, in smallest units (required)")
	_ = cmd.MarkFlagRequired("pay")

	return cmd
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "withdraw",
		Short:         "Transfer the custodied balance to the admin (admin)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(ctx context.Context, s *session) (any, error) {
				amount, err := s.shop.Withdraw(ctx, opts.principal())
				return field{"withdrawn", amount}, err
			})
		},
	}
}
