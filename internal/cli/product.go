package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/catalog"
)

// ProductOptions holds flags for product add and update.
type ProductOptions struct {
	*RootOptions
	Stock uint64
}

// NewProductCommand creates the product command group.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(
		newProductWriteCommand(rootOpts, "add"),
		newProductWriteCommand(rootOpts, "update"),
		newProductRemoveCommand(rootOpts),
		newProductGetCommand(rootOpts),
		newProductListCommand(rootOpts),
		newProductCountCommand(rootOpts),
	)
	return cmd
}

func newProductWriteCommand(rootOpts *RootOptions, verb string) *cobra.Command {
	opts := &ProductOptions{RootOptions: rootOpts}

	short := "Add a product (admin)"
	if verb == "update" {
		short = "Update name, price and stock of a product (admin)"
	}
	cmd := &cobra.Command{
		Use:           verb + " <id> <name> <price>",
		Short:         short,
		Example:       "  shelf --as alice product " + verb + " 1 Cola 100 --stock 10",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			price, err := parseAmount("price", args[2])
			if err != nil {
				return err
			}
			p := catalog.Product{ID: id, Name: args[1], Price: price, Stock: opts.Stock}

			return runWithShop(cmd, opts.RootOptions, func(ctx context.Context, s *session) (any, error) {
				var out catalog.Product
				var err error
				if verb == "add" {
					out, err = s.shop.Add(ctx, opts.principal(), p)
				} else {
					out, err = s.shop.Update(ctx, opts.principal(), p)
				}
				return productView(out), err
			})
		},
	}
	cmd.Flags().Uint64Var(&opts.Stock, "stock", 0, "units in stock")
	return cmd
}

func newProductRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <id>",
		Short:         "Remove a product (admin); the last product takes its position",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithShop(cmd, opts, func(ctx context.Context, s *session) (any, error) {
				eff, err := s.shop.Remove(ctx, opts.principal(), id)
				return removeView{ID: eff.ID, Position: eff.Position, Moved: eff.Moved}, err
			})
		},
	}
}

func newProductGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Show one product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				p, err := s.shop.Get(id)
				return productView(p), err
			})
		},
	}
}

func newProductListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List products in catalog order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				ps, err := s.shop.List()
				return productList(ps), err
			})
		},
	}
}

func newProductCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count",
		Short:         "Count products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				n, err := s.shop.Count()
				return field{"count", n}, err
			})
		},
	}
}
