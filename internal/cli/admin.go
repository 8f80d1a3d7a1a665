package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/access"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect or hand over the admin role",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Show the admin principal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				a, err := s.shop.Admin()
				return field{"admin", string(a)}, err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "is <principal>",
		Short:         "Report whether a principal is the admin",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(_ context.Context, s *session) (any, error) {
				return field{"is_admin", s.shop.IsAdmin(access.Principal(args[0]))}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "transfer <principal>",
		Short:         "Hand the admin role to another principal (admin)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithShop(cmd, opts, func(ctx context.Context, s *session) (any, error) {
				err := s.shop.TransferAdmin(ctx, opts.principal(), access.Principal(args[0]))
				return field{"admin", args[0]}, err
			})
		},
	})

	return cmd
}
