package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/manifest"
)

type seedResult struct {
	manifest.Result
	Files int `json:"files"`
}

func (r seedResult) String() string {
	return fmt.Sprintf("seeded from %d file(s): %d added, %d updated", r.Files, r.Added, r.Updated)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <manifest.cue|dir>",
		Short: "Add or update products from a CUE manifest (admin)",
		Long: `Add or update products from a CUE manifest.

A manifest declares products keyed by label:

  product: cola: {id: 1, name: "Cola", price: 100, stock: 10}

Products that already exist are updated, others are added. The first
rejected product stops the seed; earlier products stay applied.

Example:
  shelf --as alice seed ./catalog.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				out := opts.formatter(cmd)
				_ = out.Error("InvalidManifest", err.Error(), nil)
				return &ExitError{Code: ExitCommandError, Message: "invalid manifest", Err: err, Reported: true}
			}
			return runWithShop(cmd, opts, func(ctx context.Context, s *session) (any, error) {
				res, err := manifest.Apply(ctx, s.shop, opts.principal(), m)
				return seedResult{Result: res, Files: m.Files}, err
			})
		},
	}
}
