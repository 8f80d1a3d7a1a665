package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Admin string
}

type migrateResult struct {
	Version string             `json:"version"`
	Admin   string             `json:"admin,omitempty"`
	Pending []shop.PendingStep `json:"pending"`
}

func (r migrateResult) String() string {
	var b strings.Builder
	b.WriteString("schema at " + r.Version)
	if r.Admin != "" {
		b.WriteString(", admin " + r.Admin)
	}
	if len(r.Pending) > 0 {
		names := make([]string, len(r.Pending))
		for i, p := range r.Pending {
			names[i] = p.String()
		}
		b.WriteString("; pending: " + strings.Join(names, ", "))
	}
	return b.String()
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate <version|latest|status>",
		Short: "Run a one-time schema migration step",
		Long: `Run the one-time migration step for a schema version.

Steps run once and in order: 1 installs the admin principal, 2 starts the
sales ledger and records the custodied balance as the collected baseline.
"latest" runs every pending step. "status" runs nothing and lists the
steps still pending.

The admin is taken from --admin, then SHELF_ADMIN, then --as.

Examples:
  shelf migrate 1 --admin alice
  shelf migrate 2
  shelf migrate latest --admin alice
  shelf migrate status`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "status" {
				return runWithShop(cmd, opts.RootOptions, func(_ context.Context, s *session) (any, error) {
					return migrationStatus(s.shop), nil
				})
			}
			target, all, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			admin := access.Principal(firstNonEmpty(opts.Admin, opts.Config.Admin, opts.As))

			return runWithShop(cmd, opts.RootOptions, func(ctx context.Context, s *session) (any, error) {
				if all {
					err = s.shop.MigrateTo(ctx, target, admin)
				} else {
					err = s.shop.MigrationStep(ctx, target, admin)
				}
				if err != nil {
					return nil, err
				}
				return migrationStatus(s.shop), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Admin, "admin", "", "admin principal installed by step 1")

	return cmd
}

func migrationStatus(sh *shop.Shop) migrateResult {
	res := migrateResult{Version: sh.Version().String(), Pending: sh.PendingMigrations()}
	if res.Pending == nil {
		res.Pending = []shop.PendingStep{}
	}
	if a, err := sh.Admin(); err == nil {
		res.Admin = string(a)
	}
	return res
}

func parseVersion(s string) (migration.Version, bool, error) {
	if s == "latest" {
		return migration.Latest, true, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, WrapExitError(ExitCommandError, fmt.Sprintf("invalid version %q", s), err)
	}
	return migration.Version(n), false, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
