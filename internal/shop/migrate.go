package shop

import (
	"context"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
)

// migrationPlan is the state a migration step plans against.
type migrationPlan struct {
	t     *txn
	state *State
	admin access.Principal
}

func newSteps() *migration.Registry[*migrationPlan] {
	r := migration.NewRegistry[*migrationPlan]()
	r.Register(migration.V1, "install_admin", installAdmin)
	r.Register(migration.V2, "sales_ledger", installSalesLedger)
	return r
}

// installAdmin stores the admin principal.
func installAdmin(p *migrationPlan) error {
	if p.admin == "" {
		return access.ErrInvalidPrincipal
	}
	p.t.meta.Admin = string(p.admin)
	p.t.emit(&events.SchemaMigrated{Version: int(migration.V1), Admin: string(p.admin)})
	return nil
}

// installSalesLedger switches to strict catalog rules and starts the sales
// ledger. The funds already in custody become the collected baseline even
// though no sale record exists for them.
func installSalesLedger(p *migrationPlan) error {
	p.t.meta.Baseline = p.state.balance
	p.t.emit(&events.SchemaMigrated{Version: int(migration.V2), Baseline: p.state.balance})
	return nil
}

// MigrationStep runs the one-time step for version. Each step runs once,
// in order. admin is only read by the V1 step.
func (s *Shop) MigrationStep(ctx context.Context, version migration.Version, admin access.Principal) error {
	return s.mutate(ctx, "migrate", func(t *txn) error {
		plan := &migrationPlan{t: t, state: s.state, admin: admin}
		if err := s.steps.Plan(s.state.versions, version, plan); err != nil {
			return err
		}
		t.meta.Version = int(version)
		t.then(func(st *State) {
			must(st.versions.Advance(version))
		})
		return nil
	})
}

// Version returns the current schema version.
func (s *Shop) Version() migration.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.versions.Version()
}

// MigrateTo runs every pending step up to target.
func (s *Shop) MigrateTo(ctx context.Context, target migration.Version, admin access.Principal) error {
	for v := s.Version() + 1; v <= target; v++ {
		if err := s.MigrationStep(ctx, v, admin); err != nil {
			return err
		}
	}
	return nil
}

// PendingStep is a registered migration step that has not run yet.
type PendingStep struct {
	Version migration.Version `json:"version"`
	Name    string            `json:"name"`
}

func (p PendingStep) String() string {
	return p.Version.String() + " " + p.Name
}

// PendingMigrations lists the steps above the current version, in the
// order they must run.
func (s *Shop) PendingMigrations() []PendingStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.state.versions.Version()
	var out []PendingStep
	for _, v := range s.steps.Versions() {
		if v > cur {
			out = append(out, PendingStep{Version: v, Name: s.steps.Name(v)})
		}
	}
	return out
}
