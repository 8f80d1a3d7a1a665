package shop

import (
	"context"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
)

// IsAdmin reports whether p is the admin. It never fails.
func (s *Shop) IsAdmin(p access.Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.gate.IsAdmin(p)
}

// Admin returns the admin principal.
func (s *Shop) Admin() (access.Principal, error) {
	var p access.Principal
	err := s.read("admin", func(st *State) error {
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		p = st.gate.Admin()
		return nil
	})
	return p, err
}

// TransferAdmin hands the admin role from caller to next.
func (s *Shop) TransferAdmin(ctx context.Context, caller, next access.Principal) error {
	return s.mutate(ctx, "transfer_admin", func(t *txn) error {
		st := s.state
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		if err := st.gate.CheckTransfer(caller, next); err != nil {
			return err
		}
		t.meta.Admin = string(next)
		t.emit(&events.AdminTransferred{From: string(caller), To: string(next)})
		return nil
	})
}
