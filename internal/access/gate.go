// Package access implements the single-principal admin gate.
package access

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidPrincipal = errors.New("principal must not be empty")
)

// Principal identifies an external caller.
type Principal string

// Gate holds the single admin principal. The zero Gate has no admin and
// denies everyone.
type Gate struct {
	admin Principal
}

// NewGate creates a gate for admin.
func NewGate(admin Principal) (*Gate, error) {
	if admin == "" {
		return nil, ErrInvalidPrincipal
	}
	return &Gate{admin: admin}, nil
}

// Admin returns the current admin principal.
func (g *Gate) Admin() Principal {
	return g.admin
}

// IsAdmin reports whether caller is the admin. It never fails.
func (g *Gate) IsAdmin(caller Principal) bool {
	return g.admin != "" && caller == g.admin
}

// RequireAdmin fails with ErrAccessDenied unless caller is the admin.
func (g *Gate) RequireAdmin(caller Principal) error {
	if !g.IsAdmin(caller) {
		return fmt.Errorf("caller %q is not admin: %w", caller, ErrAccessDenied)
	}
	return nil
}

// CheckTransfer validates handing the admin role from caller to next.
func (g *Gate) CheckTransfer(caller, next Principal) error {
	if err := g.RequireAdmin(caller); err != nil {
		return err
	}
	if next == "" {
		return ErrInvalidPrincipal
	}
	return nil
}

// Transfer hands the admin role from caller to next.
func (g *Gate) Transfer(caller, next Principal) error {
	if err := g.CheckTransfer(caller, next); err != nil {
		return err
	}
	g.admin = next
	return nil
}
