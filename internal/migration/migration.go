// Package migration tracks the schema version of the shop aggregate and
// guards the one-time initialization step registered for each version.
//
// Steps are planned and applied separately: Plan validates the transition
// and runs the registered step against caller-owned state, Advance records
// the new version once the caller has durably committed the step's effects.
package migration

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrVersionMismatch    = errors.New("version mismatch")
)

// Version is a schema version. Zero means nothing has been initialized.
type Version int

const (
	Uninitialized Version = 0
	V1            Version = 1
	V2            Version = 2
	Latest                = V2
)

func (v Version) String() string {
	if v == Uninitialized {
		return "uninitialized"
	}
	return fmt.Sprintf("v%d", int(v))
}

// Controller is the state machine over the stored schema version.
type Controller struct {
	version Version
}

// NewController resumes a controller at a previously persisted version.
func NewController(current Version) *Controller {
	return &Controller{version: current}
}

// Version returns the last completed step.
func (c *Controller) Version() Version {
	return c.version
}

// Check validates that the step for target may run now.
func (c *Controller) Check(target Version) error {
	switch {
	case target <= Uninitialized || target > Latest:
		return errors.Wrapf(ErrVersionMismatch, "unknown schema version %d", int(target))
	case target <= c.version:
		return errors.Wrapf(ErrAlreadyInitialized, "step %s already ran", target)
	case target != c.version+1:
		return errors.Wrapf(ErrVersionMismatch, "step %s requires %s, at %s", target, target-1, c.version)
	}
	return nil
}

// Require fails with ErrVersionMismatch unless the schema is at least min.
func (c *Controller) Require(min Version) error {
	if c.version < min {
		return errors.Wrapf(ErrVersionMismatch, "requires %s, at %s", min, c.version)
	}
	return nil
}

// Advance records that the step for target completed.
func (c *Controller) Advance(target Version) error {
	if err := c.Check(target); err != nil {
		return err
	}
	c.version = target
	return nil
}

// Step is the one-time initialization for a version. S is the caller's
// planning state.
type Step[S any] func(S) error

type registered[S any] struct {
	name string
	step Step[S]
}

// Registry maps each version to its step.
type Registry[S any] struct {
	steps map[Version]registered[S]
}

// NewRegistry creates an empty registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{steps: make(map[Version]registered[S])}
}

// Register installs the step for v. Registering a version twice panics.
func (r *Registry[S]) Register(v Version, name string, step Step[S]) {
	if _, dup := r.steps[v]; dup {
		panic(fmt.Sprintf("migration: step %s registered twice", v))
	}
	r.steps[v] = registered[S]{name: name, step: step}
}

// Name returns the registered name for v.
func (r *Registry[S]) Name(v Version) string {
	return r.steps[v].name
}

// Versions returns the registered versions in ascending order.
func (r *Registry[S]) Versions() []Version {
	out := make([]Version, 0, len(r.steps))
	for v := range r.steps {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Plan checks the transition to target and runs its step against s.
// The controller is not advanced.
func (r *Registry[S]) Plan(c *Controller, target Version, s S) error {
	if err := c.Check(target); err != nil {
		return err
	}
	reg, ok := r.steps[target]
	if !ok {
		return errors.Wrapf(ErrVersionMismatch, "no step registered for %s", target)
	}
	if err := reg.step(s); err != nil {
		return errors.Wrapf(err, "migration %s (%s)", target, reg.name)
	}
	return nil
}
