package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/migration"
)

// ErrCorruptMeta is returned by Open when the stored admin and schema
// version disagree.
var ErrCorruptMeta = errors.New("meta does not match schema version")

// Meta holds the scalar fields of the aggregate.
type Meta struct {
	Version  int    `json:"version"`
	Admin    string `json:"admin"`
	Balance  uint64 `json:"balance"`
	Baseline uint64 `json:"baseline"`
}

// PlacedProduct is a product together with its position in the order
// sequence.
type PlacedProduct struct {
	catalog.Product
	Position int
}

// Payout is a transfer of funds out of custody.
type Payout struct {
	Recipient string
	Amount    uint64
	Reason    string
}

// Payout reasons.
const (
	ReasonRefund   = "refund"
	ReasonWithdraw = "withdraw"
)

// Changeset is everything one committed operation writes.
type Changeset struct {
	OpID string
	Op   string
	At   time.Time

	// Meta is the complete post-operation value.
	Meta Meta

	Upserts  []PlacedProduct
	Deletes  []uint64
	Sales    []ledger.SaleRecord
	Revenues map[uint64]uint64 // post-operation revenue per touched product
	Events   []events.Event
	Payouts  []Payout
}

// Snapshot is the durable state read back at startup.
type Snapshot struct {
	Meta         Meta
	Products     []catalog.Product // in position order
	Sales        []ledger.SaleRecord
	Revenues     map[uint64]uint64
	LastEventSeq int64
}

// Hook runs inside the commit transaction, after all rows are written and
// before the transaction commits. An error aborts the commit.
type Hook func(ctx context.Context) error

// Journal durably records changesets.
type Journal interface {
	Load(ctx context.Context) (*Snapshot, error)
	Commit(ctx context.Context, cs *Changeset, hook Hook) error
}

// Transferer moves funds out of custody to a principal.
type Transferer interface {
	Transfer(ctx context.Context, to access.Principal, amount uint64, reason string) error
}

// TimeSource supplies settlement timestamps.
type TimeSource interface {
	Now() time.Time
}

// IDGenerator supplies operation ids.
type IDGenerator interface {
	Generate() string
}

// State is the aggregate itself. It is owned by a Shop and never shared.
type State struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	gate     *access.Gate
	versions *migration.Controller
	balance  uint64
	baseline uint64
}

func newState() *State {
	return &State{
		catalog:  catalog.New(),
		ledger:   ledger.New(),
		gate:     &access.Gate{},
		versions: migration.NewController(migration.Uninitialized),
	}
}

// restoreState rebuilds the aggregate from a snapshot, re-verifying the
// catalog invariants and the ledger aggregates.
func restoreState(snap *Snapshot) (*State, error) {
	cat, err := catalog.Restore(snap.Products)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	led, err := ledger.Restore(snap.Sales, snap.Revenues)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	v := migration.Version(snap.Meta.Version)
	if v < migration.Uninitialized || v > migration.Latest {
		return nil, fmt.Errorf("unknown schema version %d", snap.Meta.Version)
	}
	if v < migration.V2 && led.Len() > 0 {
		return nil, fmt.Errorf("%d sales recorded at %s: %w", led.Len(), v, ledger.ErrCorrupt)
	}
	// V1 installs the admin; the two are only ever set together.
	if (v == migration.Uninitialized) != (snap.Meta.Admin == "") {
		return nil, fmt.Errorf("admin %q recorded at %s: %w", snap.Meta.Admin, v, ErrCorruptMeta)
	}
	s := &State{
		catalog:  cat,
		ledger:   led,
		gate:     &access.Gate{},
		versions: migration.NewController(v),
	}
	if err := s.setMeta(snap.Meta); err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return s, nil
}

func (s *State) meta() Meta {
	return Meta{
		Version:  int(s.versions.Version()),
		Admin:    string(s.gate.Admin()),
		Balance:  s.balance,
		Baseline: s.baseline,
	}
}

// setMeta installs the admin, balance and baseline. The version moves only
// through the migration controller.
func (s *State) setMeta(m Meta) error {
	if m.Admin != "" && s.gate.Admin() != access.Principal(m.Admin) {
		gate, err := access.NewGate(access.Principal(m.Admin))
		if err != nil {
			return fmt.Errorf("admin %q: %w", m.Admin, err)
		}
		s.gate = gate
	}
	s.balance = m.Balance
	s.baseline = m.Baseline
	return nil
}

// rules is the add/update policy for the current version.
func (s *State) rules() catalog.Rules {
	if s.versions.Version() >= migration.V2 {
		return catalog.StrictRules
	}
	return catalog.UpsertRules
}
