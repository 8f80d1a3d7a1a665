package shop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
)

// UUIDv7Generator generates time-sortable operation ids.
type UUIDv7Generator struct{}

// Generate panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now().UTC() }

// CustodyTransferer accepts every transfer. Payouts are still recorded by
// the Journal, which then acts as the outbox for an external payment step.
type CustodyTransferer struct{}

func (CustodyTransferer) Transfer(context.Context, access.Principal, uint64, string) error {
	return nil
}

// Shop serializes all access to one State.
type Shop struct {
	mu    sync.RWMutex
	state *State

	journal  Journal
	transfer Transferer
	bus      *events.Bus
	seq      *events.Clock
	now      TimeSource
	ids      IDGenerator
	logger   *slog.Logger

	steps *migration.Registry[*migrationPlan]
}

// Option configures a Shop.
type Option func(*Shop)

// WithJournal makes the shop durable. Without a journal state lives only
// in memory.
func WithJournal(j Journal) Option { return func(s *Shop) { s.journal = j } }

func WithTransferer(t Transferer) Option { return func(s *Shop) { s.transfer = t } }

// WithBus publishes committed events to b.
func WithBus(b *events.Bus) Option { return func(s *Shop) { s.bus = b } }

func WithTimeSource(t TimeSource) Option { return func(s *Shop) { s.now = t } }

func WithIDGenerator(g IDGenerator) Option { return func(s *Shop) { s.ids = g } }

func WithLogger(l *slog.Logger) Option { return func(s *Shop) { s.logger = l } }

// Open builds a Shop, restoring state from the journal when one is set.
func Open(ctx context.Context, opts ...Option) (*Shop, error) {
	s := &Shop{
		transfer: CustodyTransferer{},
		now:      systemTime{},
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		steps:    newSteps(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}

	if s.journal == nil {
		s.state = newState()
		s.seq = events.NewClockAt(0)
		return s, nil
	}

	snap, err := s.journal.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	st, err := restoreState(snap)
	if err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	s.state = st
	s.seq = events.NewClockAt(snap.LastEventSeq)
	s.logger.Debug("shop state restored",
		"version", st.versions.Version(),
		"products", st.catalog.Count(),
		"sales", st.ledger.Len(),
		"last_event_seq", snap.LastEventSeq)
	return s, nil
}

// Bus returns the bus committed events are published to.
func (s *Shop) Bus() *events.Bus {
	return s.bus
}

// txn accumulates the plan of one mutating operation.
type txn struct {
	op   string
	opID string
	at   time.Time
	meta Meta

	cs     Changeset
	hook   Hook
	events []events.Event
	apply  []func(*State)
}

func (t *txn) emit(ev events.Event) {
	t.events = append(t.events, ev)
}

func (t *txn) then(fn func(*State)) {
	t.apply = append(t.apply, fn)
}

// mutate runs one serialized operation: plan, commit, apply, publish.
func (s *Shop) mutate(ctx context.Context, op string, plan func(*txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{
		op:   op,
		opID: s.ids.Generate(),
		at:   s.now.Now().UTC(),
		meta: s.state.meta(),
	}
	if err := plan(t); err != nil {
		err = wrap(op, err)
		s.logger.Debug("operation rejected", "op", op, "op_id", t.opID, "kind", KindOf(err), "error", err)
		return err
	}

	for i, ev := range t.events {
		h := ev.Header()
		h.Seq = s.seq.Peek(i + 1)
		h.OpID = t.opID
		h.At = t.at
	}
	t.cs.OpID = t.opID
	t.cs.Op = op
	t.cs.At = t.at
	t.cs.Meta = t.meta
	t.cs.Events = t.events

	if err := s.commit(ctx, &t.cs, t.hook); err != nil {
		err = wrap(op, err)
		s.logger.Warn("operation rolled back", "op", op, "op_id", t.opID, "kind", KindOf(err), "error", err)
		return err
	}

	for _, fn := range t.apply {
		fn(s.state)
	}
	must(s.state.setMeta(t.meta))
	if n := len(t.events); n > 0 {
		s.seq.AdvanceTo(t.events[n-1].Header().Seq)
		s.bus.Publish(t.events...)
	}
	s.logger.Info("operation committed", "op", op, "op_id", t.opID, "events", len(t.events), "seq", s.seq.Current())
	return nil
}

func (s *Shop) commit(ctx context.Context, cs *Changeset, hook Hook) error {
	if s.journal != nil {
		return s.journal.Commit(ctx, cs, hook)
	}
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

// payout returns a hook that transfers amount to recipient. Failures are
// reported as TransferFailed.
func (s *Shop) payout(op string, to access.Principal, amount uint64, reason string) Hook {
	return func(ctx context.Context) error {
		if err := s.transfer.Transfer(ctx, to, amount, reason); err != nil {
			return &Error{Kind: KindTransferFailed, Op: op, Err: fmt.Errorf("%s of %d to %q: %w", reason, amount, to, err)}
		}
		return nil
	}
}

// must panics when an effect validated during planning fails to apply.
// That can only happen if the in-memory state was changed outside the lock.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("shop: apply after commit: %v", err))
	}
}

// read runs fn under the read lock.
func (s *Shop) read(op string, fn func(*State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wrap(op, fn(s.state))
}
