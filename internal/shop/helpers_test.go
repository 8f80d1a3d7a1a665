package shop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/testutil"
)

const admin access.Principal = "admin"

var errDiskFull = errors.New("disk full")

// fakeJournal records committed changesets in memory.
type fakeJournal struct {
	snap     *Snapshot
	commits  []*Changeset
	failNext error
}

func (j *fakeJournal) Load(context.Context) (*Snapshot, error) {
	if j.snap == nil {
		return &Snapshot{}, nil
	}
	return j.snap, nil
}

func (j *fakeJournal) Commit(ctx context.Context, cs *Changeset, hook Hook) error {
	if err := j.failNext; err != nil {
		j.failNext = nil
		return err
	}
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	j.commits = append(j.commits, cs)
	return nil
}

type fixture struct {
	shop     *Shop
	journal  *fakeJournal
	transfer *testutil.RecordingTransferer
	clock    *testutil.StepClock
	bus      *events.Bus
}

// newFixture opens a shop migrated to version with "admin" as admin.
func newFixture(t *testing.T, version migration.Version) *fixture {
	t.Helper()
	f := &fixture{
		journal:  &fakeJournal{},
		transfer: testutil.NewRecordingTransferer(),
		clock:    testutil.NewStepClock(time.Time{}, time.Second),
		bus:      events.NewBus(),
	}
	s, err := Open(context.Background(),
		WithJournal(f.journal),
		WithTransferer(f.transfer),
		WithTimeSource(f.clock),
		WithIDGenerator(testutil.NewSeqIDGenerator("")),
		WithBus(f.bus),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	require.NoError(t, s.MigrateTo(context.Background(), version, admin))
	f.shop = s
	f.bus.Drain(context.Background())
	return f
}

func (f *fixture) add(t *testing.T, id uint64, name string, price, stock uint64) {
	t.Helper()
	_, err := f.shop.Add(context.Background(), admin, catalog.Product{ID: id, Name: name, Price: price, Stock: stock})
	require.NoError(t, err)
}

// published drains the bus and returns the delivered event types.
func (f *fixture) published() []string {
	var types []string
	f.bus.Subscribe("test", func(_ context.Context, ev events.Event) error {
		types = append(types, ev.Type())
		return nil
	})
	f.bus.Drain(context.Background())
	return types
}
