package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/testutil"
)

const admin access.Principal = "admin"

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

// openShop opens a shop journaled to st.
func openShop(t *testing.T, st *Store, tr shop.Transferer) *shop.Shop {
	t.Helper()
	if tr == nil {
		tr = testutil.NewRecordingTransferer()
	}
	s, err := shop.Open(context.Background(),
		shop.WithJournal(st),
		shop.WithTransferer(tr),
		shop.WithTimeSource(testutil.NewStepClock(time.Time{}, time.Second)),
		shop.WithIDGenerator(testutil.NewSeqIDGenerator("")),
		shop.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return s
}

// migratedShop opens a shop on st and runs every migration step.
func migratedShop(t *testing.T, st *Store, tr shop.Transferer) *shop.Shop {
	t.Helper()
	s := openShop(t, st, tr)
	require.NoError(t, s.MigrateTo(context.Background(), migration.Latest, admin))
	return s
}
