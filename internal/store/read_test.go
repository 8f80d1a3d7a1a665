package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
)

func TestLoad_EmptyStore(t *testing.T) {
	st, _ := createTestStore(t)
	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shop.Meta{}, snap.Meta)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Sales)
	assert.Zero(t, snap.LastEventSeq)
}

func TestReopen_RestoresShop(t *testing.T) {
	ctx := context.Background()
	st, path := createTestStore(t)
	s := migratedShop(t, st, nil)

	for _, p := range []catalog.Product{
		{ID: 1, Name: "Cola", Price: 100, Stock: 10},
		{ID: 2, Name: "Tea", Price: 40, Stock: 5},
		{ID: 3, Name: "Coffee", Price: 60, Stock: 5},
	} {
		_, err := s.Add(ctx, admin, p)
		require.NoError(t, err)
	}
	_, err := s.Purchase(ctx, "alice", 1, 120)
	require.NoError(t, err)
	_, err = s.Purchase(ctx, "bob", 3, 60)
	require.NoError(t, err)
	_, err = s.Remove(ctx, admin, 1)
	require.NoError(t, err)

	wantList, _ := s.List()
	wantHistory, _ := s.SalesHistory()
	wantSummary, _ := s.Summary()
	require.NoError(t, st.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()
	reopened := openShop(t, st2, nil)

	assert.Equal(t, migration.V2, reopened.Version())
	assert.True(t, reopened.IsAdmin(admin))

	gotList, _ := reopened.List()
	assert.Equal(t, wantList, gotList)
	assert.Equal(t, uint64(3), gotList[0].ID, "swap-removed order survives restart")

	gotHistory, _ := reopened.SalesHistory()
	assert.Equal(t, wantHistory, gotHistory)
	gotSummary, _ := reopened.Summary()
	assert.Equal(t, wantSummary, gotSummary)

	// Sequence numbers continue after restart.
	last, err := st2.LastEventSeq(ctx)
	require.NoError(t, err)
	_, err = reopened.Purchase(ctx, "carol", 2, 40)
	require.NoError(t, err)
	recs, err := st2.Events(ctx, last, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, last+1, recs[0].Seq)
	assert.Equal(t, events.TypeSaleRecorded, recs[0].Type)
	assert.Equal(t, events.TypeProductPurchased, recs[1].Type)
}

func TestEvents_Pagination(t *testing.T) {
	ctx := context.Background()
	st, _ := createTestStore(t)
	s := migratedShop(t, st, nil)
	_, err := s.Add(ctx, admin, catalog.Product{ID: 1, Name: "Cola", Price: 1, Stock: 1})
	require.NoError(t, err)

	all, err := st.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3) // two SchemaMigrated, one ProductAdded
	for i, r := range all {
		assert.Equal(t, int64(i+1), r.Seq)
	}

	page, err := st.Events(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Seq)

	none, err := st.Events(ctx, 3, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLoad_RejectsPositionGap(t *testing.T) {
	ctx := context.Background()
	st, _ := createTestStore(t)
	_, err := st.db.Exec(`INSERT INTO products (id, name, price, stock, position) VALUES (1, 'Cola', 1, 1, 5)`)
	require.NoError(t, err)

	_, err = st.Load(ctx)
	assert.Error(t, err)
}
