package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
	"github.com/roach88/shelf/internal/testutil"
)

// newJournaledAPI serves a shop backed by an in-memory SQLite store, with
// the event and payout logs wired.
func newJournaledAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	payouts := testutil.NewRecordingTransferer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sh, err := shop.Open(ctx,
		shop.WithJournal(st),
		shop.WithTransferer(payouts),
		shop.WithTimeSource(testutil.NewStepClock(testutil.DefaultEpoch, 0)),
		shop.WithIDGenerator(testutil.NewSeqIDGenerator("op")),
		shop.WithLogger(logger),
	)
	require.NoError(t, err)
	require.NoError(t, sh.MigrateTo(ctx, migration.V2, admin))

	srv := NewServer(sh, WithEventLog(st), WithPayoutLog(st), WithLogger(logger))
	return &apiFixture{shop: sh, payouts: payouts, handler: srv.Handler()}
}

func TestPayoutsEndpoint(t *testing.T) {
	f := newJournaledAPI(t)

	_, resp := f.do(t, http.MethodPost, "/api/v1/products", admin, productBody{ID: 1, Name: "Cola", Price: 100, Stock: 2})
	require.Equal(t, "ok", resp.Status)
	_, resp = f.do(t, http.MethodPost, "/api/v1/products/1/purchase", "bob", purchaseBody{Paid: 130})
	require.Equal(t, "ok", resp.Status)
	_, resp = f.do(t, http.MethodPost, "/api/v1/withdraw", admin, nil)
	require.Equal(t, "ok", resp.Status)

	rec, resp := f.do(t, http.MethodGet, "/api/v1/payouts", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, ok := resp.Data.([]any)
	require.True(t, ok, "data is %T", resp.Data)
	require.Len(t, list, 2)

	refund := list[0].(map[string]any)
	assert.Equal(t, "bob", refund["recipient"])
	assert.EqualValues(t, 30, refund["amount"])
	assert.Equal(t, string(shop.ReasonRefund), refund["reason"])

	withdrawal := list[1].(map[string]any)
	assert.Equal(t, admin, withdrawal["recipient"])
	assert.EqualValues(t, 100, withdrawal["amount"])
	assert.Equal(t, string(shop.ReasonWithdraw), withdrawal["reason"])
}

func TestPayoutsEndpoint_AdminOnly(t *testing.T) {
	f := newJournaledAPI(t)

	rec, resp := f.do(t, http.MethodGet, "/api/v1/payouts", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AccessDenied", resp.Error.Code)
}

func TestPayoutsEndpoint_WithoutLog(t *testing.T) {
	f := newAPI(t, migration.V2)

	rec, resp := f.do(t, http.MethodGet, "/api/v1/payouts", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data)
}

func TestEventsEndpoint_ReadsJournal(t *testing.T) {
	f := newJournaledAPI(t)

	_, resp := f.do(t, http.MethodPost, "/api/v1/products", admin, productBody{ID: 1, Name: "Cola", Price: 100, Stock: 2})
	require.Equal(t, "ok", resp.Status)

	rec, resp := f.do(t, http.MethodGet, "/api/v1/events?after=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "ProductAdded", list[0].(map[string]any)["type"])
}
