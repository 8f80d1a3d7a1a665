package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/shop"
)

// Load reads the whole aggregate back. Products come in position order and
// sales in seq order, so the shop can rebuild and re-verify its state.
func (s *Store) Load(ctx context.Context) (*shop.Snapshot, error) {
	var metas []metaRow
	if err := s.db.SelectContext(ctx, &metas, `SELECT key, value FROM meta ORDER BY key`); err != nil {
		return nil, errors.Wrap(err, "load meta")
	}
	meta, err := parseMeta(metas)
	if err != nil {
		return nil, err
	}

	var prows []productRow
	if err := s.db.SelectContext(ctx, &prows, `
		SELECT id, name, price, stock, position FROM products ORDER BY position ASC
	`); err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	products := make([]catalog.Product, len(prows))
	for i, r := range prows {
		if r.Position != int64(i) {
			return nil, errors.Errorf("product %d at position %d, expected %d", fromDB(r.ID), r.Position, i)
		}
		products[i] = r.product()
	}

	sales, err := s.sales(ctx)
	if err != nil {
		return nil, err
	}

	var rrows []revenueRow
	if err := s.db.SelectContext(ctx, &rrows, `SELECT product_id, revenue FROM product_revenue`); err != nil {
		return nil, errors.Wrap(err, "load revenue")
	}
	revenues := make(map[uint64]uint64, len(rrows))
	for _, r := range rrows {
		revenues[fromDB(r.ProductID)] = fromDB(r.Revenue)
	}

	lastSeq, err := s.LastEventSeq(ctx)
	if err != nil {
		return nil, err
	}

	return &shop.Snapshot{
		Meta:         meta,
		Products:     products,
		Sales:        sales,
		Revenues:     revenues,
		LastEventSeq: lastSeq,
	}, nil
}

func (s *Store) sales(ctx context.Context) ([]ledger.SaleRecord, error) {
	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT seq, product_id, buyer, price, ts_ns, receipt FROM sales ORDER BY seq ASC
	`); err != nil {
		return nil, errors.Wrap(err, "load sales")
	}
	out := make([]ledger.SaleRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

// LastEventSeq returns the highest persisted event seq, or 0.
func (s *Store) LastEventSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.GetContext(ctx, &seq, `SELECT MAX(seq) FROM events`); err != nil {
		return 0, errors.Wrap(err, "read last event seq")
	}
	return seq.Int64, nil
}

// Events returns up to limit events with seq > afterSeq, in seq order.
// A non-positive limit returns every remaining event.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) Events(ctx context.Context, afterSeq int64, limit int) ([]events.Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT seq, op_id, type, payload, digest, ts_ns
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit); err != nil {
		return nil, errors.Wrap(err, "read events")
	}
	out := make([]events.Record, len(rows))
	for i, r := range rows {
		out[i] = events.Record{
			Seq:     r.Seq,
			OpID:    r.OpID,
			Type:    r.Type,
			Payload: json.RawMessage(r.Payload),
			Digest:  r.Digest,
			At:      fromNanos(r.TsNs),
		}
	}
	return out, nil
}

// Payouts returns every recorded payout in insertion order.
func (s *Store) Payouts(ctx context.Context) ([]PayoutRecord, error) {
	var rows []payoutRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, op_id, recipient, amount, reason, ts_ns FROM payouts ORDER BY id ASC
	`); err != nil {
		return nil, errors.Wrap(err, "read payouts")
	}
	out := make([]PayoutRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}
