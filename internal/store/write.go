package store

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/roach88/shelf/internal/canon"
	"github.com/roach88/shelf/internal/shop"
)

// Commit writes cs in one transaction. hook, if non-nil, runs after every
// row is written and before COMMIT; its error rolls the transaction back
// and is returned unwrapped so callers can classify it.
func (s *Store) Commit(ctx context.Context, cs *shop.Changeset, hook shop.Hook) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := writeChangeset(ctx, tx, cs); err != nil {
		return errors.Wrapf(err, "commit %s %s", cs.Op, cs.OpID)
	}
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func writeChangeset(ctx context.Context, tx *sqlx.Tx, cs *shop.Changeset) error {
	for _, row := range metaRows(cs.Meta) {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (:key, :value)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, row); err != nil {
			return errors.Wrapf(err, "write meta %s", row.Key)
		}
	}

	// Deletes first: a swap-remove moves the last product into the
	// position the deleted one held.
	for _, id := range cs.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, toDB(id)); err != nil {
			return errors.Wrapf(err, "delete product %d", id)
		}
	}
	for _, p := range cs.Upserts {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO products (id, name, price, stock, position)
			VALUES (:id, :name, :price, :stock, :position)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				price = excluded.price,
				stock = excluded.stock,
				position = excluded.position
		`, newProductRow(p)); err != nil {
			return errors.Wrapf(err, "write product %d", p.ID)
		}
	}

	for _, rec := range cs.Sales {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO sales (seq, product_id, buyer, price, ts_ns, receipt)
			VALUES (:seq, :product_id, :buyer, :price, :ts_ns, :receipt)
		`, newSaleRow(rec)); err != nil {
			return errors.Wrapf(err, "append sale %d", rec.Seq)
		}
	}
	for id, revenue := range cs.Revenues {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO product_revenue (product_id, revenue) VALUES (:product_id, :revenue)
			ON CONFLICT(product_id) DO UPDATE SET revenue = excluded.revenue
		`, revenueRow{ProductID: toDB(id), Revenue: toDB(revenue)}); err != nil {
			return errors.Wrapf(err, "write revenue for product %d", id)
		}
	}

	for _, ev := range cs.Events {
		raw, err := json.Marshal(ev)
		if err != nil {
			return errors.Wrapf(err, "encode %s", ev.Type())
		}
		payload, err := canon.FromJSON(raw)
		if err != nil {
			return errors.Wrapf(err, "canonicalize %s", ev.Type())
		}
		h := ev.Header()
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO events (seq, op_id, type, payload, digest, ts_ns)
			VALUES (:seq, :op_id, :type, :payload, :digest, :ts_ns)
		`, eventRow{
			Seq:     h.Seq,
			OpID:    h.OpID,
			Type:    ev.Type(),
			Payload: string(payload),
			Digest:  canon.HashWithDomain(canon.DomainEvent, payload),
			TsNs:    nanos(h.At),
		}); err != nil {
			return errors.Wrapf(err, "append event %d", h.Seq)
		}
	}

	for _, p := range cs.Payouts {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO payouts (op_id, recipient, amount, reason, ts_ns)
			VALUES (:op_id, :recipient, :amount, :reason, :ts_ns)
		`, payoutRow{
			OpID:      cs.OpID,
			Recipient: p.Recipient,
			Amount:    toDB(p.Amount),
			Reason:    p.Reason,
			TsNs:      nanos(cs.At),
		}); err != nil {
			return errors.Wrapf(err, "record %s payout", p.Reason)
		}
	}
	return nil
}
