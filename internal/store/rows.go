package store

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/shop"
)

// SQLite integers are signed 64-bit. uint64 values are stored bit-for-bit.
func toDB(v uint64) int64   { return int64(v) }
func fromDB(v int64) uint64 { return uint64(v) }

func nanos(t time.Time) int64      { return t.UTC().UnixNano() }
func fromNanos(ns int64) time.Time { return time.Unix(0, ns).UTC() }

type productRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Price    int64  `db:"price"`
	Stock    int64  `db:"stock"`
	Position int64  `db:"position"`
}

func newProductRow(p shop.PlacedProduct) productRow {
	return productRow{
		ID:       toDB(p.ID),
		Name:     p.Name,
		Price:    toDB(p.Price),
		Stock:    toDB(p.Stock),
		Position: int64(p.Position),
	}
}

func (r productRow) product() catalog.Product {
	return catalog.Product{
		ID:    fromDB(r.ID),
		Name:  r.Name,
		Price: fromDB(r.Price),
		Stock: fromDB(r.Stock),
	}
}

type saleRow struct {
	Seq       int64  `db:"seq"`
	ProductID int64  `db:"product_id"`
	Buyer     string `db:"buyer"`
	Price     int64  `db:"price"`
	TsNs      int64  `db:"ts_ns"`
	Receipt   string `db:"receipt"`
}

func newSaleRow(rec ledger.SaleRecord) saleRow {
	return saleRow{
		Seq:       toDB(rec.Seq),
		ProductID: toDB(rec.ProductID),
		Buyer:     rec.Buyer,
		Price:     toDB(rec.Price),
		TsNs:      nanos(rec.Timestamp),
		Receipt:   rec.Receipt,
	}
}

func (r saleRow) record() ledger.SaleRecord {
	return ledger.SaleRecord{
		Seq:       fromDB(r.Seq),
		ProductID: fromDB(r.ProductID),
		Buyer:     r.Buyer,
		Price:     fromDB(r.Price),
		Timestamp: fromNanos(r.TsNs),
		Receipt:   r.Receipt,
	}
}

type revenueRow struct {
	ProductID int64 `db:"product_id"`
	Revenue   int64 `db:"revenue"`
}

type eventRow struct {
	Seq     int64  `db:"seq"`
	OpID    string `db:"op_id"`
	Type    string `db:"type"`
	Payload string `db:"payload"`
	Digest  string `db:"digest"`
	TsNs    int64  `db:"ts_ns"`
}

type payoutRow struct {
	ID        int64  `db:"id"`
	OpID      string `db:"op_id"`
	Recipient string `db:"recipient"`
	Amount    int64  `db:"amount"`
	Reason    string `db:"reason"`
	TsNs      int64  `db:"ts_ns"`
}

// PayoutRecord is a transfer of funds out of custody, as stored.
type PayoutRecord struct {
	ID        int64     `json:"id"`
	OpID      string    `json:"op_id"`
	Recipient string    `json:"recipient"`
	Amount    uint64    `json:"amount"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (r payoutRow) record() PayoutRecord {
	return PayoutRecord{
		ID:        r.ID,
		OpID:      r.OpID,
		Recipient: r.Recipient,
		Amount:    fromDB(r.Amount),
		Reason:    r.Reason,
		At:        fromNanos(r.TsNs),
	}
}

// Meta keys.
const (
	keySchemaVersion = "schema_version"
	keyAdmin         = "admin"
	keyBalance       = "balance"
	keyBaseline      = "baseline"
)

type metaRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func metaRows(m shop.Meta) []metaRow {
	return []metaRow{
		{keySchemaVersion, strconv.Itoa(m.Version)},
		{keyAdmin, m.Admin},
		{keyBalance, strconv.FormatUint(m.Balance, 10)},
		{keyBaseline, strconv.FormatUint(m.Baseline, 10)},
	}
}

func parseMeta(rows []metaRow) (shop.Meta, error) {
	var m shop.Meta
	for _, r := range rows {
		var err error
		switch r.Key {
		case keySchemaVersion:
			m.Version, err = strconv.Atoi(r.Value)
		case keyAdmin:
			m.Admin = r.Value
		case keyBalance:
			m.Balance, err = strconv.ParseUint(r.Value, 10, 64)
		case keyBaseline:
			m.Baseline, err = strconv.ParseUint(r.Value, 10, 64)
		}
		if err != nil {
			return shop.Meta{}, errors.Wrapf(err, "meta %s", r.Key)
		}
	}
	return m, nil
}
