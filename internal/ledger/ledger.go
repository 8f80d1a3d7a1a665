package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/shelf/internal/money"
)

var (
	ErrOffsetOutOfBounds = errors.New("offset out of bounds")
	ErrInvalidRange      = errors.New("invalid time range")
	ErrSequence          = errors.New("sale record out of sequence")
	ErrCorrupt           = errors.New("ledger aggregates do not match records")
)

// Ledger is an append-only sequence of sale records with running aggregates.
// Ledger is not safe for concurrent use; the owner serializes access.
type Ledger struct {
	records    []SaleRecord
	total      uint64
	perProduct map[uint64]uint64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{perProduct: make(map[uint64]uint64)}
}

// Restore replays records into a fresh ledger and verifies the persisted
// per-product aggregates against them. A nil revenues map skips the check.
func Restore(records []SaleRecord, revenues map[uint64]uint64) (*Ledger, error) {
	l := New()
	for _, rec := range records {
		if err := l.Append(rec); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	if revenues == nil {
		return l, nil
	}
	if len(revenues) != len(l.perProduct) {
		return nil, fmt.Errorf("restore: %d revenue rows for %d products: %w", len(revenues), len(l.perProduct), ErrCorrupt)
	}
	for id, want := range revenues {
		if got := l.perProduct[id]; got != want {
			return nil, fmt.Errorf("restore: product %d revenue %d, records sum to %d: %w", id, want, got, ErrCorrupt)
		}
	}
	return l, nil
}

// NextSeq returns the sequence number the next appended record must carry.
func (l *Ledger) NextSeq() uint64 {
	return uint64(len(l.records)) + 1
}

// CheckAppend validates rec without mutating the ledger. It returns the
// aggregates that Append would produce.
func (l *Ledger) CheckAppend(rec SaleRecord) (total, productRevenue uint64, err error) {
	if rec.Seq != l.NextSeq() {
		return 0, 0, fmt.Errorf("got seq %d, want %d: %w", rec.Seq, l.NextSeq(), ErrSequence)
	}
	if total, err = money.Add(l.total, rec.Price); err != nil {
		return 0, 0, fmt.Errorf("total revenue: %w", err)
	}
	if productRevenue, err = money.Add(l.perProduct[rec.ProductID], rec.Price); err != nil {
		return 0, 0, fmt.Errorf("revenue for product %d: %w", rec.ProductID, err)
	}
	return total, productRevenue, nil
}

// Append adds rec and updates the aggregates. Amortized O(1).
func (l *Ledger) Append(rec SaleRecord) error {
	total, productRevenue, err := l.CheckAppend(rec)
	if err != nil {
		return err
	}
	l.records = append(l.records, rec)
	l.total = total
	l.perProduct[rec.ProductID] = productRevenue
	return nil
}

// All returns a snapshot of every record in order.
func (l *Ledger) All() []SaleRecord {
	out := make([]SaleRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Page returns up to limit records starting at offset.
//
// Asking for any offset at or past the end fails, including offset 0 on an
// empty ledger: an exhausted ledger is an error, not an empty page.
func (l *Ledger) Page(offset, limit int) ([]SaleRecord, error) {
	if offset < 0 || offset >= len(l.records) {
		return nil, fmt.Errorf("offset %d with %d records: %w", offset, len(l.records), ErrOffsetOutOfBounds)
	}
	if limit < 0 {
		limit = 0
	}
	end := len(l.records)
	if limit < end-offset {
		end = offset + limit
	}
	out := make([]SaleRecord, end-offset)
	copy(out, l.records[offset:end])
	return out, nil
}

// ByTimeRange returns the records with from <= Timestamp <= to, in ledger order.
func (l *Ledger) ByTimeRange(from, to time.Time) ([]SaleRecord, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from %s after to %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), ErrInvalidRange)
	}
	out := []SaleRecord{}
	for _, rec := range l.records {
		if rec.Timestamp.Before(from) || rec.Timestamp.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// TotalRevenue returns the sum of all record prices.
func (l *Ledger) TotalRevenue() uint64 {
	return l.total
}

// RevenueFor returns the summed price of the records for productID.
func (l *Ledger) RevenueFor(productID uint64) uint64 {
	return l.perProduct[productID]
}
