// Package ledger implements the append-only sales ledger.
//
// The ledger is the only record of settled sales. Records are appended once
// and never mutated or deleted. Aggregates are maintained on append:
//
//	TotalRevenue()  == sum of record.Price over all records
//	RevenueFor(id)  == sum of record.Price over records with ProductID == id
package ledger

import (
	"fmt"
	"time"

	"github.com/roach88/shelf/internal/canon"
)

// SaleRecord is an immutable settled sale. Price is the unit price charged
// at settlement, captured then and never looked up again.
type SaleRecord struct {
	Seq       uint64    `json:"seq"`
	ProductID uint64    `json:"product_id"`
	Buyer     string    `json:"buyer"`
	Price     uint64    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Receipt   string    `json:"receipt"`
}

// NewRecord builds a record and computes its content-addressed receipt.
func NewRecord(seq, productID uint64, buyer string, price uint64, ts time.Time) (SaleRecord, error) {
	rec := SaleRecord{
		Seq:       seq,
		ProductID: productID,
		Buyer:     buyer,
		Price:     price,
		Timestamp: ts.UTC(),
	}
	receipt, err := ReceiptID(rec)
	if err != nil {
		return SaleRecord{}, err
	}
	rec.Receipt = receipt
	return rec, nil
}

// ReceiptID hashes the identifying fields of a record. The Receipt field
// itself is excluded.
func ReceiptID(rec SaleRecord) (string, error) {
	id, err := canon.ID(canon.DomainSale, map[string]any{
		"seq":        rec.Seq,
		"product_id": rec.ProductID,
		"buyer":      rec.Buyer,
		"price":      rec.Price,
		"timestamp":  rec.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("receipt for sale %d: %w", rec.Seq, err)
	}
	return id, nil
}
