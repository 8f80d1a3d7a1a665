package shop

import (
	"time"

	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/money"
)

// Summary is the sales overview.
//
// TotalRevenue is the collected figure: the migration baseline plus the
// ledger revenue. It therefore differs from the sum of sale prices by
// Baseline, and never decreases when funds are withdrawn.
type Summary struct {
	TotalSales        int    `json:"total_sales"`
	TotalRevenue      uint64 `json:"total_revenue"`
	LedgerRevenue     uint64 `json:"ledger_revenue"`
	Baseline          uint64 `json:"baseline"`
	TotalProductsLive int    `json:"total_products_live"`
	CurrentBalance    uint64 `json:"current_balance"`
}

// readLedger runs fn under the read lock once the sales ledger exists.
func (s *Shop) readLedger(op string, fn func(*State) error) error {
	return s.read(op, func(st *State) error {
		if err := st.versions.Require(migration.V2); err != nil {
			return err
		}
		return fn(st)
	})
}

// SalesHistory returns every sale record in order.
func (s *Shop) SalesHistory() ([]ledger.SaleRecord, error) {
	var out []ledger.SaleRecord
	err := s.readLedger("sales_history", func(st *State) error {
		out = st.ledger.All()
		return nil
	})
	return out, err
}

// SalesPage returns up to limit records starting at offset. An offset at or
// past the end fails with OffsetOutOfBounds, even on an empty ledger.
func (s *Shop) SalesPage(offset, limit int) ([]ledger.SaleRecord, error) {
	var out []ledger.SaleRecord
	err := s.readLedger("sales_page", func(st *State) error {
		var err error
		out, err = st.ledger.Page(offset, limit)
		return err
	})
	return out, err
}

// SalesByTimeRange returns records with from <= timestamp <= to, in order.
func (s *Shop) SalesByTimeRange(from, to time.Time) ([]ledger.SaleRecord, error) {
	var out []ledger.SaleRecord
	err := s.readLedger("sales_by_time_range", func(st *State) error {
		var err error
		out, err = st.ledger.ByTimeRange(from, to)
		return err
	})
	return out, err
}

// TotalSales returns the number of sale records.
func (s *Shop) TotalSales() (int, error) {
	var n int
	err := s.readLedger("total_sales", func(st *State) error {
		n = st.ledger.Len()
		return nil
	})
	return n, err
}

// RevenueFor returns the ledger revenue of one product. Unknown and removed
// products report their recorded revenue, zero if none.
func (s *Shop) RevenueFor(productID uint64) (uint64, error) {
	var rev uint64
	err := s.readLedger("revenue_for", func(st *State) error {
		rev = st.ledger.RevenueFor(productID)
		return nil
	})
	return rev, err
}

// Summary returns the sales overview.
func (s *Shop) Summary() (Summary, error) {
	var sum Summary
	err := s.readLedger("summary", func(st *State) error {
		collected, err := money.Add(st.baseline, st.ledger.TotalRevenue())
		if err != nil {
			return err
		}
		sum = Summary{
			TotalSales:        st.ledger.Len(),
			TotalRevenue:      collected,
			LedgerRevenue:     st.ledger.TotalRevenue(),
			Baseline:          st.baseline,
			TotalProductsLive: st.catalog.Count(),
			CurrentBalance:    st.balance,
		}
		return nil
	})
	return sum, err
}
