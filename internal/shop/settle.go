package shop

import (
	"context"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/money"
)

// Receipt is the outcome of a settled purchase.
type Receipt struct {
	OpID    string             `json:"op_id"`
	Product catalog.Product    `json:"product"` // after the stock decrement
	Paid    uint64             `json:"paid"`
	Refund  uint64             `json:"refund"`
	Sale    *ledger.SaleRecord `json:"sale,omitempty"` // nil before V2
}

// Purchase settles one unit of product id for buyer, who paid amount.
//
// Stock decrement, sale record, revenue aggregates, custodied balance and
// the refund of any overpayment commit together or not at all: a failed
// refund transfer rolls back the whole purchase.
func (s *Shop) Purchase(ctx context.Context, buyer access.Principal, id, paid uint64) (Receipt, error) {
	const op = "purchase"
	var rc Receipt
	err := s.mutate(ctx, op, func(t *txn) error {
		st := s.state
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		if buyer == "" {
			return access.ErrInvalidPrincipal
		}
		p, err := st.catalog.Get(id)
		if err != nil {
			return err
		}
		if p.Stock == 0 {
			return catalog.ErrOutOfStock
		}
		if paid < p.Price {
			return reject(op, KindInsufficientPayment, "paid %d, price %d", paid, p.Price)
		}
		refund := paid - p.Price

		if t.meta.Balance, err = money.Add(t.meta.Balance, p.Price); err != nil {
			return err
		}

		after := p
		after.Stock--
		pos, _ := st.catalog.Position(id)
		t.cs.Upserts = []PlacedProduct{{Product: after, Position: pos}}

		var sale *ledger.SaleRecord
		if st.versions.Version() >= migration.V2 {
			rec, err := ledger.NewRecord(st.ledger.NextSeq(), id, string(buyer), p.Price, t.at)
			if err != nil {
				return err
			}
			total, productRevenue, err := st.ledger.CheckAppend(rec)
			if err != nil {
				return err
			}
			if _, err := money.Add(st.baseline, total); err != nil {
				return err
			}
			sale = &rec
			t.cs.Sales = []ledger.SaleRecord{rec}
			t.cs.Revenues = map[uint64]uint64{id: productRevenue}
			t.emit(&events.SaleRecorded{Sale: rec})
		}

		t.emit(&events.ProductPurchased{
			ProductID: id,
			Buyer:     string(buyer),
			Price:     p.Price,
			Paid:      paid,
			StockLeft: after.Stock,
		})
		if refund > 0 {
			t.cs.Payouts = []Payout{{Recipient: string(buyer), Amount: refund, Reason: ReasonRefund}}
			t.emit(&events.RefundSent{Buyer: string(buyer), Amount: refund})
			t.hook = s.payout(op, buyer, refund, ReasonRefund)
		}

		t.then(func(st *State) {
			must(st.catalog.SetStock(id, after.Stock))
			if sale != nil {
				must(st.ledger.Append(*sale))
			}
		})
		rc = Receipt{OpID: t.opID, Product: after, Paid: paid, Refund: refund, Sale: sale}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return rc, nil
}

// Withdraw transfers the whole custodied balance to the admin and returns
// the amount.
func (s *Shop) Withdraw(ctx context.Context, caller access.Principal) (uint64, error) {
	const op = "withdraw"
	var amount uint64
	err := s.mutate(ctx, op, func(t *txn) error {
		st := s.state
		if err := st.requireAdmin(caller); err != nil {
			return err
		}
		if st.balance == 0 {
			return reject(op, KindNothingToWithdraw, "custodied balance is zero")
		}
		amount = st.balance
		t.meta.Balance = 0
		t.cs.Payouts = []Payout{{Recipient: string(caller), Amount: amount, Reason: ReasonWithdraw}}
		t.emit(&events.FundsWithdrawn{Admin: string(caller), Amount: amount})
		t.hook = s.payout(op, caller, amount, ReasonWithdraw)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// Balance returns the custodied balance.
func (s *Shop) Balance() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.balance
}
