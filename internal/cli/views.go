package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
)

// Text renderings for command results. The JSON form of each type is the
// underlying value's.

type productView catalog.Product

func (p productView) String() string {
	return fmt.Sprintf("id=%d name=%q price=%d stock=%d", p.ID, p.Name, p.Price, p.Stock)
}

type productList []catalog.Product

func (l productList) String() string {
	if len(l) == 0 {
		return "No products."
	}
	return table("ID\tNAME\tPRICE\tSTOCK", len(l), func(i int) string {
		p := l[i]
		return fmt.Sprintf("%d\t%s\t%d\t%d", p.ID, p.Name, p.Price, p.Stock)
	})
}

type removeView struct {
	ID       uint64 `json:"id"`
	Position int    `json:"position"`
	Moved    uint64 `json:"moved,omitempty"`
}

func (r removeView) String() string {
	if r.Moved == 0 {
		return fmt.Sprintf("removed %d from position %d", r.ID, r.Position)
	}
	return fmt.Sprintf("removed %d from position %d; %d moved into it", r.ID, r.Position, r.Moved)
}

type receiptView shop.Receipt

func (r receiptView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "purchased %d (%s) for %d, paid %d, refund %d, stock left %d",
		r.Product.ID, r.Product.Name, r.Product.Price, r.Paid, r.Refund, r.Product.Stock)
	if r.Sale != nil {
		fmt.Fprintf(&b, "\nsale #%d receipt %s", r.Sale.Seq, r.Sale.Receipt)
	}
	return b.String()
}

type saleList []ledger.SaleRecord

func (l saleList) String() string {
	if len(l) == 0 {
		return "No sales."
	}
	return table("SEQ\tPRODUCT\tBUYER\tPRICE\tTIME\tRECEIPT", len(l), func(i int) string {
		s := l[i]
		return fmt.Sprintf("%d\t%d\t%s\t%d\t%s\t%s",
			s.Seq, s.ProductID, s.Buyer, s.Price, s.Timestamp.UTC().Format(time.RFC3339), shortHash(s.Receipt))
	})
}

type summaryView shop.Summary

func (s summaryView) String() string {
	return table("METRIC\tVALUE", 6, func(i int) string {
		return [...]string{
			fmt.Sprintf("total sales\t%d", s.TotalSales),
			fmt.Sprintf("total revenue\t%d", s.TotalRevenue),
			fmt.Sprintf("ledger revenue\t%d", s.LedgerRevenue),
			fmt.Sprintf("baseline\t%d", s.Baseline),
			fmt.Sprintf("products live\t%d", s.TotalProductsLive),
			fmt.Sprintf("current balance\t%d", s.CurrentBalance),
		}[i]
	})
}

type eventList []events.Record

func (l eventList) String() string {
	if len(l) == 0 {
		return "No events."
	}
	return table("SEQ\tOP\tTYPE\tTIME", len(l), func(i int) string {
		e := l[i]
		return fmt.Sprintf("%d\t%s\t%s\t%s", e.Seq, e.OpID, e.Type, e.At.UTC().Format(time.RFC3339))
	})
}

type payoutList []store.PayoutRecord

func (l payoutList) String() string {
	if len(l) == 0 {
		return "No payouts."
	}
	return table("ID\tOP\tREASON\tRECIPIENT\tAMOUNT\tTIME", len(l), func(i int) string {
		p := l[i]
		return fmt.Sprintf("%d\t%s\t%s\t%s\t%d\t%s", p.ID, p.OpID, p.Reason, p.Recipient, p.Amount, p.At.UTC().Format(time.RFC3339))
	})
}

// field renders a single named value, e.g. "count: 3".
type field struct {
	name  string
	value any
}

func (f field) String() string {
	return fmt.Sprintf("%s: %v", f.name, f.value)
}

func (f field) MarshalJSON() ([]byte, error) {
	return jsonObject(f.name, f.value)
}

func table(header string, n int, row func(int) string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, row(i))
	}
	_ = w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
