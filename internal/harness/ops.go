package harness

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
)

// operation runs one step and returns its result object.
type operation func(ctx context.Context, sh *shop.Shop, as access.Principal, args args) (map[string]any, error)

var operations = map[string]operation{
	"migrate":        opMigrate,
	"add":            opAdd,
	"update":         opUpdate,
	"remove":         opRemove,
	"get":            opGet,
	"list":           opList,
	"count":          opCount,
	"purchase":       opPurchase,
	"withdraw":       opWithdraw,
	"balance":        opBalance,
	"admin":          opAdmin,
	"is_admin":       opIsAdmin,
	"transfer_admin": opTransferAdmin,
	"sales":          opSales,
	"sales_page":     opSalesPage,
	"sales_range":    opSalesRange,
	"total_sales":    opTotalSales,
	"revenue_for":    opRevenueFor,
	"summary":        opSummary,
}

// args wraps step arguments decoded from YAML.
type args map[string]any

func (a args) uintArg(key string) (uint64, error) {
	v, ok := a[key]
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, &ArgError{Key: key, Msg: fmt.Sprintf("negative value %d", n)}
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, &ArgError{Key: key, Msg: fmt.Sprintf("negative value %d", n)}
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	}
	return 0, &ArgError{Key: key, Msg: fmt.Sprintf("expected integer, got %T", v)}
}

func (a args) intArg(key string) (int, error) {
	n, err := a.uintArg(key)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, &ArgError{Key: key, Msg: fmt.Sprintf("%d out of range", n)}
	}
	return int(n), nil
}

func (a args) stringArg(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgError{Key: key, Msg: fmt.Sprintf("expected string, got %T", v)}
	}
	return s, nil
}

func (a args) timeArg(key string) (time.Time, error) {
	if t, ok := a[key].(time.Time); ok {
		return t, nil
	}
	s, err := a.stringArg(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &ArgError{Key: key, Msg: err.Error()}
	}
	return t, nil
}

func (a args) product() (catalog.Product, error) {
	var p catalog.Product
	var err error
	if p.ID, err = a.uintArg("id"); err != nil {
		return p, err
	}
	if p.Name, err = a.stringArg("name"); err != nil {
		return p, err
	}
	if p.Price, err = a.uintArg("price"); err != nil {
		return p, err
	}
	if p.Stock, err = a.uintArg("stock"); err != nil {
		return p, err
	}
	return p, nil
}

func productResult(p catalog.Product) map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name, "price": p.Price, "stock": p.Stock}
}

func seqs(recs []ledger.SaleRecord) map[string]any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r.Seq
	}
	return map[string]any{"seqs": out}
}

func opMigrate(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	v, err := a.intArg("version")
	if err != nil {
		return nil, err
	}
	admin, err := a.stringArg("admin")
	if err != nil {
		return nil, err
	}
	if err := sh.MigrationStep(ctx, migration.Version(v), access.Principal(admin)); err != nil {
		return nil, err
	}
	return map[string]any{"version": v}, nil
}

func opAdd(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	p, err := a.product()
	if err != nil {
		return nil, err
	}
	if p, err = sh.Add(ctx, as, p); err != nil {
		return nil, err
	}
	return productResult(p), nil
}

func opUpdate(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	p, err := a.product()
	if err != nil {
		return nil, err
	}
	if p, err = sh.Update(ctx, as, p); err != nil {
		return nil, err
	}
	return productResult(p), nil
}

func opRemove(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	id, err := a.uintArg("id")
	if err != nil {
		return nil, err
	}
	eff, err := sh.Remove(ctx, as, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": eff.ID, "position": eff.Position, "moved": eff.Moved}, nil
}

func opGet(_ context.Context, sh *shop.Shop, _ access.Principal, a args) (map[string]any, error) {
	id, err := a.uintArg("id")
	if err != nil {
		return nil, err
	}
	p, err := sh.Get(id)
	if err != nil {
		return nil, err
	}
	return productResult(p), nil
}

func opList(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	ps, err := sh.List()
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return map[string]any{"ids": ids}, nil
}

func opCount(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	n, err := sh.Count()
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": n}, nil
}

func opPurchase(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	id, err := a.uintArg("id")
	if err != nil {
		return nil, err
	}
	paid, err := a.uintArg("paid")
	if err != nil {
		return nil, err
	}
	rc, err := sh.Purchase(ctx, as, id, paid)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"id":     rc.Product.ID,
		"price":  rc.Product.Price,
		"paid":   rc.Paid,
		"refund": rc.Refund,
		"stock":  rc.Product.Stock,
	}
	if rc.Sale != nil {
		out["sale_seq"] = rc.Sale.Seq
	}
	return out, nil
}

func opWithdraw(ctx context.Context, sh *shop.Shop, as access.Principal, _ args) (map[string]any, error) {
	amount, err := sh.Withdraw(ctx, as)
	if err != nil {
		return nil, err
	}
	return map[string]any{"amount": amount}, nil
}

func opBalance(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	return map[string]any{"balance": sh.Balance()}, nil
}

func opAdmin(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	p, err := sh.Admin()
	if err != nil {
		return nil, err
	}
	return map[string]any{"admin": string(p)}, nil
}

func opIsAdmin(_ context.Context, sh *shop.Shop, _ access.Principal, a args) (map[string]any, error) {
	p, err := a.stringArg("principal")
	if err != nil {
		return nil, err
	}
	return map[string]any{"is_admin": sh.IsAdmin(access.Principal(p))}, nil
}

func opTransferAdmin(ctx context.Context, sh *shop.Shop, as access.Principal, a args) (map[string]any, error) {
	next, err := a.stringArg("to")
	if err != nil {
		return nil, err
	}
	if err := sh.TransferAdmin(ctx, as, access.Principal(next)); err != nil {
		return nil, err
	}
	return map[string]any{"admin": next}, nil
}

func opSales(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	recs, err := sh.SalesHistory()
	if err != nil {
		return nil, err
	}
	return seqs(recs), nil
}

func opSalesPage(_ context.Context, sh *shop.Shop, _ access.Principal, a args) (map[string]any, error) {
	offset, err := a.intArg("offset")
	if err != nil {
		return nil, err
	}
	limit, err := a.intArg("limit")
	if err != nil {
		return nil, err
	}
	recs, err := sh.SalesPage(offset, limit)
	if err != nil {
		return nil, err
	}
	return seqs(recs), nil
}

func opSalesRange(_ context.Context, sh *shop.Shop, _ access.Principal, a args) (map[string]any, error) {
	from, err := a.timeArg("from")
	if err != nil {
		return nil, err
	}
	to, err := a.timeArg("to")
	if err != nil {
		return nil, err
	}
	recs, err := sh.SalesByTimeRange(from, to)
	if err != nil {
		return nil, err
	}
	return seqs(recs), nil
}

func opTotalSales(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	n, err := sh.TotalSales()
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": n}, nil
}

func opRevenueFor(_ context.Context, sh *shop.Shop, _ access.Principal, a args) (map[string]any, error) {
	id, err := a.uintArg("id")
	if err != nil {
		return nil, err
	}
	rev, err := sh.RevenueFor(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"revenue": rev}, nil
}

func opSummary(_ context.Context, sh *shop.Shop, _ access.Principal, _ args) (map[string]any, error) {
	s, err := sh.Summary()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_sales":         s.TotalSales,
		"total_revenue":       s.TotalRevenue,
		"ledger_revenue":      s.LedgerRevenue,
		"baseline":            s.Baseline,
		"total_products_live": s.TotalProductsLive,
		"current_balance":     s.CurrentBalance,
	}, nil
}
