package harness

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/shelf/internal/canon"
	"github.com/roach88/shelf/internal/shop"
)

// AssertionContext is what assertions read final state from.
type AssertionContext struct {
	Ctx    context.Context
	Shop   *shop.Shop
	Events []EventLine
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", traceLine(ev))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			err.Trace = result.Trace
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) *AssertionError {
	sh := actx.Shop
	fail := func(expected, actual string, args ...any) *AssertionError {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf(actual, args...)}
	}

	switch a.Type {
	case AssertProduct:
		p, err := sh.Get(a.ID)
		if a.Absent {
			if shop.KindOf(err) != shop.KindNotFound {
				return fail(fmt.Sprintf("product %d absent", a.ID), "get returned %v", err)
			}
			return nil
		}
		if err != nil {
			return fail(fmt.Sprintf("product %d", a.ID), "%v", err)
		}
		if diffs := matchSubset(a.Expect, productResult(p)); len(diffs) > 0 {
			return fail(fmt.Sprintf("product %d matching %v", a.ID, a.Expect), "%s", strings.Join(diffs, "; "))
		}

	case AssertLedgerTotal:
		if a.Count != nil {
			n, err := sh.TotalSales()
			if err != nil {
				return fail(fmt.Sprintf("%d sales", *a.Count), "%v", err)
			}
			if n != *a.Count {
				return fail(fmt.Sprintf("%d sales", *a.Count), "%d sales", n)
			}
		}
		if a.Value != nil {
			sum, err := sh.Summary()
			if err != nil {
				return fail(fmt.Sprintf("total revenue %d", *a.Value), "%v", err)
			}
			if sum.TotalRevenue != *a.Value {
				return fail(fmt.Sprintf("total revenue %d", *a.Value), "total revenue %d", sum.TotalRevenue)
			}
		}

	case AssertRevenueFor:
		rev, err := sh.RevenueFor(a.ID)
		if err != nil {
			return fail(fmt.Sprintf("revenue %d for product %d", *a.Value, a.ID), "%v", err)
		}
		if rev != *a.Value {
			return fail(fmt.Sprintf("revenue %d for product %d", *a.Value, a.ID), "revenue %d", rev)
		}

	case AssertStock:
		p, err := sh.Get(a.ID)
		if err != nil {
			return fail(fmt.Sprintf("stock %d for product %d", *a.Value, a.ID), "%v", err)
		}
		if p.Stock != *a.Value {
			return fail(fmt.Sprintf("stock %d for product %d", *a.Value, a.ID), "stock %d", p.Stock)
		}

	case AssertListIDs:
		ps, err := sh.List()
		if err != nil {
			return fail(fmt.Sprintf("ids %v", a.IDs), "%v", err)
		}
		got := make([]uint64, len(ps))
		for i, p := range ps {
			got[i] = p.ID
		}
		if !equalIDs(got, a.IDs) {
			return fail(fmt.Sprintf("ids %v", a.IDs), "ids %v", got)
		}

	case AssertEventCount:
		n := 0
		for _, ev := range actx.Events {
			if ev.Type == a.Event {
				n++
			}
		}
		if n != *a.Count {
			return fail(fmt.Sprintf("%d %s events", *a.Count, a.Event), "%d", n)
		}

	case AssertBalance:
		if got := sh.Balance(); got != *a.Value {
			return fail(fmt.Sprintf("balance %d", *a.Value), "balance %d", got)
		}
	}
	return nil
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchSubset compares every key of want against got by canonical
// encoding, so YAML ints match uint64 results. It returns one message per
// mismatch, in key order.
func matchSubset(want, got map[string]any) []string {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []string
	for _, k := range keys {
		g, ok := got[k]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: missing from result", k))
			continue
		}
		wb, err := canon.Marshal(want[k])
		if err != nil {
			diffs = append(diffs, fmt.Sprintf("%s: %v", k, err))
			continue
		}
		gb, err := canon.Marshal(g)
		if err != nil {
			diffs = append(diffs, fmt.Sprintf("%s: %v", k, err))
			continue
		}
		if !bytes.Equal(wb, gb) {
			diffs = append(diffs, fmt.Sprintf("%s: expected %s, got %s", k, wb, gb))
		}
	}
	return diffs
}
