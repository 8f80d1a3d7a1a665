package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
	"github.com/roach88/shelf/internal/testutil"
)

// ArgError reports a step argument of the wrong shape. It fails the run
// instead of being recorded as a step outcome.
type ArgError struct {
	Key string
	Msg string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("arg %s: %s", e.Key, e.Msg)
}

// Harness executes one scenario.
type Harness struct {
	store   *store.Store
	shop    *shop.Shop
	payouts *testutil.RecordingTransferer
}

// Run executes a scenario against a fresh in-memory store.
//
// Execution order: migrate to the scenario's version, run setup (every step
// must succeed), run the flow checking each expect clause, read back the
// event log, then evaluate assertions.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	payouts := testutil.NewRecordingTransferer()
	for _, p := range scenario.RejectPayouts {
		payouts.Reject(access.Principal(p))
	}

	sh, err := shop.Open(ctx,
		shop.WithJournal(st),
		shop.WithTransferer(payouts),
		shop.WithTimeSource(testutil.NewStepClock(testutil.DefaultEpoch, time.Second)),
		shop.WithIDGenerator(testutil.NewSeqIDGenerator("op")),
		shop.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop: %w", err)
	}
	h := &Harness{store: st, shop: sh, payouts: payouts}

	admin := scenario.Admin
	if admin == "" {
		admin = DefaultAdmin
	}
	target := migration.Latest
	if scenario.MigrateTo != nil {
		target = migration.Version(*scenario.MigrateTo)
	}
	if err := sh.MigrateTo(ctx, target, access.Principal(admin)); err != nil {
		return nil, fmt.Errorf("failed to migrate to %s: %w", target, err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	recs, err := st.Events(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	for _, r := range recs {
		result.Events = append(result.Events, EventLine{Seq: r.Seq, Type: r.Type, OpID: r.OpID})
	}

	actx := &AssertionContext{Ctx: ctx, Shop: sh, Events: result.Events}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) invoke(ctx context.Context, step Step) (map[string]any, error) {
	op := operations[step.Op]
	return op(ctx, h.shop, access.Principal(step.As), args(step.Args))
}

// executeSetup runs setup steps. A failing setup step aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []Step, result *Result) error {
	for i, step := range setup {
		if _, err := h.invoke(ctx, step); err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Op, err)
		}
		result.addStep(TraceEvent{Phase: "setup", Index: i, Op: step.Op, As: step.As, Args: step.Args, Outcome: OutcomeOK})
	}
	return nil
}

// executeFlow runs flow steps and checks each expect clause. Mismatches
// are recorded on result; only malformed arguments abort.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		res, err := h.invoke(ctx, step)
		var argErr *ArgError
		if errors.As(err, &argErr) {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Op, err)
		}

		ev := TraceEvent{Phase: "flow", Index: i, Op: step.Op, As: step.As, Args: step.Args, Outcome: OutcomeOK}
		if err != nil {
			ev.Outcome = string(shop.KindOf(err))
		} else {
			ev.Result = res
		}
		result.addStep(ev)

		for _, msg := range checkExpect(step.Expect, res, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return nil
}

func checkExpect(want *Expect, got map[string]any, err error) []string {
	switch {
	case want == nil || want.Error == "":
		if err != nil {
			return []string{fmt.Sprintf("unexpected error %s: %v", shop.KindOf(err), err)}
		}
		if want == nil {
			return nil
		}
		return matchSubset(want.Result, got)
	case err == nil:
		return []string{fmt.Sprintf("expected error %s, got ok", want.Error)}
	case string(shop.KindOf(err)) != want.Error:
		return []string{fmt.Sprintf("expected error %s, got %s: %v", want.Error, shop.KindOf(err), err)}
	}
	return nil
}
