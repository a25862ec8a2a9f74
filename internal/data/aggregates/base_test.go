package aggregates

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/project-radar/internal/data/repos/testutil"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
)

var testContract = domainagg.Contract{
	Name:             "aggregate.test",
	OpPrefix:         "aggregate.test",
	WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
	ReadPolicy:       domainagg.ReadPolicyInvariantScoped,
}

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	runner := spyTxRunner{}

	err := executeWrite(context.Background(), BaseDeps{
		Runner: runner,
		Hooks:  hooks,
	}, testContract, "aggregate.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != "success" {
		t.Fatalf("operation status: want=success got=%s", hooks.Operations[0].Status)
	}
}

func TestExecuteWriteObservesInvariantViolationStatus(t *testing.T) {
	hooks := &spyHooks{}
	runner := spyTxRunner{}

	err := executeWrite(context.Background(), BaseDeps{
		Runner: runner,
		Hooks:  hooks,
	}, testContract, "aggregate.test.invariant", func(_ dbctx.Context) error {
		return InvariantError("invariant broken")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant violation code, got=%v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("operation status: want=%s got=%s", domainagg.CodeInvariantViolation, hooks.Operations[0].Status)
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		hooks := &spyHooks{}
		runner := spyTxRunner{}
		err := executeWrite(context.Background(), BaseDeps{
			Runner: runner,
			Hooks:  hooks,
		}, testContract, "aggregate.test.conflict", func(_ dbctx.Context) error {
			return ConflictError("edition status changed")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("expected conflict code, got=%v", err)
		}
		if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "aggregate.test.conflict" {
			t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
		}
		if len(hooks.Retries) != 0 {
			t.Fatalf("retry hooks should be empty, got=%+v", hooks.Retries)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeConflict) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})

	t.Run("retryable", func(t *testing.T) {
		hooks := &spyHooks{}
		runner := spyTxRunner{}
		err := executeWrite(context.Background(), BaseDeps{
			Runner: runner,
			Hooks:  hooks,
		}, testContract, "aggregate.test.retry", func(_ dbctx.Context) error {
			return RetryableError("temporary lock timeout")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !domainagg.IsCode(err, domainagg.CodeRetryable) {
			t.Fatalf("expected retryable code, got=%v", err)
		}
		if len(hooks.Retries) != 1 || hooks.Retries[0] != "aggregate.test.retry" {
			t.Fatalf("retry hooks: %+v", hooks.Retries)
		}
		if len(hooks.Conflicts) != 0 {
			t.Fatalf("conflict hooks should be empty, got=%+v", hooks.Conflicts)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeRetryable) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})
}

func TestExecuteWriteCountsAdvanceConflict(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, domainagg.RadarEditionAggregateContract, "Radar.Edition.Publish", func(_ dbctx.Context) error {
		return AdvanceConflictError("edition is not a draft")
	})
	if !domainagg.IsCode(err, domainagg.CodeAdvanceConflict) {
		t.Fatalf("expected advance_conflict code, got=%v", err)
	}
	if len(hooks.Conflicts) != 1 {
		t.Fatalf("conflict hooks: want=1 got=%d", len(hooks.Conflicts))
	}
	if hooks.Operations[0].Status != string(domainagg.CodeAdvanceConflict) {
		t.Fatalf("operation status: want=%s got=%s", domainagg.CodeAdvanceConflict, hooks.Operations[0].Status)
	}
}

func TestExecuteWriteRollsBackOnError(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	deps := BaseDeps{DB: db}

	err := executeWrite(ctx, deps, testContract, "aggregate.test.rollback", func(dbc dbctx.Context) error {
		testutil.SeedEdition(t, dbc.Ctx, dbc.Tx, 2024, 1, types.EditionStatusDraft, nil)
		return InvariantError("abort")
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant code, got=%v", err)
	}
	var count int64
	if err := db.Model(&types.RadarEdition{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled back rows: want=0 got=%d", count)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(InvariantError("x")); got != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("invariant status: got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := aggregateErrorStatus(RetryableError("x")); got != string(domainagg.CodeRetryable) {
		t.Fatalf("retry status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}

func TestExecuteWriteRejectsOpsOutsideContract(t *testing.T) {
	cases := []struct {
		name     string
		contract domainagg.Contract
		op       string
	}{
		{"foreign op", domainagg.FactLogAggregateContract, "Radar.Edition.Publish"},
		{"prefix without separator", testContract, "aggregate.testing"},
		{"caller owned tx", domainagg.Contract{Name: "loose", OpPrefix: "loose"}, "loose.write"},
	}
	for _, tc := range cases {
		hooks := &spyHooks{}
		ran := false
		err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, tc.contract, tc.op, func(_ dbctx.Context) error {
			ran = true
			return nil
		})
		if !domainagg.IsCode(err, domainagg.CodeInternal) {
			t.Fatalf("%s: want=internal got=%v", tc.name, err)
		}
		if ran {
			t.Fatalf("%s: write ran despite contract guard", tc.name)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeInternal) {
			t.Fatalf("%s: operation status: got=%+v", tc.name, hooks.Operations)
		}
	}
}

func TestAggregatesDeclareOwnedWriteContracts(t *testing.T) {
	aggs := []domainagg.Aggregate{
		NewRadarEditionAggregate(RadarEditionAggregateDeps{}),
		NewFactLogAggregate(FactLogAggregateDeps{}),
	}
	ops := [][]string{
		{"Radar.Edition.CreateDraft", "Radar.Edition.Publish", "Radar.Edition.UpdateSummary", "Radar.Edition.DeleteDraft"},
		{"Radar.FactLog.AppendClassification", "Radar.FactLog.AppendScore"},
	}
	for i, agg := range aggs {
		c := agg.Contract()
		if !c.RequiresAggregateOwnedTx() {
			t.Fatalf("%s: want aggregate-owned transactions", c.Name)
		}
		if c.ReadPolicy != domainagg.ReadPolicyInvariantScoped {
			t.Fatalf("%s: read policy: want=%s got=%s", c.Name, domainagg.ReadPolicyInvariantScoped, c.ReadPolicy)
		}
		for _, op := range ops[i] {
			if err := c.Guard(op); err != nil {
				t.Fatalf("%s: Guard(%s): %v", c.Name, op, err)
			}
		}
	}
}
