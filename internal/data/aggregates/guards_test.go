package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/project-radar/internal/data/repos/testutil"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
)

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("draft", "draft", "live"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed("archived", "draft", "live"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestRequireCutoffNotBefore(t *testing.T) {
	live := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := RequireCutoffNotBefore(live, &live); err != nil {
		t.Fatalf("equal cutoff: %v", err)
	}
	if err := RequireCutoffNotBefore(live.AddDate(1, 0, 0), &live); err != nil {
		t.Fatalf("later cutoff: %v", err)
	}
	if err := RequireCutoffNotBefore(live.AddDate(0, 0, -1), &live); !errors.Is(err, ErrInvalidCutoff) {
		t.Fatalf("earlier cutoff: want=%v got=%v", ErrInvalidCutoff, err)
	}
	if err := RequireCutoffNotBefore(live, nil); err != nil {
		t.Fatalf("no live cutoff: %v", err)
	}
}

func TestCASGuardStatusTransitions(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	g := NewCASGuard(db)

	ed := testutil.SeedEdition(t, ctx, db, 2024, 1, types.EditionStatusDraft, nil)
	ok, err := g.UpdateByStatus(dbc, "radar_edition", ed.ID, []string{types.EditionStatusLive}, map[string]any{"summary": "x"})
	if err != nil || ok {
		t.Fatalf("guarded update with wrong status: ok=%v err=%v", ok, err)
	}
	ok, err = g.UpdateByStatus(dbc, "radar_edition", ed.ID, []string{types.EditionStatusDraft}, map[string]any{"summary": "x"})
	if err != nil || !ok {
		t.Fatalf("guarded update: ok=%v err=%v", ok, err)
	}
	ok, err = g.DeleteByStatus(dbc, "radar_edition", ed.ID, []string{types.EditionStatusLive})
	if err != nil || ok {
		t.Fatalf("guarded delete with wrong status: ok=%v err=%v", ok, err)
	}
	ok, err = g.DeleteByStatus(dbc, "radar_edition", ed.ID, []string{types.EditionStatusDraft})
	if err != nil || !ok {
		t.Fatalf("guarded delete: ok=%v err=%v", ok, err)
	}
}
