package sequence

import (
	"context"
	"testing"

	"github.com/yungbote/project-radar/internal/data/repos/testutil"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
)

func TestSequenceRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewSequenceRepo(db, testutil.Logger(t))

	if _, ok, err := repo.Get(dbc, "project"); err != nil || ok {
		t.Fatalf("Get before Ensure: ok=%v err=%v", ok, err)
	}
	if err := repo.Ensure(dbc, "project"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := repo.Ensure(dbc, "project"); err != nil {
		t.Fatalf("Ensure twice: %v", err)
	}
	v, ok, err := repo.Get(dbc, "project")
	if err != nil || !ok || v != 0 {
		t.Fatalf("Get: want=0 got=%d ok=%v err=%v", v, ok, err)
	}

	won, err := repo.CompareAndSwap(dbc, "project", 0, 1)
	if err != nil || !won {
		t.Fatalf("CompareAndSwap 0->1: won=%v err=%v", won, err)
	}
	won, err = repo.CompareAndSwap(dbc, "project", 0, 1)
	if err != nil || won {
		t.Fatalf("stale CompareAndSwap: want lost, won=%v err=%v", won, err)
	}
	if v, _, _ := repo.Get(dbc, "project"); v != 1 {
		t.Fatalf("value: want=1 got=%d", v)
	}
	if err := repo.Ensure(dbc, "project"); err != nil {
		t.Fatalf("Ensure after use: %v", err)
	}
	if v, _, _ := repo.Get(dbc, "project"); v != 1 {
		t.Fatalf("Ensure must not reset: want=1 got=%d", v)
	}
}
