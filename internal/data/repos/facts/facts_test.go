package facts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/project-radar/internal/data/repos/testutil"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/temporal"
)

func TestClassificationRepoHistoryAndLatest(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := newClassificationRepo(db, testutil.Logger(t), 2)

	p := testutil.SeedProject(t, ctx, db, 1)
	other := testutil.SeedProject(t, ctx, db, 2)

	testutil.SeedClassification(t, ctx, db, p.ID, "robotics", testutil.Date(2021, 1, 1), 1)
	testutil.SeedClassification(t, ctx, db, p.ID, "composites", testutil.Date(2022, 6, 1), 2)
	testutil.SeedClassification(t, ctx, db, p.ID, "coatings", testutil.Date(2022, 6, 1), 3)
	// Appended late but dated earlier: sorts before the 2022 facts.
	testutil.SeedClassification(t, ctx, db, p.ID, "machining", testutil.Date(2021, 3, 1), 4)
	testutil.SeedClassification(t, ctx, db, p.ID, "assembly", testutil.Date(2023, 1, 1), 5)
	testutil.SeedClassification(t, ctx, db, other.ID, "alloys", testutil.Date(2020, 1, 1), 1)

	var terms []string
	for f, err := range repo.History(dbc, p.ID) {
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		terms = append(terms, f.Term)
	}
	want := []string{"robotics", "machining", "composites", "coatings", "assembly"}
	if len(terms) != len(want) {
		t.Fatalf("History len: want=%d got=%d (%v)", len(want), len(terms), terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Fatalf("History[%d]: want=%s got=%s", i, want[i], terms[i])
		}
	}

	// Restartable: a second range yields the same log.
	n := 0
	for _, err := range repo.History(dbc, p.ID) {
		if err != nil {
			t.Fatalf("History rerun: %v", err)
		}
		n++
	}
	if n != len(want) {
		t.Fatalf("History rerun len: want=%d got=%d", len(want), n)
	}

	if max, err := repo.MaxSeq(dbc, p.ID); err != nil || max != 5 {
		t.Fatalf("MaxSeq: want=5 got=%d err=%v", max, err)
	}
	if max, err := repo.MaxSeq(dbc, uuid.New()); err != nil || max != 0 {
		t.Fatalf("MaxSeq empty: want=0 got=%d err=%v", max, err)
	}

	cases := []struct {
		asOf time.Time
		want string
	}{
		{testutil.Date(2020, 12, 31), ""},
		{testutil.Date(2021, 1, 1), "robotics"},
		{testutil.Date(2021, 6, 1), "machining"},
		{testutil.Date(2022, 6, 1), "coatings"},
		{testutil.Date(2022, 12, 31), "coatings"},
		{testutil.Date(2030, 1, 1), "assembly"},
	}
	for _, tc := range cases {
		got, err := repo.LatestAsOf(dbc, p.ID, tc.asOf)
		if err != nil {
			t.Fatalf("LatestAsOf(%s): %v", tc.asOf.Format("2006-01-02"), err)
		}
		gotTerm := ""
		if got != nil {
			gotTerm = got.Term
		}
		if gotTerm != tc.want {
			t.Fatalf("LatestAsOf(%s): want=%q got=%q", tc.asOf.Format("2006-01-02"), tc.want, gotTerm)
		}

		resolved, ok, err := temporal.ResolveSeq(repo.History(dbc, p.ID), tc.asOf)
		if err != nil {
			t.Fatalf("ResolveSeq: %v", err)
		}
		resolvedTerm := ""
		if ok {
			resolvedTerm = resolved.Term
		}
		if resolvedTerm != gotTerm {
			t.Fatalf("resolver disagrees at %s: sql=%q resolver=%q", tc.asOf.Format("2006-01-02"), gotTerm, resolvedTerm)
		}
	}
}

func TestScoreRepoUniqueSeq(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewScoreRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, 7)
	first := &types.ScoreFact{ID: uuid.New(), ProjectID: p.ID, MRL: 4, TRL: 5, ScoringDate: testutil.Date(2022, 1, 1), Seq: 1, CreatedAt: time.Now().UTC()}
	if err := repo.Create(dbc, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &types.ScoreFact{ID: uuid.New(), ProjectID: p.ID, MRL: 6, TRL: 6, ScoringDate: testutil.Date(2022, 2, 1), Seq: 1, CreatedAt: time.Now().UTC()}
	if err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("Create duplicate seq: expected unique violation")
	}

	got, err := repo.LatestAsOf(dbc, p.ID, testutil.Date(2023, 1, 1))
	if err != nil || got == nil {
		t.Fatalf("LatestAsOf: got=%v err=%v", got, err)
	}
	if got.MRL != 4 || got.TRL != 5 {
		t.Fatalf("LatestAsOf: want=4/5 got=%d/%d", got.MRL, got.TRL)
	}
}

func TestHistoryYieldsQueryError(t *testing.T) {
	db := testutil.DB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewScoreRepo(db, testutil.Logger(t))

	var gotErr error
	for _, err := range repo.History(dbctx.Context{Ctx: ctx}, uuid.New()) {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Fatalf("History on canceled ctx: want=%v got=%v", context.Canceled, gotErr)
	}
}

func TestScoreRepoLatestAsOfBreaksTiesBySeq(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewScoreRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, 11)
	testutil.SeedScore(t, ctx, db, p.ID, 3, 4, testutil.Date(2022, 5, 1), 1)
	testutil.SeedScore(t, ctx, db, p.ID, 5, 5, testutil.Date(2022, 5, 1), 2)
	testutil.SeedScore(t, ctx, db, p.ID, 8, 8, testutil.Date(2023, 5, 1), 3)

	got, err := repo.LatestAsOf(dbc, p.ID, testutil.Date(2022, 12, 31))
	if err != nil || got == nil {
		t.Fatalf("LatestAsOf: got=%v err=%v", got, err)
	}
	if got.Seq != 2 {
		t.Fatalf("LatestAsOf seq: want=2 got=%d", got.Seq)
	}
	none, err := repo.LatestAsOf(dbc, p.ID, testutil.Date(2022, 4, 30))
	if err != nil {
		t.Fatalf("LatestAsOf before first: %v", err)
	}
	if none != nil {
		t.Fatalf("LatestAsOf before first: want=nil got=%+v", none)
	}
}
