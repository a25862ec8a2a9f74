package services

import (
	"sync"
	"testing"
	"time"

	repotest "github.com/yungbote/project-radar/internal/data/repos/testutil"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
)

func TestResolveClassificationPointInTime(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	h.classify(t, p, "robotics", repotest.Date(2021, time.January, 10))
	h.classify(t, p, "digital-twin", repotest.Date(2021, time.June, 1))

	cases := []struct {
		asOf time.Time
		want string
	}{
		{repotest.Date(2021, time.January, 9), ""},
		{repotest.Date(2021, time.January, 10), "robotics"},
		{repotest.Date(2021, time.May, 31), "robotics"},
		{repotest.Date(2021, time.June, 1), "digital-twin"},
		{repotest.Date(2030, time.January, 1), "digital-twin"},
	}
	for _, tc := range cases {
		got, err := h.facts.ResolveClassification(h.ctx, p.ExternalID, tc.asOf)
		if err != nil {
			t.Fatalf("ResolveClassification(%s): %v", tc.asOf.Format(time.DateOnly), err)
		}
		term := ""
		if got != nil {
			term = got.Term
		}
		if term != tc.want {
			t.Fatalf("ResolveClassification(%s): want=%q got=%q", tc.asOf.Format(time.DateOnly), tc.want, term)
		}
	}
}

func TestResolveScoreSameDayTieTakesLastAppended(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	day := repotest.Date(2022, time.March, 3)
	h.score(t, p, 3, 4, day)
	h.score(t, p, 6, 7, day)

	got, err := h.facts.ResolveScore(h.ctx, p.ExternalID, day)
	if err != nil {
		t.Fatalf("ResolveScore: %v", err)
	}
	if got == nil || got.MRL != 6 || got.TRL != 7 {
		t.Fatalf("same-day tie: want=6/7 got=%+v", got)
	}
	unscored, err := h.facts.ResolveScore(h.ctx, p.ExternalID, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("ResolveScore before: %v", err)
	}
	if unscored != nil {
		t.Fatalf("before first score: want=nil got=%+v", unscored)
	}
}

func TestAppendRejectsUnknownProjectAndBadInput(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	at := repotest.Date(2022, time.January, 1)

	_, err := h.facts.AppendClassification(h.ctx, 9999, ClassificationInput{Term: "robotics", EffectiveDate: at})
	if !domainagg.IsCode(err, domainagg.CodeUnknownProject) {
		t.Fatalf("unknown project: want=unknown_project got=%v", err)
	}
	_, err = h.facts.ResolveScore(h.ctx, 9999, at)
	if !domainagg.IsCode(err, domainagg.CodeUnknownProject) {
		t.Fatalf("resolve unknown project: want=unknown_project got=%v", err)
	}
	_, err = h.facts.AppendClassification(h.ctx, p.ExternalID, ClassificationInput{Term: "astrology", EffectiveDate: at})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown term: want=validation got=%v", err)
	}
	_, err = h.facts.AppendClassification(h.ctx, p.ExternalID, ClassificationInput{Term: "robotics"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing date: want=validation got=%v", err)
	}
	_, err = h.facts.AppendScore(h.ctx, p.ExternalID, ScoreInput{MRL: 0, TRL: 10, ScoringDate: at})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("out of bounds score: want=validation got=%v", err)
	}
}

func TestConcurrentAppendsOnOneProjectAllLand(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	day := repotest.Date(2022, time.March, 3)
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(mrl int) {
			defer wg.Done()
			if _, err := h.facts.AppendScore(h.ctx, p.ExternalID, ScoreInput{MRL: mrl, TRL: mrl, ScoringDate: day}); err != nil {
				errs <- err
			}
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AppendScore: %v", err)
	}

	hist, err := h.facts.History(h.ctx, p.ExternalID, day)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.Scores) != writers {
		t.Fatalf("history: want=%d got=%d", writers, len(hist.Scores))
	}
	for i, f := range hist.Scores {
		if f.Seq != int64(i+1) {
			t.Fatalf("seq order: index %d want=%d got=%d", i, i+1, f.Seq)
		}
	}
	last := hist.Scores[len(hist.Scores)-1]
	if hist.CurrentScore == nil || hist.CurrentScore.ID != last.ID {
		t.Fatalf("current score: want=last appended got=%+v", hist.CurrentScore)
	}
}

func TestHistoryMarksFactsInEffect(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	h.classify(t, p, "robotics", repotest.Date(2021, time.January, 1))
	h.classify(t, p, "machining", repotest.Date(2023, time.January, 1))
	h.score(t, p, 2, 2, repotest.Date(2021, time.January, 1))

	hist, err := h.facts.History(h.ctx, p.ExternalID, repotest.Date(2022, time.January, 1))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.Classifications) != 2 {
		t.Fatalf("classifications: want=2 got=%d", len(hist.Classifications))
	}
	if hist.CurrentClassification == nil || hist.CurrentClassification.Term != "robotics" {
		t.Fatalf("current classification: want=robotics got=%+v", hist.CurrentClassification)
	}
	if hist.CurrentScore == nil || hist.CurrentScore.MRL != 2 {
		t.Fatalf("current score: want=mrl 2 got=%+v", hist.CurrentScore)
	}
}

func TestAppendInvalidatesDraftPreviews(t *testing.T) {
	h := newHarness(t)
	p := h.project(t, "alpha", nil)
	draft := h.draft(t, 2024, 1)
	if _, err := h.cache.Put(h.ctx, draft.ID, &types.RadarRendering{Checksum: "stale"}, false); err != nil {
		t.Fatalf("cache put: %v", err)
	}
	h.classify(t, p, "robotics", repotest.Date(2021, time.January, 1))
	if _, ok, err := h.cache.Get(h.ctx, draft.ID); err != nil || ok {
		t.Fatalf("draft entry after append: want=miss got ok=%v err=%v", ok, err)
	}
}
