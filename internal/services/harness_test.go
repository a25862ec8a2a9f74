package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	aggtest "github.com/yungbote/project-radar/internal/data/aggregates/testutil"
	"github.com/yungbote/project-radar/internal/data/repos"
	repotest "github.com/yungbote/project-radar/internal/data/repos/testutil"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/lock"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/radar/render"
	"github.com/yungbote/project-radar/internal/radar/vocab"
)

type harness struct {
	ctx    context.Context
	db     *gorm.DB
	set    repos.Set
	cfg    *vocab.Config
	cache  cache.Cache
	locker lock.Locker
	runner *aggtest.InjectedTxRunner
	hooks  *aggtest.HooksRecorder
	now    time.Time

	sequence SequenceService
	facts    FactService
	radar    RadarService
	projects ProjectService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ctx:    context.Background(),
		db:     repotest.DB(t),
		cache:  cache.NewMemory(time.Minute),
		locker: lock.NewMemory(),
		hooks:  &aggtest.HooksRecorder{},
		now:    repotest.Date(2024, time.June, 1),
	}
	log := repotest.Logger(t)
	cfg, err := vocab.Default()
	if err != nil {
		t.Fatalf("vocab.Default: %v", err)
	}
	h.cfg = cfg
	h.set = repos.NewSet(h.db, log)
	h.runner = &aggtest.InjectedTxRunner{Delegate: aggregates.NewGormTxRunner(h.db)}
	base := aggregates.BaseDeps{
		DB:     h.db,
		Log:    log,
		Runner: h.runner,
		Hooks:  h.hooks,
		Now:    func() time.Time { return h.now },
	}
	renderer, err := render.New(cfg, render.Options{Size: 240})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	h.sequence = NewSequenceService(log, h.set.Sequence, nil, SequenceOptions{})
	factAgg := aggregates.NewFactLogAggregate(aggregates.FactLogAggregateDeps{
		Base:            base,
		Projects:        h.set.Projects,
		Classifications: h.set.Classification,
		Scores:          h.set.Score,
	})
	h.facts = NewFactService(log, cfg, factAgg, h.set.Projects, h.set.Classification, h.set.Score, h.set.Editions, h.cache, nil)
	editionAgg := aggregates.NewRadarEditionAggregate(aggregates.RadarEditionAggregateDeps{
		Base:       base,
		Editions:   h.set.Editions,
		Renderings: h.set.Renderings,
	})
	h.radar = NewRadarService(log, cfg, editionAgg, h.set, renderer, h.cache, h.locker, nil, RadarOptions{
		Now: func() time.Time { return h.now },
	})
	ps := NewProjectService(log, aggregates.NewGormTxRunner(h.db), h.sequence, h.set, h.cache).(*projectService)
	ps.now = func() time.Time { return h.now }
	h.projects = ps
	return h
}

func (h *harness) project(t *testing.T, name string, start *time.Time) *types.Project {
	t.Helper()
	p, err := h.projects.Create(h.ctx, ProjectInput{Name: name, RCN: "RCN-" + name, Budget: 1_000_000, StartDate: start})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func (h *harness) classify(t *testing.T, p *types.Project, term string, at time.Time) {
	t.Helper()
	if _, err := h.facts.AppendClassification(h.ctx, p.ExternalID, ClassificationInput{Term: term, EffectiveDate: at}); err != nil {
		t.Fatalf("classify %d: %v", p.ExternalID, err)
	}
}

func (h *harness) score(t *testing.T, p *types.Project, mrl, trl int, at time.Time) {
	t.Helper()
	if _, err := h.facts.AppendScore(h.ctx, p.ExternalID, ScoreInput{MRL: mrl, TRL: trl, ScoringDate: at}); err != nil {
		t.Fatalf("score %d: %v", p.ExternalID, err)
	}
}

func (h *harness) draft(t *testing.T, year, release int) *types.RadarEdition {
	t.Helper()
	e, err := h.radar.CreateEdition(h.ctx, EditionInput{Year: year, Release: release})
	if err != nil {
		t.Fatalf("create edition %d-%d: %v", year, release, err)
	}
	return e
}
