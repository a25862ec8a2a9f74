package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/radar/layout"
)

const DefaultSnapshotConcurrency = 8

// Snapshot is every active project's state at a cutoff. Projects missing a
// classification or a score are listed in Unplaced instead of Entries.
type Snapshot struct {
	Cutoff   time.Time
	Entries  []layout.Entry
	Unplaced []types.UnplacedProject
}

type snapshotter struct {
	projects        repos.ProjectRepo
	classifications repos.ClassificationRepo
	scores          repos.ScoreRepo
	limit           int
}

func newSnapshotter(projects repos.ProjectRepo, classifications repos.ClassificationRepo, scores repos.ScoreRepo, limit int) *snapshotter {
	if limit <= 0 {
		limit = DefaultSnapshotConcurrency
	}
	return &snapshotter{projects: projects, classifications: classifications, scores: scores, limit: limit}
}

type resolved struct {
	classification *types.ClassificationFact
	score          *types.ScoreFact
}

func (s *snapshotter) take(ctx context.Context, cutoff time.Time) (Snapshot, error) {
	active, err := s.projects.ListActiveAt(dbctx.Background(ctx), cutoff)
	if err != nil {
		return Snapshot{}, err
	}

	results := make([]resolved, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, p := range active {
		g.Go(func() error {
			dbc := dbctx.Background(gctx)
			c, err := s.classifications.LatestAsOf(dbc, p.ID, cutoff)
			if err != nil {
				return err
			}
			sc, err := s.scores.LatestAsOf(dbc, p.ID, cutoff)
			if err != nil {
				return err
			}
			results[i] = resolved{classification: c, score: sc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Cutoff: cutoff, Entries: make([]layout.Entry, 0, len(active)), Unplaced: []types.UnplacedProject{}}
	for i, p := range active {
		r := results[i]
		switch {
		case r.classification == nil:
			snap.Unplaced = append(snap.Unplaced, unplacedProject(p, types.UnplacedUnclassified))
		case r.score == nil:
			snap.Unplaced = append(snap.Unplaced, unplacedProject(p, types.UnplacedUnscored))
		default:
			snap.Entries = append(snap.Entries, layout.Entry{
				ProjectID:  p.ID,
				ExternalID: p.ExternalID,
				Name:       p.Name,
				Term:       r.classification.Term,
				MRL:        r.score.MRL,
				TRL:        r.score.TRL,
			})
		}
	}
	return snap, nil
}

func unplacedProject(p *types.Project, reason string) types.UnplacedProject {
	return types.UnplacedProject{ProjectID: p.ID, ExternalID: p.ExternalID, Name: p.Name, Reason: reason}
}
