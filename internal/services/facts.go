package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/platform/retry"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/radar/vocab"
	"github.com/yungbote/project-radar/internal/temporal"
)

const (
	factAppendAttempts  = 8
	factAppendBaseDelay = 5 * time.Millisecond
	factAppendMaxDelay  = 200 * time.Millisecond
)

// FactService records and resolves classification and score facts by a
// project's external id.
type FactService interface {
	AppendClassification(ctx context.Context, externalID int64, in ClassificationInput) (*types.ClassificationFact, error)
	AppendScore(ctx context.Context, externalID int64, in ScoreInput) (*types.ScoreFact, error)

	// ResolveClassification returns nil when the project was unclassified at asOf.
	ResolveClassification(ctx context.Context, externalID int64, asOf time.Time) (*types.ClassificationFact, error)
	// ResolveScore returns nil when the project was unscored at asOf.
	ResolveScore(ctx context.Context, externalID int64, asOf time.Time) (*types.ScoreFact, error)

	History(ctx context.Context, externalID int64, asOf time.Time) (*ProjectHistory, error)
}

// ProjectHistory lists both fact logs oldest first, with the facts in effect at AsOf.
type ProjectHistory struct {
	Project               *types.Project              `json:"project"`
	AsOf                  time.Time                   `json:"as_of"`
	Classifications       []*types.ClassificationFact `json:"classifications"`
	Scores                []*types.ScoreFact          `json:"scores"`
	CurrentClassification *types.ClassificationFact   `json:"current_classification"`
	CurrentScore          *types.ScoreFact            `json:"current_score"`
}

type factService struct {
	log             *logger.Logger
	vocab           *vocab.Config
	agg             domainagg.FactLogAggregate
	projects        repos.ProjectRepo
	classifications repos.ClassificationRepo
	scores          repos.ScoreRepo
	editions        repos.EditionRepo
	cache           cache.Cache
	metrics         *observability.Metrics
}

func NewFactService(
	log *logger.Logger,
	cfg *vocab.Config,
	agg domainagg.FactLogAggregate,
	projects repos.ProjectRepo,
	classifications repos.ClassificationRepo,
	scores repos.ScoreRepo,
	editions repos.EditionRepo,
	c cache.Cache,
	metrics *observability.Metrics,
) FactService {
	return &factService{
		log:             log.With("service", "FactService"),
		vocab:           cfg,
		agg:             agg,
		projects:        projects,
		classifications: classifications,
		scores:          scores,
		editions:        editions,
		cache:           c,
		metrics:         metrics,
	}
}

func (s *factService) AppendClassification(ctx context.Context, externalID int64, in ClassificationInput) (*types.ClassificationFact, error) {
	const op = "Radar.Facts.AppendClassification"
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	term := strings.TrimSpace(in.Term)
	if !s.vocab.HasTerm(term) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown taxonomy term "+term, nil)
	}
	projectID, err := s.projectID(ctx, op, externalID)
	if err != nil {
		return nil, err
	}

	var out *types.ClassificationFact
	err = s.withConflictRetry(ctx, op, func() error {
		fact := &types.ClassificationFact{
			ProjectID:     projectID,
			Term:          term,
			ClassifiedBy:  strings.TrimSpace(in.ClassifiedBy),
			ChangeSummary: strings.TrimSpace(in.ChangeSummary),
			EffectiveDate: in.EffectiveDate,
		}
		var aerr error
		out, aerr = s.agg.AppendClassification(ctx, fact)
		return aerr
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncFactAppend("classification")
	s.log.Info("classification appended", "cw_id", externalID, "term", out.Term, "seq", out.Seq, "classified_by", out.ClassifiedBy)
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	return out, nil
}

func (s *factService) AppendScore(ctx context.Context, externalID int64, in ScoreInput) (*types.ScoreFact, error) {
	const op = "Radar.Facts.AppendScore"
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if !s.vocab.ValidScore(in.MRL) || !s.vocab.ValidScore(in.TRL) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "mrl/trl outside configured bounds", nil)
	}
	projectID, err := s.projectID(ctx, op, externalID)
	if err != nil {
		return nil, err
	}

	var out *types.ScoreFact
	err = s.withConflictRetry(ctx, op, func() error {
		fact := &types.ScoreFact{
			ProjectID:   projectID,
			MRL:         in.MRL,
			TRL:         in.TRL,
			ScoredBy:    strings.TrimSpace(in.ScoredBy),
			Description: strings.TrimSpace(in.Description),
			ScoringDate: in.ScoringDate,
		}
		var aerr error
		out, aerr = s.agg.AppendScore(ctx, fact)
		return aerr
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncFactAppend("score")
	s.log.Info("score appended", "cw_id", externalID, "mrl", out.MRL, "trl", out.TRL, "seq", out.Seq, "scored_by", out.ScoredBy)
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	return out, nil
}

// withConflictRetry re-runs fn while a concurrent same-project append wins the seq.
func (s *factService) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < factAppendAttempts; attempt++ {
		err = fn()
		if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
			return err
		}
		if serr := retry.Sleep(ctx, retry.Backoff(attempt, factAppendBaseDelay, factAppendMaxDelay)); serr != nil {
			return aggregates.MapError(op, serr)
		}
	}
	return domainagg.NewError(domainagg.CodeRetryable, op, "append kept conflicting", err)
}

func (s *factService) ResolveClassification(ctx context.Context, externalID int64, asOf time.Time) (*types.ClassificationFact, error) {
	const op = "Radar.Facts.ResolveClassification"
	projectID, err := s.projectID(ctx, op, externalID)
	if err != nil {
		return nil, err
	}
	fact, err := s.classifications.LatestAsOf(dbctx.Background(ctx), projectID, asOf)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return fact, nil
}

func (s *factService) ResolveScore(ctx context.Context, externalID int64, asOf time.Time) (*types.ScoreFact, error) {
	const op = "Radar.Facts.ResolveScore"
	projectID, err := s.projectID(ctx, op, externalID)
	if err != nil {
		return nil, err
	}
	fact, err := s.scores.LatestAsOf(dbctx.Background(ctx), projectID, asOf)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return fact, nil
}

func (s *factService) History(ctx context.Context, externalID int64, asOf time.Time) (*ProjectHistory, error) {
	const op = "Radar.Facts.History"
	dbc := dbctx.Background(ctx)
	project, err := s.projects.GetByExternalID(dbc, externalID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if project == nil {
		return nil, domainagg.NewError(domainagg.CodeUnknownProject, op, "unknown project", nil)
	}

	out := &ProjectHistory{
		Project:         project,
		AsOf:            temporal.Normalize(asOf),
		Classifications: []*types.ClassificationFact{},
		Scores:          []*types.ScoreFact{},
	}
	for f, err := range s.classifications.History(dbc, project.ID) {
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		out.Classifications = append(out.Classifications, f)
	}
	for f, err := range s.scores.History(dbc, project.ID) {
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		out.Scores = append(out.Scores, f)
	}
	if f, ok := temporal.Resolve(out.Classifications, out.AsOf); ok {
		out.CurrentClassification = f
	}
	if f, ok := temporal.Resolve(out.Scores, out.AsOf); ok {
		out.CurrentScore = f
	}
	return out, nil
}

func (s *factService) projectID(ctx context.Context, op string, externalID int64) (uuid.UUID, error) {
	if externalID <= 0 {
		return uuid.Nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid project id", nil)
	}
	p, err := s.projects.GetByExternalID(dbctx.Background(ctx), externalID)
	if err != nil {
		return uuid.Nil, aggregates.MapError(op, err)
	}
	if p == nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodeUnknownProject, op, "unknown project", nil)
	}
	return p.ID, nil
}
