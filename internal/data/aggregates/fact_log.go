package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/temporal"
)

type FactLogAggregateDeps struct {
	Base BaseDeps

	Projects        repos.ProjectRepo
	Classifications repos.ClassificationRepo
	Scores          repos.ScoreRepo
}

type factLogAggregate struct {
	deps FactLogAggregateDeps
}

func NewFactLogAggregate(deps FactLogAggregateDeps) domainagg.FactLogAggregate {
	deps.Base = deps.Base.withDefaults()
	return &factLogAggregate{deps: deps}
}

func (a *factLogAggregate) Contract() domainagg.Contract {
	return domainagg.FactLogAggregateContract
}

func (a *factLogAggregate) AppendClassification(ctx context.Context, fact *types.ClassificationFact) (*types.ClassificationFact, error) {
	const op = "Radar.FactLog.AppendClassification"
	if fact == nil || fact.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if strings.TrimSpace(fact.Term) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing term", nil)
	}
	if fact.EffectiveDate.IsZero() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing effective_date", nil)
	}
	if a.deps.Projects == nil || a.deps.Classifications == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "fact log repos not configured", nil)
	}

	row := *fact
	row.Term = strings.TrimSpace(row.Term)
	row.EffectiveDate = temporal.Normalize(row.EffectiveDate)
	err := a.appendFact(ctx, op, row.ProjectID, &row, a.deps.Classifications.MaxSeq, func(dbc dbctx.Context) error {
		return a.deps.Classifications.Create(dbc, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (a *factLogAggregate) AppendScore(ctx context.Context, fact *types.ScoreFact) (*types.ScoreFact, error) {
	const op = "Radar.FactLog.AppendScore"
	if fact == nil || fact.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if fact.ScoringDate.IsZero() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing scoring_date", nil)
	}
	if a.deps.Projects == nil || a.deps.Scores == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "fact log repos not configured", nil)
	}

	row := *fact
	row.ScoringDate = temporal.Normalize(row.ScoringDate)
	err := a.appendFact(ctx, op, row.ProjectID, &row, a.deps.Scores.MaxSeq, func(dbc dbctx.Context) error {
		return a.deps.Scores.Create(dbc, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

type sequencedFact interface {
	SetSeq(seq int64)
}

// appendFact assigns the next per-project seq and inserts inside one
// transaction. Two appenders racing on a project collide on the unique
// (project_id, seq) index; the loser gets CodeConflict and may retry.
func (a *factLogAggregate) appendFact(
	ctx context.Context,
	op string,
	projectID uuid.UUID,
	row sequencedFact,
	maxSeq func(dbc dbctx.Context, projectID uuid.UUID) (int64, error),
	insert func(dbc dbctx.Context) error,
) error {
	now := a.deps.Base.now()
	switch f := row.(type) {
	case *types.ClassificationFact:
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.CreatedAt = now
	case *types.ScoreFact:
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.CreatedAt = now
	}
	return executeWrite(ctx, a.deps.Base, a.Contract(), op, func(dbc dbctx.Context) error {
		ok, err := a.deps.Projects.Exists(dbc, projectID)
		if err != nil {
			return err
		}
		if !ok {
			return UnknownProjectError(fmt.Sprintf("project not found: %s", projectID))
		}
		max, err := maxSeq(dbc, projectID)
		if err != nil {
			return err
		}
		row.SetSeq(max + 1)
		if err := insert(dbc); err != nil {
			if IsUniqueViolation(err) {
				return ConflictError("concurrent append on project")
			}
			return err
		}
		return nil
	})
}
