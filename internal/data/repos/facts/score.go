package facts

import (
	"iter"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type ScoreRepo interface {
	Create(dbc dbctx.Context, fact *types.ScoreFact) error
	MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	// LatestAsOf returns nil when the project had no score at asOf.
	LatestAsOf(dbc dbctx.Context, projectID uuid.UUID, asOf time.Time) (*types.ScoreFact, error)
	History(dbc dbctx.Context, projectID uuid.UUID) iter.Seq2[*types.ScoreFact, error]
}

type scoreRepo struct {
	store store[types.ScoreFact, *types.ScoreFact]
	log   *logger.Logger
}

func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
	return newScoreRepo(db, baseLog, defaultPageSize)
}

func newScoreRepo(db *gorm.DB, baseLog *logger.Logger, pageSize int) *scoreRepo {
	return &scoreRepo{
		store: store[types.ScoreFact, *types.ScoreFact]{db: db, dateCol: "scoring_date", pageSize: pageSize},
		log:   baseLog.With("repo", "ScoreRepo"),
	}
}

func (r *scoreRepo) Create(dbc dbctx.Context, fact *types.ScoreFact) error {
	return r.store.create(dbc, fact)
}

func (r *scoreRepo) MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return r.store.maxSeq(dbc, projectID)
}

func (r *scoreRepo) LatestAsOf(dbc dbctx.Context, projectID uuid.UUID, asOf time.Time) (*types.ScoreFact, error) {
	return r.store.latestAsOf(dbc, projectID, asOf)
}

func (r *scoreRepo) History(dbc dbctx.Context, projectID uuid.UUID) iter.Seq2[*types.ScoreFact, error] {
	return r.store.history(dbc, projectID)
}
