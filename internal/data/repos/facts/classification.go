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

type ClassificationRepo interface {
	Create(dbc dbctx.Context, fact *types.ClassificationFact) error
	MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	// LatestAsOf returns nil when the project had no classification at asOf.
	LatestAsOf(dbc dbctx.Context, projectID uuid.UUID, asOf time.Time) (*types.ClassificationFact, error)
	History(dbc dbctx.Context, projectID uuid.UUID) iter.Seq2[*types.ClassificationFact, error]
}

type classificationRepo struct {
	store store[types.ClassificationFact, *types.ClassificationFact]
	log   *logger.Logger
}

func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	return newClassificationRepo(db, baseLog, defaultPageSize)
}

func newClassificationRepo(db *gorm.DB, baseLog *logger.Logger, pageSize int) *classificationRepo {
	return &classificationRepo{
		store: store[types.ClassificationFact, *types.ClassificationFact]{db: db, dateCol: "effective_date", pageSize: pageSize},
		log:   baseLog.With("repo", "ClassificationRepo"),
	}
}

func (r *classificationRepo) Create(dbc dbctx.Context, fact *types.ClassificationFact) error {
	return r.store.create(dbc, fact)
}

func (r *classificationRepo) MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return r.store.maxSeq(dbc, projectID)
}

func (r *classificationRepo) LatestAsOf(dbc dbctx.Context, projectID uuid.UUID, asOf time.Time) (*types.ClassificationFact, error) {
	return r.store.latestAsOf(dbc, projectID, asOf)
}

func (r *classificationRepo) History(dbc dbctx.Context, projectID uuid.UUID) iter.Seq2[*types.ClassificationFact, error] {
	return r.store.history(dbc, projectID)
}
