package radar

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type EditionRepo interface {
	Create(dbc dbctx.Context, edition *types.RadarEdition) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RadarEdition, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.RadarEdition, error)
	GetLive(dbc dbctx.Context) (*types.RadarEdition, error)
	// LockForPublish returns the target and the current live edition with row
	// locks held for the rest of the transaction where the dialect supports it.
	LockForPublish(dbc dbctx.Context, id uuid.UUID) (target *types.RadarEdition, live *types.RadarEdition, err error)
	ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.RadarEdition, error)
	// List orders editions newest year first, then by release.
	List(dbc dbctx.Context) ([]*types.RadarEdition, error)
}

type editionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEditionRepo(db *gorm.DB, baseLog *logger.Logger) EditionRepo {
	return &editionRepo{db: db, log: baseLog.With("repo", "EditionRepo")}
}

func (r *editionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *editionRepo) Create(dbc dbctx.Context, edition *types.RadarEdition) error {
	return r.tx(dbc).WithContext(dbc.Ctx).Create(edition).Error
}

func (r *editionRepo) first(q *gorm.DB) (*types.RadarEdition, error) {
	var rows []*types.RadarEdition
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *editionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RadarEdition, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id))
}

func (r *editionRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.RadarEdition, error) {
	if slug == "" {
		return nil, nil
	}
	return r.first(r.tx(dbc).WithContext(dbc.Ctx).Where("slug = ?", slug))
}

func (r *editionRepo) GetLive(dbc dbctx.Context) (*types.RadarEdition, error) {
	return r.first(r.tx(dbc).WithContext(dbc.Ctx).Where("status = ?", types.EditionStatusLive))
}

func (r *editionRepo) LockForPublish(dbc dbctx.Context, id uuid.UUID) (*types.RadarEdition, *types.RadarEdition, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx)
	// sqlite serializes writers on its own and has no FOR UPDATE.
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []*types.RadarEdition
	if err := q.Where("id = ? OR status = ?", id, types.EditionStatusLive).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	var target, live *types.RadarEdition
	for _, row := range rows {
		if row.ID == id {
			target = row
		}
		if row.Status == types.EditionStatusLive {
			live = row
		}
	}
	return target, live, nil
}

func (r *editionRepo) ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.RadarEdition, error) {
	out := []*types.RadarEdition{}
	if len(statuses) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("status IN ?", statuses).
		Order("year DESC").
		Order("release_no ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *editionRepo) List(dbc dbctx.Context) ([]*types.RadarEdition, error) {
	out := []*types.RadarEdition{}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Order("year DESC").
		Order("release_no ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
