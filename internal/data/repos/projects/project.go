package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, rows []*types.Project) ([]*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	GetByExternalID(dbc dbctx.Context, externalID int64) (*types.Project, error)
	GetByExternalIDs(dbc dbctx.Context, externalIDs []int64) ([]*types.Project, error)
	Exists(dbc dbctx.Context, id uuid.UUID) (bool, error)
	// List returns every non-deleted project ordered by external id.
	List(dbc dbctx.Context) ([]*types.Project, error)
	// ListActiveAt returns projects started by t (or without a start date).
	ListActiveAt(dbc dbctx.Context, t time.Time) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	Stats(dbc dbctx.Context) (Stats, error)
}

// Stats aggregates the non-deleted portfolio.
type Stats struct {
	Count         int64
	TotalBudget   float64
	DistinctCalls int64
	FirstStart    *time.Time
	LastEnd       *time.Time
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *projectRepo) Create(dbc dbctx.Context, rows []*types.Project) ([]*types.Project, error) {
	if len(rows) == 0 {
		return []*types.Project{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Project
	if err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *projectRepo) GetByExternalID(dbc dbctx.Context, externalID int64) (*types.Project, error) {
	rows, err := r.GetByExternalIDs(dbc, []int64{externalID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *projectRepo) GetByExternalIDs(dbc dbctx.Context, externalIDs []int64) ([]*types.Project, error) {
	out := []*types.Project{}
	if len(externalIDs) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("external_id IN ?", externalIDs).
		Order("external_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) Exists(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *projectRepo) List(dbc dbctx.Context) ([]*types.Project, error) {
	out := []*types.Project{}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Order("external_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) ListActiveAt(dbc dbctx.Context, t time.Time) ([]*types.Project, error) {
	out := []*types.Project{}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("start_date IS NULL OR start_date <= ?", t.UTC().Truncate(time.Second)).
		Order("external_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *projectRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Project{}).Error
}

func (r *projectRepo) Stats(dbc dbctx.Context) (Stats, error) {
	var out Stats
	db := r.tx(dbc).WithContext(dbc.Ctx)

	if err := db.Model(&types.Project{}).Count(&out.Count).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&types.Project{}).Select("COALESCE(SUM(budget), 0)").Scan(&out.TotalBudget).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&types.Project{}).
		Where("funding_call <> ''").
		Distinct("funding_call").
		Count(&out.DistinctCalls).Error; err != nil {
		return Stats{}, err
	}

	// Typed rows keep driver-specific date scanning out of aggregate selects.
	var first []*types.Project
	if err := db.Where("start_date IS NOT NULL").Order("start_date ASC").Limit(1).Find(&first).Error; err != nil {
		return Stats{}, err
	}
	if len(first) == 1 {
		out.FirstStart = first[0].StartDate
	}
	var last []*types.Project
	if err := db.Where("end_date IS NOT NULL").Order("end_date DESC").Limit(1).Find(&last).Error; err != nil {
		return Stats{}, err
	}
	if len(last) == 1 {
		out.LastEnd = last[0].EndDate
	}
	return out, nil
}
