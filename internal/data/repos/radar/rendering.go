package radar

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type RenderingRepo interface {
	// Create inserts a rendering. A second rendering for the same edition fails
	// on the unique edition index.
	Create(dbc dbctx.Context, rendering *types.RadarRendering) error
	GetByEditionID(dbc dbctx.Context, editionID uuid.UUID) (*types.RadarRendering, error)
}

type renderingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRenderingRepo(db *gorm.DB, baseLog *logger.Logger) RenderingRepo {
	return &renderingRepo{db: db, log: baseLog.With("repo", "RenderingRepo")}
}

func (r *renderingRepo) Create(dbc dbctx.Context, rendering *types.RadarRendering) error {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(dbc.Ctx).Create(rendering).Error
}

func (r *renderingRepo) GetByEditionID(dbc dbctx.Context, editionID uuid.UUID) (*types.RadarRendering, error) {
	if editionID == uuid.Nil {
		return nil, nil
	}
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	var rows []*types.RadarRendering
	if err := tx.WithContext(dbc.Ctx).Where("edition_id = ?", editionID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
