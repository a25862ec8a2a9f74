package sequence

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type SequenceRepo interface {
	// Ensure creates the counter at zero if it does not exist yet.
	Ensure(dbc dbctx.Context, name string) error
	Get(dbc dbctx.Context, name string) (int64, bool, error)
	// CompareAndSwap moves the counter from expected to next and reports whether
	// this caller won.
	CompareAndSwap(dbc dbctx.Context, name string, expected, next int64) (bool, error)
}

type sequenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	return &sequenceRepo{db: db, log: baseLog.With("repo", "SequenceRepo")}
}

func (r *sequenceRepo) Ensure(dbc dbctx.Context, name string) error {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	row := &types.SequenceCounter{Name: name, Value: 0, UpdatedAt: time.Now().UTC()}
	return tx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *sequenceRepo) Get(dbc dbctx.Context, name string) (int64, bool, error) {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	var row types.SequenceCounter
	err := tx.WithContext(dbc.Ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.Value, true, nil
}

func (r *sequenceRepo) CompareAndSwap(dbc dbctx.Context, name string, expected, next int64) (bool, error) {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(dbc.Ctx).
		Model(&types.SequenceCounter{}).
		Where("name = ? AND value = ?", name, expected).
		Updates(map[string]any{"value": next, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
