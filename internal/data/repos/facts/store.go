// Package facts stores the append-only classification and score logs.
package facts

import (
	"iter"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/temporal"
)

const defaultPageSize = 200

type factPtr[T any] interface {
	*T
	temporal.Fact
}

// store implements the shared queries for one fact table. dateCol is the
// column that carries the fact's effective date.
type store[T any, P factPtr[T]] struct {
	db       *gorm.DB
	dateCol  string
	pageSize int
}

func (s store[T, P]) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return s.db
}

func (s store[T, P]) create(dbc dbctx.Context, row P) error {
	return s.tx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (s store[T, P]) maxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	var max int64
	err := s.tx(dbc).WithContext(dbc.Ctx).
		Model(new(T)).
		Select("COALESCE(MAX(seq), 0)").
		Where("project_id = ?", projectID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (s store[T, P]) latestAsOf(dbc dbctx.Context, projectID uuid.UUID, asOf time.Time) (P, error) {
	var rows []*T
	err := s.tx(dbc).WithContext(dbc.Ctx).
		Where("project_id = ? AND "+s.dateCol+" <= ?", projectID, temporal.Normalize(asOf)).
		Order(s.dateCol + " DESC").
		Order("seq DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return P(rows[0]), nil
}

// history pages through the log oldest first using a (date, seq) keyset. Each
// range over the result starts a fresh scan.
func (s store[T, P]) history(dbc dbctx.Context, projectID uuid.UUID) iter.Seq2[P, error] {
	pageSize := s.pageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return func(yield func(P, error) bool) {
		var (
			cursorSet  bool
			cursorDate time.Time
			cursorSeq  int64
		)
		for {
			q := s.tx(dbc).WithContext(dbc.Ctx).Where("project_id = ?", projectID)
			if cursorSet {
				q = q.Where("("+s.dateCol+" > ?) OR ("+s.dateCol+" = ? AND seq > ?)", cursorDate, cursorDate, cursorSeq)
			}
			var rows []*T
			if err := q.Order(s.dateCol + " ASC").Order("seq ASC").Limit(pageSize).Find(&rows).Error; err != nil {
				yield(nil, err)
				return
			}
			for _, row := range rows {
				if !yield(P(row), nil) {
					return
				}
			}
			if len(rows) < pageSize {
				return
			}
			last := P(rows[len(rows)-1])
			cursorSet, cursorDate, cursorSeq = true, temporal.Normalize(last.FactDate()), last.FactSeq()
		}
	}
}
