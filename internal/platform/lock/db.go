package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbLocker keeps leases as advisory_lock rows. An expired row is reclaimed by
// the next acquirer.
type dbLocker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDB(db *gorm.DB) Locker {
	return &dbLocker{db: db, now: time.Now}
}

func (l *dbLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	now := l.now().UTC().Truncate(time.Second)
	db := l.db.WithContext(ctx)
	if err := db.Where("name = ? AND expires_at <= ?", name, now).Delete(&types.AdvisoryLock{}).Error; err != nil {
		return nil, fmt.Errorf("lock reclaim %s: %w", name, err)
	}
	row := &types.AdvisoryLock{
		Name:      name,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(ttl.Round(time.Second)),
		CreatedAt: now,
	}
	if !row.ExpiresAt.After(now) {
		row.ExpiresAt = now.Add(time.Second)
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("lock acquire %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrHeld
	}
	return &lease{name: name, token: row.Token, release: l.release}, nil
}

func (l *dbLocker) release(ctx context.Context, name, token string) error {
	if err := l.db.WithContext(ctx).
		Where("name = ? AND token = ?", name, token).
		Delete(&types.AdvisoryLock{}).Error; err != nil {
		return fmt.Errorf("lock release %s: %w", name, err)
	}
	return nil
}
