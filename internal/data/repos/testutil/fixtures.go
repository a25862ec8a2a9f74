package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/project-radar/internal/domain"
)

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID int64) *types.Project {
	tb.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	p := &types.Project{
		ID:         uuid.New(),
		ExternalID: externalID,
		Name:       fmt.Sprintf("project-%d", externalID),
		RCN:        fmt.Sprintf("RCN%06d", externalID),
		Title:      fmt.Sprintf("Project %d", externalID),
		Budget:     1_000_000,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedClassification(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, term string, effective time.Time, seq int64) *types.ClassificationFact {
	tb.Helper()
	f := &types.ClassificationFact{
		ID:            uuid.New(),
		ProjectID:     projectID,
		Term:          term,
		EffectiveDate: effective.UTC().Truncate(time.Second),
		Seq:           seq,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed classification: %v", err)
	}
	return f
}

func SeedScore(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, mrl, trl int, scored time.Time, seq int64) *types.ScoreFact {
	tb.Helper()
	f := &types.ScoreFact{
		ID:          uuid.New(),
		ProjectID:   projectID,
		MRL:         mrl,
		TRL:         trl,
		ScoringDate: scored.UTC().Truncate(time.Second),
		Seq:         seq,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed score: %v", err)
	}
	return f
}

func SeedEdition(tb testing.TB, ctx context.Context, tx *gorm.DB, year, release int, status string, cutoff *time.Time) *types.RadarEdition {
	tb.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	e := &types.RadarEdition{
		ID:         uuid.New(),
		Slug:       fmt.Sprintf("%d-%d", year, release),
		Year:       year,
		Release:    release,
		CutoffDate: cutoff,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status == types.EditionStatusLive {
		e.PublishedAt = &now
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed edition: %v", err)
	}
	return e
}

func PtrTime(v time.Time) *time.Time { return &v }
