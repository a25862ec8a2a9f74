// Package cache memoizes edition renderings. Draft entries expire and can be
// invalidated; frozen entries (live or archived editions) are permanent and
// are never replaced or invalidated.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
)

const DefaultDraftTTL = 10 * time.Minute

type Entry struct {
	Rendering *types.RadarRendering
	Frozen    bool
}

type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, editionID uuid.UUID) (*Entry, bool, error)
	// Put stores r. Puts against a frozen entry are ignored and report stored=false.
	Put(ctx context.Context, editionID uuid.UUID, r *types.RadarRendering, frozen bool) (stored bool, err error)
	// Invalidate drops a draft entry and bumps the edition's generation;
	// frozen entries are kept.
	Invalidate(ctx context.Context, editionID uuid.UUID) error
	// Generation is the number of invalidations seen for editionID.
	Generation(ctx context.Context, editionID uuid.UUID) (uint64, error)
	// PutDraft stores a draft only if no invalidation happened since gen was
	// read. A preview built from older data is reported as stored=false.
	PutDraft(ctx context.Context, editionID uuid.UUID, r *types.RadarRendering, gen uint64) (stored bool, err error)
}
