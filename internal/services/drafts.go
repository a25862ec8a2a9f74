package services

import (
	"context"

	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/radar/cache"
)

// invalidateDrafts drops every cached draft preview. Failures are logged and
// do not fail the write that triggered them.
func invalidateDrafts(ctx context.Context, log *logger.Logger, editions repos.EditionRepo, c cache.Cache) {
	if c == nil || editions == nil {
		return
	}
	drafts, err := editions.ListByStatus(dbctx.Background(ctx), []string{types.EditionStatusDraft})
	if err != nil {
		log.Warn("list drafts for cache invalidation failed", "error", err)
		return
	}
	for _, e := range drafts {
		if err := c.Invalidate(ctx, e.ID); err != nil {
			log.Warn("draft cache invalidation failed", "edition_id", e.ID, "error", err)
		}
	}
}
