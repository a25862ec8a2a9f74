package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/temporal"
)

const editionTable = "radar_edition"

type RadarEditionAggregateDeps struct {
	Base BaseDeps

	Editions   repos.EditionRepo
	Renderings repos.RenderingRepo
}

type radarEditionAggregate struct {
	deps RadarEditionAggregateDeps
}

func NewRadarEditionAggregate(deps RadarEditionAggregateDeps) domainagg.RadarEditionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &radarEditionAggregate{deps: deps}
}

func (a *radarEditionAggregate) Contract() domainagg.Contract {
	return domainagg.RadarEditionAggregateContract
}

func EditionSlug(year, release int) string {
	return fmt.Sprintf("%d-%d", year, release)
}

func (a *radarEditionAggregate) CreateDraft(ctx context.Context, in domainagg.CreateDraftInput) (*types.RadarEdition, error) {
	const op = "Radar.Edition.CreateDraft"
	if in.Year < 1000 || in.Year > 9999 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "year must have four digits", nil)
	}
	if in.Release < 1 || in.Release > 99 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "release must be between 1 and 99", nil)
	}
	if a.deps.Editions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "edition aggregate repos not configured", nil)
	}

	now := a.deps.Base.now()
	row := &types.RadarEdition{
		ID:        uuid.New(),
		Slug:      EditionSlug(in.Year, in.Release),
		Year:      in.Year,
		Release:   in.Release,
		Status:    types.EditionStatusDraft,
		Summary:   strings.TrimSpace(in.Summary),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := executeWrite(ctx, a.deps.Base, a.Contract(), op, func(dbc dbctx.Context) error {
		if err := a.deps.Editions.Create(dbc, row); err != nil {
			if IsUniqueViolation(err) {
				return ConflictError(fmt.Sprintf("edition %s already exists", row.Slug))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (a *radarEditionAggregate) Publish(ctx context.Context, in domainagg.PublishEditionInput) (domainagg.PublishEditionResult, error) {
	const op = "Radar.Edition.Publish"
	var out domainagg.PublishEditionResult
	if in.EditionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing edition_id", nil)
	}
	if in.CutoffDate.IsZero() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing cutoff_date", nil)
	}
	if in.Rendering == nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing rendering", nil)
	}
	if a.deps.Editions == nil || a.deps.Renderings == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "edition aggregate repos not configured", nil)
	}

	cutoff := temporal.Normalize(in.CutoffDate)
	publishedAt := temporal.Normalize(in.PublishedAt)
	if in.PublishedAt.IsZero() {
		publishedAt = a.deps.Base.now()
	}

	err := executeWrite(ctx, a.deps.Base, a.Contract(), op, func(dbc dbctx.Context) error {
		target, live, err := a.deps.Editions.LockForPublish(dbc, in.EditionID)
		if err != nil {
			return err
		}
		if target == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("edition not found: %s", in.EditionID), nil)
		}
		if !target.IsDraft() {
			return AdvanceConflictError(fmt.Sprintf("edition %s is %s, not draft", target.Slug, target.Status))
		}
		if live != nil {
			if err := RequireCutoffNotBefore(cutoff, live.CutoffDate); err != nil {
				return err
			}
		}

		rendering := *in.Rendering
		if rendering.ID == uuid.Nil {
			rendering.ID = uuid.New()
		}
		rendering.EditionID = target.ID
		rendering.CutoffDate = cutoff
		if rendering.GeneratedAt.IsZero() {
			rendering.GeneratedAt = publishedAt
		}
		rendering.CreatedAt = publishedAt
		if err := a.deps.Renderings.Create(dbc, &rendering); err != nil {
			if IsUniqueViolation(err) {
				return AdvanceConflictError("edition already has a rendering")
			}
			return err
		}

		// Archive first so the single-live index never sees two live rows.
		if live != nil {
			ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, editionTable, live.ID, []string{types.EditionStatusLive}, map[string]any{
				"status":      types.EditionStatusArchived,
				"archived_at": publishedAt,
				"updated_at":  publishedAt,
			})
			if err != nil {
				return err
			}
			if !ok {
				return AdvanceConflictError("live edition changed during advance")
			}
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, editionTable, target.ID, []string{types.EditionStatusDraft}, map[string]any{
			"status":       types.EditionStatusLive,
			"cutoff_date":  cutoff,
			"published_at": publishedAt,
			"updated_at":   publishedAt,
		})
		if err != nil {
			if IsUniqueViolation(err) {
				return AdvanceConflictError("another edition went live concurrently")
			}
			return err
		}
		if !ok {
			return AdvanceConflictError("edition left draft during advance")
		}

		published, err := a.deps.Editions.GetByID(dbc, target.ID)
		if err != nil {
			return err
		}
		out.Edition = published
		out.Rendering = &rendering
		if live != nil {
			archived, err := a.deps.Editions.GetByID(dbc, live.ID)
			if err != nil {
				return err
			}
			out.ArchivedEdition = archived
		}
		return nil
	})
	if err != nil {
		return domainagg.PublishEditionResult{}, err
	}
	return out, nil
}

func (a *radarEditionAggregate) UpdateSummary(ctx context.Context, editionID uuid.UUID, summary string) (*types.RadarEdition, error) {
	const op = "Radar.Edition.UpdateSummary"
	if editionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing edition_id", nil)
	}
	if a.deps.Editions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "edition aggregate repos not configured", nil)
	}

	var out *types.RadarEdition
	err := executeWrite(ctx, a.deps.Base, a.Contract(), op, func(dbc dbctx.Context) error {
		e, err := a.deps.Editions.GetByID(dbc, editionID)
		if err != nil {
			return err
		}
		if e == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("edition not found: %s", editionID), nil)
		}
		allowed := []string{types.EditionStatusDraft, types.EditionStatusLive}
		if err := RequireStatusAllowed(e.Status, allowed...); err != nil {
			return ConflictError(fmt.Sprintf("edition %s is archived", e.Slug))
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, editionTable, e.ID, allowed, map[string]any{
			"summary":    strings.TrimSpace(summary),
			"updated_at": a.deps.Base.now(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "edition archived while editing summary"); err != nil {
			return err
		}
		out, err = a.deps.Editions.GetByID(dbc, e.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *radarEditionAggregate) DeleteDraft(ctx context.Context, editionID uuid.UUID) error {
	const op = "Radar.Edition.DeleteDraft"
	if editionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing edition_id", nil)
	}
	if a.deps.Editions == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "edition aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, a.Contract(), op, func(dbc dbctx.Context) error {
		e, err := a.deps.Editions.GetByID(dbc, editionID)
		if err != nil {
			return err
		}
		if e == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("edition not found: %s", editionID), nil)
		}
		if !e.IsDraft() {
			return ConflictError(fmt.Sprintf("edition %s is %s; only drafts can be deleted", e.Slug, e.Status))
		}
		ok, err := a.deps.Base.CASGuard.DeleteByStatus(dbc, editionTable, e.ID, []string{types.EditionStatusDraft})
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "edition left draft before delete")
	})
}
