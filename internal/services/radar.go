package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/lock"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/radar/layout"
	"github.com/yungbote/project-radar/internal/radar/render"
	"github.com/yungbote/project-radar/internal/radar/vocab"
	"github.com/yungbote/project-radar/internal/temporal"
)

const (
	AdvanceLockName       = "radar:advance"
	DefaultAdvanceLockTTL = 2 * time.Minute
	leaseReleaseTimeout   = 5 * time.Second
)

// EditionRendering pairs an edition with its rendering.
type EditionRendering struct {
	Edition   *types.RadarEdition   `json:"edition"`
	Rendering *types.RadarRendering `json:"rendering"`
}

type AdvanceResult struct {
	Edition         *types.RadarEdition   `json:"edition"`
	Rendering       *types.RadarRendering `json:"rendering"`
	ArchivedEdition *types.RadarEdition   `json:"archived_edition,omitempty"`
}

type RadarService interface {
	CreateEdition(ctx context.Context, in EditionInput) (*types.RadarEdition, error)
	ListEditions(ctx context.Context) ([]*types.RadarEdition, error)
	UpdateSummary(ctx context.Context, editionID uuid.UUID, summary string) (*types.RadarEdition, error)
	DeleteEdition(ctx context.Context, editionID uuid.UUID) error

	// Advance snapshots every active project at cutoff, renders the radar and
	// publishes the draft as the single live edition. Concurrent advances do
	// not queue: the loser gets CodeAdvanceConflict.
	Advance(ctx context.Context, editionID uuid.UUID, cutoff time.Time) (*AdvanceResult, error)

	GetLiveRendering(ctx context.Context) (*EditionRendering, error)
	// GetRenderingBySlug serves live and archived editions only.
	GetRenderingBySlug(ctx context.Context, slug string) (*EditionRendering, error)
	// Preview renders a draft as of now. Non-draft editions return their frozen rendering.
	Preview(ctx context.Context, editionID uuid.UUID) (*EditionRendering, error)
}

type RadarOptions struct {
	LockTTL             time.Duration
	SnapshotConcurrency int
	Now                 func() time.Time
}

type radarService struct {
	log        *logger.Logger
	cfg        *vocab.Config
	agg        domainagg.RadarEditionAggregate
	editions   repos.EditionRepo
	renderings repos.RenderingRepo
	snapshots  *snapshotter
	renderer   *render.Renderer
	cache      cache.Cache
	locker     lock.Locker
	metrics    *observability.Metrics
	lockTTL    time.Duration
	now        func() time.Time
}

func NewRadarService(
	log *logger.Logger,
	cfg *vocab.Config,
	agg domainagg.RadarEditionAggregate,
	set repos.Set,
	renderer *render.Renderer,
	c cache.Cache,
	locker lock.Locker,
	metrics *observability.Metrics,
	opts RadarOptions,
) RadarService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultAdvanceLockTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &radarService{
		log:        log.With("service", "RadarService"),
		cfg:        cfg,
		agg:        agg,
		editions:   set.Editions,
		renderings: set.Renderings,
		snapshots:  newSnapshotter(set.Projects, set.Classification, set.Score, opts.SnapshotConcurrency),
		renderer:   renderer,
		cache:      c,
		locker:     locker,
		metrics:    metrics,
		lockTTL:    opts.LockTTL,
		now:        opts.Now,
	}
}

func (s *radarService) CreateEdition(ctx context.Context, in EditionInput) (*types.RadarEdition, error) {
	const op = "Radar.Editions.Create"
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	e, err := s.agg.CreateDraft(ctx, domainagg.CreateDraftInput{Year: in.Year, Release: in.Release, Summary: in.Summary})
	if err != nil {
		return nil, err
	}
	s.log.Info("edition created", "edition_id", e.ID, "slug", e.Slug)
	return e, nil
}

func (s *radarService) ListEditions(ctx context.Context) ([]*types.RadarEdition, error) {
	out, err := s.editions.List(dbctx.Background(ctx))
	if err != nil {
		return nil, aggregates.MapError("Radar.Editions.List", err)
	}
	return out, nil
}

func (s *radarService) UpdateSummary(ctx context.Context, editionID uuid.UUID, summary string) (*types.RadarEdition, error) {
	const op = "Radar.Editions.UpdateSummary"
	if len(summary) > 5000 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "summary: max=5000", nil)
	}
	return s.agg.UpdateSummary(ctx, editionID, summary)
}

func (s *radarService) DeleteEdition(ctx context.Context, editionID uuid.UUID) error {
	if err := s.agg.DeleteDraft(ctx, editionID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, editionID); err != nil {
		s.log.Warn("cache invalidation after delete failed", "edition_id", editionID, "error", err)
	}
	s.log.Info("draft edition deleted", "edition_id", editionID)
	return nil
}

func (s *radarService) Advance(ctx context.Context, editionID uuid.UUID, cutoff time.Time) (res *AdvanceResult, err error) {
	const op = "Radar.Advance"
	started := time.Now()
	blips := 0
	ctx, span := observability.Tracer().Start(ctx, "radar.advance", trace.WithAttributes(
		attribute.String("radar.edition_id", editionID.String()),
		attribute.String("radar.cutoff", cutoff.UTC().Format(time.DateOnly)),
	))
	defer func() {
		status := "success"
		if err != nil {
			status = string(domainagg.CodeOf(err))
			if status == "" {
				status = string(domainagg.CodeInternal)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.Int("radar.blips", blips))
		span.End()
		s.metrics.ObserveAdvance(status, blips, time.Since(started))
	}()

	if editionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing edition_id", nil)
	}
	if cutoff.IsZero() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing cutoff_date", nil)
	}
	cutoff = temporal.Normalize(cutoff)

	lease, err := s.locker.TryAcquire(ctx, AdvanceLockName, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, domainagg.NewError(domainagg.CodeAdvanceConflict, op, "another advance is in progress", err)
		}
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "acquire advance lock", err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), leaseReleaseTimeout)
		defer cancel()
		if rerr := lease.Release(rctx); rerr != nil {
			s.log.Warn("advance lock release failed", "lock", AdvanceLockName, "error", rerr)
		}
	}()
	// The lease is not renewed, so the advance must finish inside it.
	ctx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()

	dbc := dbctx.Background(ctx)
	edition, err := s.editions.GetByID(dbc, editionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if edition == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("edition not found: %s", editionID), nil)
	}
	if !edition.IsDraft() {
		return nil, domainagg.NewError(domainagg.CodeAdvanceConflict, op, fmt.Sprintf("edition %s is %s, not draft", edition.Slug, edition.Status), nil)
	}
	live, err := s.editions.GetLive(dbc)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if live != nil {
		if err := aggregates.RequireCutoffNotBefore(cutoff, live.CutoffDate); err != nil {
			return nil, aggregates.MapError(op, err)
		}
	}

	now := temporal.Normalize(s.now())
	rendering, placed, err := s.build(ctx, cutoff, now)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	blips = placed

	published, err := s.agg.Publish(ctx, domainagg.PublishEditionInput{
		EditionID:   editionID,
		CutoffDate:  cutoff,
		Rendering:   rendering,
		PublishedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if _, cerr := s.cache.Put(ctx, editionID, published.Rendering, true); cerr != nil {
		s.log.Warn("cache frozen rendering failed", "edition_id", editionID, "error", cerr)
	}

	fields := []any{"edition_id", editionID, "slug", published.Edition.Slug, "cutoff", cutoff.Format(time.DateOnly), "blips", blips}
	if published.ArchivedEdition != nil {
		fields = append(fields, "archived_edition", published.ArchivedEdition.Slug)
	}
	s.log.Info("radar advanced", fields...)
	observability.ReportPlacementQuality(ctx, s.log, s.metrics, placementReport(published.Edition.Slug, blips, published.Rendering))
	return &AdvanceResult{
		Edition:         published.Edition,
		Rendering:       published.Rendering,
		ArchivedEdition: published.ArchivedEdition,
	}, nil
}

// build takes the snapshot, then lays out and renders it on a worker
// goroutine so that a canceled ctx returns without waiting for the encoder.
func (s *radarService) build(ctx context.Context, cutoff, now time.Time) (*types.RadarRendering, int, error) {
	snap, err := s.snapshots.take(ctx, cutoff)
	if err != nil {
		return nil, 0, err
	}

	type built struct {
		rendering *types.RadarRendering
		blips     int
		err       error
	}
	done := make(chan built, 1)
	go func() {
		r, n, err := s.compose(snap, now)
		done <- built{rendering: r, blips: n, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case b := <-done:
		return b.rendering, b.blips, b.err
	}
}

func (s *radarService) compose(snap Snapshot, now time.Time) (*types.RadarRendering, int, error) {
	res := layout.Layout(s.cfg, snap.Entries)
	unplaced := append(append([]types.UnplacedProject{}, snap.Unplaced...), res.Unplaced...)
	sort.SliceStable(unplaced, func(i, j int) bool { return unplaced[i].ExternalID < unplaced[j].ExternalID })

	artifact, err := s.renderer.Render(res.Blips)
	if err != nil {
		return nil, 0, err
	}
	blipsJSON, err := json.Marshal(res.Blips)
	if err != nil {
		return nil, 0, err
	}
	unplacedJSON, err := json.Marshal(unplaced)
	if err != nil {
		return nil, 0, err
	}
	return &types.RadarRendering{
		GeneratedAt: now,
		CutoffDate:  snap.Cutoff,
		Blips:       datatypes.JSON(blipsJSON),
		Unplaced:    datatypes.JSON(unplacedJSON),
		Artifact:    artifact.PNG,
		ContentType: artifact.ContentType,
		Checksum:    artifact.Checksum,
	}, len(res.Blips), nil
}

func placementReport(slug string, placed int, r *types.RadarRendering) observability.PlacementReport {
	report := observability.PlacementReport{Edition: slug, Placed: placed, Unplaced: map[string][]string{}}
	if r == nil || len(r.Unplaced) == 0 {
		return report
	}
	var unplaced []types.UnplacedProject
	if err := json.Unmarshal(r.Unplaced, &unplaced); err != nil {
		return report
	}
	for _, u := range unplaced {
		report.Unplaced[u.Reason] = append(report.Unplaced[u.Reason], strconv.FormatInt(u.ExternalID, 10))
	}
	return report
}

func (s *radarService) GetLiveRendering(ctx context.Context) (*EditionRendering, error) {
	const op = "Radar.Renderings.GetLive"
	live, err := s.editions.GetLive(dbctx.Background(ctx))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if live == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "no live edition", nil)
	}
	return s.frozen(ctx, op, live)
}

func (s *radarService) GetRenderingBySlug(ctx context.Context, slug string) (*EditionRendering, error) {
	const op = "Radar.Renderings.GetBySlug"
	if !ValidEditionSlug(slug) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "slug: edition_slug", nil)
	}
	e, err := s.editions.GetBySlug(dbctx.Background(ctx), slug)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if e == nil || e.IsDraft() {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "edition not found: "+slug, nil)
	}
	return s.frozen(ctx, op, e)
}

func (s *radarService) Preview(ctx context.Context, editionID uuid.UUID) (*EditionRendering, error) {
	const op = "Radar.Renderings.Preview"
	e, err := s.editions.GetByID(dbctx.Background(ctx), editionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if e == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("edition not found: %s", editionID), nil)
	}
	if !e.IsDraft() {
		return s.frozen(ctx, op, e)
	}

	if entry, ok, err := s.cache.Get(ctx, e.ID); err != nil {
		s.log.Warn("cache lookup failed", "edition_id", e.ID, "error", err)
	} else if ok {
		s.metrics.IncCacheLookup("hit")
		return &EditionRendering{Edition: e, Rendering: entry.Rendering}, nil
	}
	s.metrics.IncCacheLookup("miss")

	// Read before the snapshot so an append landing mid-build keeps this
	// preview out of the cache.
	gen, genErr := s.cache.Generation(ctx, e.ID)
	if genErr != nil {
		s.log.Warn("cache generation lookup failed", "edition_id", e.ID, "error", genErr)
	}
	now := temporal.Normalize(s.now())
	r, _, err := s.build(ctx, now, now)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	r.EditionID = e.ID
	if genErr == nil {
		stored, err := s.cache.PutDraft(ctx, e.ID, r, gen)
		if err != nil {
			s.log.Warn("cache draft preview failed", "edition_id", e.ID, "error", err)
		} else if !stored {
			s.log.Debug("draft preview superseded before caching", "edition_id", e.ID)
		}
	}
	return &EditionRendering{Edition: e, Rendering: r}, nil
}

// frozen serves a live or archived edition's rendering through the cache.
func (s *radarService) frozen(ctx context.Context, op string, e *types.RadarEdition) (*EditionRendering, error) {
	if entry, ok, err := s.cache.Get(ctx, e.ID); err != nil {
		s.log.Warn("cache lookup failed", "edition_id", e.ID, "error", err)
	} else if ok && entry.Frozen {
		s.metrics.IncCacheLookup("hit")
		return &EditionRendering{Edition: e, Rendering: entry.Rendering}, nil
	}
	s.metrics.IncCacheLookup("miss")

	r, err := s.renderings.GetByEditionID(dbctx.Background(ctx), e.ID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if r == nil {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, fmt.Sprintf("edition %s is %s without a rendering", e.Slug, e.Status), nil)
	}
	if _, err := s.cache.Put(ctx, e.ID, r, true); err != nil {
		s.log.Warn("cache frozen rendering failed", "edition_id", e.ID, "error", err)
	}
	return &EditionRendering{Edition: e, Rendering: r}, nil
}
