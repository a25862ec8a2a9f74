package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	"github.com/yungbote/project-radar/internal/data/repos"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/lock"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/radar/render"
	"github.com/yungbote/project-radar/internal/radar/vocab"
	"github.com/yungbote/project-radar/internal/services"
)

type Services struct {
	Sequence services.SequenceService
	Facts    services.FactService
	Radar    services.RadarService
	Projects services.ProjectService

	Cache  cache.Cache
	Locker lock.Locker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	radarCfg, err := vocab.Load(cfg.RadarConfigPath)
	if err != nil {
		return Services{}, fmt.Errorf("load radar vocabulary: %w", err)
	}
	renderer, err := render.New(radarCfg, render.Options{Size: cfg.RadarImageSize, FontPath: cfg.RadarFontPath})
	if err != nil {
		return Services{}, fmt.Errorf("init renderer: %w", err)
	}

	var renderingCache cache.Cache
	if clients.Redis != nil {
		renderingCache = cache.NewRedis(clients.Redis, cfg.RedisPrefix+"rendering:", cfg.DraftCacheTTL)
	} else {
		renderingCache = cache.NewMemory(cfg.DraftCacheTTL)
	}

	var locker lock.Locker
	switch cfg.lockBackend() {
	case LockBackendRedis:
		if clients.Redis == nil {
			return Services{}, fmt.Errorf("lock backend redis requires REDIS_ADDR")
		}
		locker = lock.NewRedis(clients.Redis, cfg.RedisPrefix+"lock:")
	case LockBackendMemory:
		locker = lock.NewMemory()
	default:
		locker = lock.NewDB(db)
	}

	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(db, aggregates.WithLockTimeout(cfg.DBLockTimeout)),
		Hooks:  aggregates.NewObservabilityHooks(metrics),
	}
	factAgg := aggregates.NewFactLogAggregate(aggregates.FactLogAggregateDeps{
		Base:            base,
		Projects:        reposet.Projects,
		Classifications: reposet.Classification,
		Scores:          reposet.Score,
	})
	editionAgg := aggregates.NewRadarEditionAggregate(aggregates.RadarEditionAggregateDeps{
		Base:       base,
		Editions:   reposet.Editions,
		Renderings: reposet.Renderings,
	})

	sequence := services.NewSequenceService(log, reposet.Sequence, metrics, services.SequenceOptions{MaxAttempts: cfg.SequenceMaxAttempts})
	return Services{
		Sequence: sequence,
		Facts:    services.NewFactService(log, radarCfg, factAgg, reposet.Projects, reposet.Classification, reposet.Score, reposet.Editions, renderingCache, metrics),
		Radar: services.NewRadarService(log, radarCfg, editionAgg, reposet, renderer, renderingCache, locker, metrics, services.RadarOptions{
			LockTTL:             cfg.AdvanceLockTTL,
			SnapshotConcurrency: cfg.SnapshotConcurrency,
		}),
		Projects: services.NewProjectService(log, base.Runner, sequence, reposet, renderingCache),
		Cache:    renderingCache,
		Locker:   locker,
	}, nil
}
