package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/http"
	httpH "github.com/yungbote/project-radar/internal/http/handlers"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Radar   *httpH.RadarHandler
	Project *httpH.ProjectHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	deps := map[string]httpH.Pinger{}
	if sqlDB, err := db.DB(); err == nil {
		deps["db"] = sqlDB
	}
	if clients.Redis != nil {
		rdb := clients.Redis
		deps["redis"] = httpH.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	return Handlers{
		Health:  httpH.NewHealthHandler(deps),
		Radar:   httpH.NewRadarHandler(services.Radar),
		Project: httpH.NewProjectHandler(services.Projects, services.Facts),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log.With("component", "http"),
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		AdvanceTimeout: cfg.AdvanceTimeout,
		RadarHandler:   handlers.Radar,
		ProjectHandler: handlers.Project,
		HealthHandler:  handlers.Health,
	})
}
