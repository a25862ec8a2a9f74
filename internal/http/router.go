package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/project-radar/internal/http/handlers"
	httpMW "github.com/yungbote/project-radar/internal/http/middleware"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration
	// AdvanceTimeout replaces RequestTimeout on the advance route.
	AdvanceTimeout time.Duration

	RadarHandler   *httpH.RadarHandler
	ProjectHandler *httpH.ProjectHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))
	{
		if cfg.ProjectHandler != nil {
			api.GET("/overview", cfg.ProjectHandler.Overview)
			api.GET("/widget/project/:cwid", cfg.ProjectHandler.Widget)
			api.GET("/projects/:cwid/classification", cfg.ProjectHandler.Classification)
			api.GET("/projects/:cwid/score", cfg.ProjectHandler.Score)
			api.GET("/projects/:cwid/history", cfg.ProjectHandler.History)
		}
		if cfg.RadarHandler != nil {
			api.GET("/radars", cfg.RadarHandler.List)
			api.GET("/radars/live", cfg.RadarHandler.Live)
			api.GET("/radars/:slug", cfg.RadarHandler.BySlug)
			api.GET("/radars/:slug/image.png", cfg.RadarHandler.Image)
		}
	}

	admin := r.Group("/api/admin")
	{
		if cfg.RadarHandler != nil {
			// advance renders the whole portfolio and gets its own budget
			admin.POST("/radars/:id/advance", httpMW.AttachRequestContext(cfg.AdvanceTimeout), cfg.RadarHandler.Advance)

			timed := admin.Group("", httpMW.AttachRequestContext(cfg.RequestTimeout))
			timed.POST("/radars", cfg.RadarHandler.Create)
			timed.PATCH("/radars/:id", cfg.RadarHandler.Update)
			timed.DELETE("/radars/:id", cfg.RadarHandler.Delete)
			timed.GET("/radars/:id/preview.png", cfg.RadarHandler.Preview)
		}
		if cfg.ProjectHandler != nil {
			timed := admin.Group("", httpMW.AttachRequestContext(cfg.RequestTimeout))
			timed.GET("/projects", cfg.ProjectHandler.List)
			timed.POST("/projects", cfg.ProjectHandler.Create)
			timed.POST("/projects/import", cfg.ProjectHandler.Import)
			timed.PATCH("/projects/:cwid", cfg.ProjectHandler.Update)
			timed.DELETE("/projects/:cwid", cfg.ProjectHandler.Delete)
			timed.POST("/projects/:cwid/classifications", cfg.ProjectHandler.AppendClassification)
			timed.POST("/projects/:cwid/scores", cfg.ProjectHandler.AppendScore)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
