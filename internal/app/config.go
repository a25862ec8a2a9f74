package app

import (
	"strings"
	"time"

	radardb "github.com/yungbote/project-radar/internal/data/db"
	"github.com/yungbote/project-radar/internal/platform/envutil"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/radar/render"
	"github.com/yungbote/project-radar/internal/services"
)

const (
	LockBackendAuto   = "auto"
	LockBackendRedis  = "redis"
	LockBackendDB     = "db"
	LockBackendMemory = "memory"
)

type Config struct {
	Environment string
	Version     string
	Addr        string

	DB radardb.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	RadarConfigPath     string
	RadarImageSize      int
	RadarFontPath       string
	DraftCacheTTL       time.Duration
	SequenceMaxAttempts int
	SnapshotConcurrency int

	LockBackend    string
	AdvanceLockTTL time.Duration
	DBLockTimeout  time.Duration

	RequestTimeout  time.Duration
	AdvanceTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

func LoadConfig(log *logger.Logger) Config {
	driver := envutil.String("DB_DRIVER", "")
	if driver == "" {
		driver = radardb.DriverSQLite
		if envutil.String("DB_HOST", "") != "" || envutil.String("DB_DSN", "") != "" {
			driver = radardb.DriverPostgres
		}
	}
	cfg := Config{
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("VERSION", "dev"),
		Addr:        ":" + envutil.String("PORT", "8080"),

		DB: radardb.Config{
			Driver:       driver,
			DSN:          envutil.String("DB_DSN", ""),
			Host:         envutil.String("DB_HOST", "localhost"),
			Port:         envutil.String("DB_PORT", "5432"),
			User:         envutil.String("DB_USER", "radar"),
			Password:     envutil.String("DB_PASSWORD", ""),
			Name:         envutil.String("DB_NAME", "radar"),
			SSLMode:      envutil.String("DB_SSLMODE", "disable"),
			MaxOpenConns: envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: envutil.Int("DB_MAX_IDLE_CONNS", 5),
			LogLevel:     envutil.String("DB_LOG_LEVEL", "warn"),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		RedisPrefix:   envutil.String("REDIS_PREFIX", "radar:"),

		RadarConfigPath:     envutil.String("RADAR_CONFIG_PATH", ""),
		RadarImageSize:      envutil.Int("RADAR_IMAGE_SIZE", render.DefaultSize),
		RadarFontPath:       envutil.String("RADAR_FONT_PATH", ""),
		DraftCacheTTL:       envutil.Duration("DRAFT_CACHE_TTL", cache.DefaultDraftTTL),
		SequenceMaxAttempts: envutil.Int("SEQUENCE_MAX_ATTEMPTS", services.DefaultSequenceMaxAttempts),
		SnapshotConcurrency: envutil.Int("SNAPSHOT_CONCURRENCY", services.DefaultSnapshotConcurrency),

		LockBackend:    strings.ToLower(envutil.String("LOCK_BACKEND", LockBackendAuto)),
		AdvanceLockTTL: envutil.Duration("ADVANCE_LOCK_TTL", services.DefaultAdvanceLockTTL),
		DBLockTimeout:  envutil.Duration("DB_LOCK_TIMEOUT", 5*time.Second),

		RequestTimeout:  envutil.Duration("REQUEST_TIMEOUT", 15*time.Second),
		AdvanceTimeout:  envutil.Duration("ADVANCE_TIMEOUT", 90*time.Second),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
	}
	if log != nil {
		log.Info("config loaded",
			"environment", cfg.Environment,
			"db_driver", cfg.DB.Driver,
			"redis", cfg.RedisAddr != "",
			"lock_backend", cfg.LockBackend,
			"draft_cache_ttl", cfg.DraftCacheTTL.String(),
		)
	}
	return cfg
}

// lockBackend resolves "auto": redis when configured, else the database.
func (c Config) lockBackend() string {
	switch c.LockBackend {
	case LockBackendRedis, LockBackendDB, LockBackendMemory:
		return c.LockBackend
	}
	if c.RedisAddr != "" {
		return LockBackendRedis
	}
	return LockBackendDB
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
