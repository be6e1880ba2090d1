package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/damoang/qna-revision/internal/config"
	"github.com/damoang/qna-revision/internal/database"
	"github.com/damoang/qna-revision/internal/handler"
	"github.com/damoang/qna-revision/internal/middleware"
	"github.com/damoang/qna-revision/internal/migration"
	"github.com/damoang/qna-revision/internal/repository"
	"github.com/damoang/qna-revision/internal/routes"
	"github.com/damoang/qna-revision/internal/service"
	"github.com/damoang/qna-revision/pkg/jwt"
	pkglogger "github.com/damoang/qna-revision/pkg/logger"
	pkgredis "github.com/damoang/qna-revision/pkg/redis"
	"github.com/damoang/qna-revision/pkg/sanitizer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env.local → .env 순서로 로드 (이미 설정된 환경변수가 우선)
	dotenvFiles := config.LoadDotEnv(".")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := config.ConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		pkglogger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	config.LogResolved(cfg, pkglogger.Info)

	if cfg.JWT.Secret == "" {
		pkglogger.Error("JWT secret is not configured")
		os.Exit(1)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		pkglogger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	pkglogger.Info("Connected to %s", cfg.Database.Driver)
	if err := migration.Run(db); err != nil {
		pkglogger.Error("Migration failed: %v", err)
		os.Exit(1)
	}

	// Redis: 태그 캐시, 리뷰 스트림, 수정 rate limit. 없으면 비활성화
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(context.Background(), pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}

	editService := buildEditService(cfg, db, redisClient)
	editHandler := handler.NewEditHandler(editService)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		status, dbStatus := http.StatusOK, "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, dbStatus = http.StatusServiceUnavailable, "down"
		}
		c.JSON(status, gin.H{
			"status":  dbStatus,
			"service": "qna-revision",
			"redis":   redisClient != nil,
			"time":    time.Now().Unix(),
		})
	})

	auth := middleware.JWTAuth(jwt.NewManager(cfg.JWT.Secret), cfg.Edit.ModeratorLevel)
	limitCfg := middleware.DefaultRateLimitConfig()
	limitCfg.RequestsPerMinute = cfg.Edit.RateLimitPerMinute
	var scripter redis.Scripter
	if redisClient != nil {
		scripter = redisClient
	}
	routes.Setup(router, editHandler, auth, middleware.RateLimitPerUser(scripter, limitCfg))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		pkglogger.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkglogger.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server forced to shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	pkglogger.Info("Server exited")
}

// buildEditService wires storage, validation and the optional Redis collaborators
func buildEditService(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) service.EditService {
	store := repository.NewContentRepository(db)

	tags := repository.NewTagRepository(db)
	var signaler service.ReviewSignaler
	if redisClient != nil {
		tags = repository.NewCachedTagRepository(tags, redisClient, &repository.TagCacheConfig{
			TTL:       cfg.Edit.TagCacheTTL,
			KeyPrefix: repository.DefaultTagCacheConfig().KeyPrefix,
		})
		signaler = service.NewStreamReviewSignaler(
			pkgredis.NewStreamPublisher(redisClient, cfg.Edit.ReviewStream, 0),
		)
	}

	validator := service.NewContentValidator(sanitizer.NewRichTextSanitizer(), tags)

	return service.NewEditService(store, validator, signaler, service.EditConfig{
		GraceWindow:          cfg.Edit.GraceWindow,
		ConcurrencyTolerance: cfg.Edit.ConcurrencyTolerance,
		HistoryDefaultLimit:  cfg.Edit.HistoryDefaultLimit,
		HistoryMaxLimit:      cfg.Edit.HistoryMaxLimit,
	})
}

func corsConfig(allowOrigins string) cors.Config {
	origins := []string{}
	for _, o := range strings.Split(allowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}
}
