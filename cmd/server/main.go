package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "linka/docs"
	_ "linka/internal/domain/community"
	_ "linka/internal/domain/post"
	_ "linka/internal/domain/story"
	_ "linka/internal/domain/user"
	"linka/internal/pkg/antispam"
	"linka/internal/pkg/config"
	"linka/internal/pkg/middleware"
	"linka/internal/pkg/registry"
	"linka/internal/pkg/worker"
	"linka/pkg/database"
	"linka/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Linka API
// @version 1.0
// @description 社交互动服务：帖子、社区、故事和反滥用互动引擎
// @BasePath /
func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	logger.Init(cfg.Server.Mode)
	defer logger.Sync()

	db := database.InitDatabase()
	redisClient := database.InitRedis()

	// 点赞滑动窗口计数放 Redis，多实例共享
	tracker := antispam.NewRedisTracker(redisClient, map[string]antispam.WindowLimit{
		antispam.KindLike: {
			Max:    cfg.AntiAbuse.LikeWindowMax,
			Window: time.Duration(cfg.AntiAbuse.LikeWindowMinutes) * time.Minute,
		},
	})

	// 行为审计异步落库
	activity := worker.NewActivityRecorder(db, 4, 1024)
	activity.Start()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := registry.InitModules(&registry.ModuleContext{
		DB:       db,
		Redis:    redisClient,
		Router:   r,
		Tracker:  tracker,
		Activity: activity,
	}); err != nil {
		logger.Log.Fatal("failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
	logger.Log.Info("server exited")
}
