package post

import (
	communityRepository "linka/internal/domain/community/repository"
	communityService "linka/internal/domain/community/service"
	"linka/internal/domain/post/handler"
	"linka/internal/domain/post/repository"
	"linka/internal/domain/post/service"
	userRepository "linka/internal/domain/user/repository"
	"linka/internal/pkg/config"
	"linka/internal/pkg/middleware"
	"linka/internal/pkg/registry"
	"linka/pkg/cache"

	"github.com/gin-gonic/gin"
)

// PostModule 帖子与互动模块
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 10
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	postRepo := repository.NewPostRepository(ctx.DB)
	interactionRepo := repository.NewInteractionRepository(ctx.DB)
	userRepo := userRepository.NewUserRepository(ctx.DB)
	cacheService := cache.NewRedisCache(ctx.Redis)

	// 社区过滤策略由社区服务解析
	communityRepo := communityRepository.NewCommunityRepository(ctx.DB)
	policies := communityService.NewCommunityService(communityRepo, cacheService)

	postSvc := service.NewPostService(postRepo, interactionRepo, cacheService)
	interactionSvc := service.NewInteractionService(
		ctx.DB, postRepo, interactionRepo, userRepo,
		ctx.Tracker, policies, ctx.Activity,
		config.GlobalConfig.AntiAbuse,
	)
	postHandler := handler.NewPostHandler(postSvc, interactionSvc)

	// 2. 路由注册
	setupRoutes(ctx.Router, postHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PostHandler) {
	g := r.Group("/posts")

	// 公开读取
	g.GET("/feed", h.GetFeed)
	g.GET("/trending-tags", h.GetTrendingTags)
	g.GET("/:id", h.GetPost)
	g.GET("/:id/comments", h.GetComments)
	g.GET("/:id/stats", h.GetStats)
	g.GET("/user/:id", h.GetUserPosts)

	// 互动需要登录
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("", h.CreatePost)
		auth.DELETE("/:id", h.DeletePost)
		auth.POST("/:id/like", h.ToggleLike)
		auth.POST("/:id/react", h.ToggleReaction)
		auth.POST("/:id/comments", h.AddComment)
		auth.DELETE("/:id/comments/:commentId", h.DeleteComment)
		auth.POST("/:id/repost", h.Repost)
	}
}
