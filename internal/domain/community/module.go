package community

import (
	"linka/internal/domain/community/handler"
	"linka/internal/domain/community/repository"
	"linka/internal/domain/community/service"
	"linka/internal/pkg/middleware"
	"linka/internal/pkg/registry"
	"linka/pkg/cache"

	"github.com/gin-gonic/gin"
)

// CommunityModule 社区模块
type CommunityModule struct{}

func init() {
	registry.Register(&CommunityModule{})
}

func (m *CommunityModule) Name() string {
	return "community"
}

func (m *CommunityModule) Priority() int {
	return 20
}

func (m *CommunityModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCommunityRepository(ctx.DB)
	svc := service.NewCommunityService(repo, cache.NewRedisCache(ctx.Redis))
	h := handler.NewCommunityHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CommunityHandler) {
	g := r.Group("/communities")

	// 公开读取
	g.GET("", h.GetCommunities)
	g.GET("/:id", h.GetCommunity)
	g.GET("/:id/posts", h.GetPosts)
	g.GET("/:id/design", h.GetDesignSettings)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("", h.CreateCommunity)
		auth.POST("/:id/join", h.Join)
		auth.POST("/:id/leave", h.Leave)
		auth.POST("/:id/posts", h.CreatePost)
		auth.POST("/:id/posts/:postId/like", h.ToggleLike)
		auth.POST("/:id/posts/:postId/comments", h.AddComment)
		auth.PUT("/:id/settings/comments", h.SaveFilterSettings)
		auth.PUT("/:id/design", h.ApplyDesignSettings)
		auth.POST("/:id/design/reset", h.ResetDesignSettings)
		auth.PUT("/:id/members/role", h.UpdateMemberRole)
	}
}
