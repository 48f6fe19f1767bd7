package story

import (
	"linka/internal/domain/story/handler"
	"linka/internal/domain/story/repository"
	"linka/internal/domain/story/service"
	userRepository "linka/internal/domain/user/repository"
	"linka/internal/pkg/middleware"
	"linka/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// StoryModule 限时故事模块
type StoryModule struct{}

func init() {
	registry.Register(&StoryModule{})
}

func (m *StoryModule) Name() string {
	return "story"
}

func (m *StoryModule) Priority() int {
	return 30
}

func (m *StoryModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	storyRepo := repository.NewStoryRepository(ctx.DB)
	userRepo := userRepository.NewUserRepository(ctx.DB)
	storySvc := service.NewStoryService(ctx.DB, storyRepo, userRepo, ctx.Activity)
	storyHandler := handler.NewStoryHandler(storySvc)

	// 2. 路由注册
	setupRoutes(ctx.Router, storyHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.StoryHandler) {
	g := r.Group("/stories")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.ListStories)
		g.POST("", h.CreateStory)
		g.POST("/:id/view", h.ViewStory)
		g.DELETE("/:id", h.DeleteStory)
	}
}
