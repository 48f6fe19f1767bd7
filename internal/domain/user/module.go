package user

import (
	"linka/internal/domain/user/handler"
	"linka/internal/domain/user/repository"
	"linka/internal/domain/user/service"
	"linka/internal/pkg/middleware"
	"linka/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	userSvc := service.NewUserService(userRepo, ctx.Activity)
	userHandler := handler.NewUserHandler(userSvc)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/users")

	// 注册登录与公开读取
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/:id/followers", h.GetFollowers)
	g.GET("/:id/status", h.GetStatus)
	g.GET("/profile/:username", h.GetProfile)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.PUT("/profile", h.UpdateProfile)
		auth.POST("/:id/follow", h.FollowToggle)
		auth.GET("/friends", h.GetFriends)
		auth.POST("/status", h.SetStatus)
	}
}
