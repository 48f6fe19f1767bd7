package handler

import (
	"net/http"

	"linka/internal/domain/user/service"
	"linka/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// StatusInput 状态输入
type StatusInput struct {
	Text           string `json:"text" binding:"required"`
	StatusType     string `json:"statusType"`
	ExpiresInHours int    `json:"expiresInHours"`
}

// Register 用户注册
// @Summary 注册
// @Tags User
// @Accept json
// @Produce json
// @Param input body service.RegisterInput true "注册信息"
// @Success 200 {object} model.User
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// Login 用户登录
// @Summary 登录
// @Tags User
// @Accept json
// @Produce json
// @Param input body service.LoginInput true "登录信息"
// @Success 200 {object} map[string]interface{}
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user": user})
}

// GetProfile 用户主页
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), getUserIdFromContext(c), c.Param("username"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfile 更新个人资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), getUserIdFromContext(c), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// FollowToggle 关注/取关
// @Summary 关注切换
// @Tags User
// @Param id path string true "目标用户ID"
// @Success 200 {object} service.FollowResult
// @Router /users/{id}/follow [post]
func (h *UserHandler) FollowToggle(c *gin.Context) {
	result, err := h.service.FollowToggle(c.Request.Context(), getUserIdFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetFollowers 粉丝列表
func (h *UserHandler) GetFollowers(c *gin.Context) {
	users, err := h.service.GetFollowers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, users)
}

// GetFriends 好友列表（我关注的人）
func (h *UserHandler) GetFriends(c *gin.Context) {
	users, err := h.service.GetFriends(c.Request.Context(), getUserIdFromContext(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, users)
}

// SetStatus 设置临时状态
func (h *UserHandler) SetStatus(c *gin.Context) {
	var input StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	status, err := h.service.SetStatus(c.Request.Context(), getUserIdFromContext(c), input.Text, input.StatusType, input.ExpiresInHours)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, status)
}

// GetStatus 读取用户当前状态
func (h *UserHandler) GetStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, status)
}

func getUserIdFromContext(c *gin.Context) string {
	val, _ := c.Get("userID")
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}
