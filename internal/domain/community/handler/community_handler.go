package handler

import (
	"io"
	"net/http"

	"linka/internal/domain/community/service"
	"linka/pkg/response"
	"linka/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	service service.CommunityService
}

func NewCommunityHandler(s service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: s}
}

// PostInput 社区发帖输入
type PostInput struct {
	Content string `json:"content" binding:"required"`
}

// CommentInput 社区评论输入
type CommentInput struct {
	Content string `json:"content" binding:"required"`
}

// MemberRoleInput 角色调整输入
type MemberRoleInput struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// CreateCommunity 创建社区
// @Summary 创建社区
// @Tags Community
// @Accept json
// @Produce json
// @Param input body service.CreateCommunityInput true "社区信息"
// @Success 200 {object} model.Community
// @Router /communities [post]
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var input service.CreateCommunityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	community, err := h.service.Create(c.Request.Context(), getUserIdFromContext(c), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, community)
}

// GetCommunities 社区列表
func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)

	result, err := h.service.GetList(c.Request.Context(), p)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetCommunity 社区详情
func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	community, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, community)
}

// Join 加入社区
func (h *CommunityHandler) Join(c *gin.Context) {
	if err := h.service.Join(c.Request.Context(), c.Param("id"), getUserIdFromContext(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "joined")
}

// Leave 退出社区（创建者除外）
func (h *CommunityHandler) Leave(c *gin.Context) {
	if err := h.service.Leave(c.Request.Context(), c.Param("id"), getUserIdFromContext(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "left")
}

// CreatePost 社区发帖（仅创建者）
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), c.Param("id"), getUserIdFromContext(c), input.Content)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// GetPosts 社区帖子列表
func (h *CommunityHandler) GetPosts(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)

	result, err := h.service.GetPosts(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// ToggleLike 社区帖点赞切换
func (h *CommunityHandler) ToggleLike(c *gin.Context) {
	result, err := h.service.ToggleLike(c.Request.Context(), c.Param("postId"), getUserIdFromContext(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// AddComment 社区帖评论
func (h *CommunityHandler) AddComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("postId"), getUserIdFromContext(c), input.Content)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, comment)
}

// SaveFilterSettings 保存评论过滤设置
func (h *CommunityHandler) SaveFilterSettings(c *gin.Context) {
	var input service.FilterSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SaveFilterSettings(c.Request.Context(), c.Param("id"), getUserIdFromContext(c), input); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "saved")
}

// GetDesignSettings 外观设置
func (h *CommunityHandler) GetDesignSettings(c *gin.Context) {
	settings, err := h.service.GetDesignSettings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, settings)
}

// ApplyDesignSettings 应用外观设置，未知键整体拒绝
func (h *CommunityHandler) ApplyDesignSettings(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	settings, err := h.service.ApplyDesignSettings(c.Request.Context(), c.Param("id"), getUserIdFromContext(c), raw)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, settings)
}

// ResetDesignSettings 恢复默认外观
func (h *CommunityHandler) ResetDesignSettings(c *gin.Context) {
	if err := h.service.ResetDesignSettings(c.Request.Context(), c.Param("id"), getUserIdFromContext(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "reset")
}

// UpdateMemberRole 调整成员角色
func (h *CommunityHandler) UpdateMemberRole(c *gin.Context) {
	var input MemberRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	err := h.service.UpdateMemberRole(c.Request.Context(), c.Param("id"), getUserIdFromContext(c), input.UserID, input.Role)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "updated")
}

func getUserIdFromContext(c *gin.Context) string {
	val, _ := c.Get("userID")
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}
