package handler

import (
	"net/http"

	"linka/internal/domain/post/service"
	userModel "linka/internal/domain/user/model"
	"linka/pkg/response"
	"linka/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts        service.PostService
	interactions service.InteractionService
}

func NewPostHandler(posts service.PostService, interactions service.InteractionService) *PostHandler {
	return &PostHandler{posts: posts, interactions: interactions}
}

// CommentInput 评论输入
type CommentInput struct {
	Content string `json:"content" binding:"required"`
}

// ReactionInput 表情输入
type ReactionInput struct {
	Kind string `json:"kind" binding:"required"`
}

// CreatePost 发布帖子
// @Summary 发布帖子
// @Tags Post
// @Accept json
// @Produce json
// @Param input body service.CreatePostInput true "帖子内容"
// @Success 200 {object} model.Post
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input service.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.posts.Create(c.Request.Context(), getUserIdFromContext(c), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// GetFeed 公开帖信息流
// @Summary 获取信息流
// @Tags Post
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PageResult
// @Router /posts/feed [get]
func (h *PostHandler) GetFeed(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)

	result, err := h.posts.GetFeed(c.Request.Context(), getUserIdFromContext(c), p)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPost 帖子详情
// @Summary 获取帖子
// @Tags Post
// @Param id path string true "帖子ID"
// @Success 200 {object} model.Post
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// GetUserPosts 某个用户的帖子列表
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)

	result, err := h.posts.GetUserPosts(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetTrendingTags 热门标签
// @Summary 热门标签
// @Tags Post
// @Success 200 {array} string
// @Router /posts/trending-tags [get]
func (h *PostHandler) GetTrendingTags(c *gin.Context) {
	tags, err := h.posts.GetTrendingTags(c.Request.Context(), 10)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tags)
}

// DeletePost 删除帖子（作者或管理员）
func (h *PostHandler) DeletePost(c *gin.Context) {
	err := h.posts.Delete(c.Request.Context(), getUserIdFromContext(c), getRoleFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "deleted")
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞切换
// @Tags Interaction
// @Param id path string true "帖子ID"
// @Success 200 {object} service.LikeResult
// @Router /posts/{id}/like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	result, err := h.interactions.LikeToggle(c.Request.Context(), getUserIdFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// ToggleReaction 表情反应切换
// @Summary 表情切换
// @Tags Interaction
// @Param id path string true "帖子ID"
// @Param input body ReactionInput true "表情类型"
// @Success 200 {object} service.ReactionResult
// @Router /posts/{id}/react [post]
func (h *PostHandler) ToggleReaction(c *gin.Context) {
	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.interactions.ReactionToggle(c.Request.Context(), getUserIdFromContext(c), c.Param("id"), input.Kind)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags Interaction
// @Param id path string true "帖子ID"
// @Param input body CommentInput true "评论内容"
// @Success 200 {object} service.CommentResult
// @Router /posts/{id}/comments [post]
func (h *PostHandler) AddComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.interactions.CommentCreate(c.Request.Context(), getUserIdFromContext(c), c.Param("id"), input.Content)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetComments 评论列表
func (h *PostHandler) GetComments(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)

	result, err := h.posts.GetComments(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteComment 删除评论（作者或管理员）
func (h *PostHandler) DeleteComment(c *gin.Context) {
	err := h.interactions.CommentDelete(c.Request.Context(), getUserIdFromContext(c), getRoleFromContext(c), c.Param("commentId"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "deleted")
}

// Repost 转发帖子
// @Summary 转发
// @Tags Interaction
// @Param id path string true "帖子ID"
// @Success 200 {object} service.RepostResult
// @Router /posts/{id}/repost [post]
func (h *PostHandler) Repost(c *gin.Context) {
	result, err := h.interactions.RepostCreate(c.Request.Context(), getUserIdFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetStats 帖子聚合统计
// @Summary 帖子统计
// @Tags Interaction
// @Param id path string true "帖子ID"
// @Success 200 {object} service.PostStats
// @Router /posts/{id}/stats [get]
func (h *PostHandler) GetStats(c *gin.Context) {
	stats, err := h.interactions.Stats(c.Request.Context(), getUserIdFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

func getUserIdFromContext(c *gin.Context) string {
	val, _ := c.Get("userID")
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getRoleFromContext(c *gin.Context) int {
	val, _ := c.Get("role")
	switch v := val.(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return userModel.RoleUser
}
