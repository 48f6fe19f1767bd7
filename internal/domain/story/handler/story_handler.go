package handler

import (
	"net/http"

	"linka/internal/domain/story/service"
	userModel "linka/internal/domain/user/model"
	"linka/pkg/response"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	service service.StoryService
}

func NewStoryHandler(s service.StoryService) *StoryHandler {
	return &StoryHandler{service: s}
}

// CreateStory 发布故事
// @Summary 发布故事
// @Tags Story
// @Accept json
// @Produce json
// @Param input body service.CreateStoryInput true "故事内容"
// @Success 200 {object} model.Story
// @Router /stories [post]
func (h *StoryHandler) CreateStory(c *gin.Context) {
	var input service.CreateStoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	story, err := h.service.Create(c.Request.Context(), getUserIdFromContext(c), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, story)
}

// ListStories 故事列表，只返回未过期的
func (h *StoryHandler) ListStories(c *gin.Context) {
	items, err := h.service.ListActive(c.Request.Context(), getUserIdFromContext(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, items)
}

// ViewStory 标记故事已看，幂等
// @Summary 浏览故事
// @Tags Story
// @Param id path string true "故事ID"
// @Success 200 {object} service.ViewResult
// @Router /stories/{id}/view [post]
func (h *StoryHandler) ViewStory(c *gin.Context) {
	result, err := h.service.MarkViewed(c.Request.Context(), getUserIdFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteStory 删除故事
func (h *StoryHandler) DeleteStory(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), getUserIdFromContext(c), getRoleFromContext(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, nil)
}

func getUserIdFromContext(c *gin.Context) string {
	val, _ := c.Get("userID")
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getRoleFromContext(c *gin.Context) int {
	val, exists := c.Get("role")
	if !exists {
		return userModel.RoleUser
	}
	switch v := val.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return userModel.RoleUser
	}
}
