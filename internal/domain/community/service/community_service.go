package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"linka/internal/domain/community/model"
	"linka/internal/domain/community/repository"
	"linka/internal/pkg/antispam"
	"linka/pkg/apperr"
	"linka/pkg/cache"
	"linka/pkg/logger"
	"linka/pkg/utils"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const policyCacheTTL = time.Minute

// 外观设置的合法取值
var (
	validColorSchemes = []string{"default", "blue", "green", "red", "purple"}
	validFontSizes    = []string{"small", "medium", "large"}
	validThemes       = []string{"light", "dark"}
)

const maxCustomCSSLen = 5000

// CreateCommunityInput 创建社区参数
type CreateCommunityInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPrivate   bool   `json:"isPrivate"`
}

// FilterSettingsInput 评论过滤设置
type FilterSettingsInput struct {
	CommentsEnabled bool   `json:"commentsEnabled"`
	ProfanityFilter bool   `json:"profanityFilter"`
	HostileFilter   bool   `json:"hostileFilter"`
	KeywordFilter   bool   `json:"keywordFilter"`
	BannedKeywords  string `json:"bannedKeywords"`
}

// DesignSettings 社区外观设置。字段集合是封闭的，未知键直接拒绝。
type DesignSettings struct {
	ColorScheme string `json:"color_scheme"`
	FontSize    string `json:"font_size"`
	Theme       string `json:"theme"`
	CustomCSS   string `json:"custom_css"`
}

// CommunityLikeResult 社区帖点赞结果
type CommunityLikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

type CommunityService interface {
	Create(ctx context.Context, creatorID string, input CreateCommunityInput) (*model.Community, error)
	GetByID(ctx context.Context, id string) (*model.Community, error)
	GetList(ctx context.Context, page utils.Pagination) (*utils.PageResult, error)
	Join(ctx context.Context, communityID, userID string) error
	Leave(ctx context.Context, communityID, userID string) error

	CreatePost(ctx context.Context, communityID, userID, content string) (*model.CommunityPost, error)
	GetPosts(ctx context.Context, communityID string, page utils.Pagination) (*utils.PageResult, error)
	ToggleLike(ctx context.Context, postID, userID string) (*CommunityLikeResult, error)
	AddComment(ctx context.Context, postID, userID, content string) (*model.CommunityComment, error)

	SaveFilterSettings(ctx context.Context, communityID, userID string, input FilterSettingsInput) error
	GetDesignSettings(ctx context.Context, communityID string) (*DesignSettings, error)
	ApplyDesignSettings(ctx context.Context, communityID, userID string, raw []byte) (*DesignSettings, error)
	ResetDesignSettings(ctx context.Context, communityID, userID string) error

	UpdateMemberRole(ctx context.Context, communityID, actorID, targetID, role string) error

	// CommunityGate 实现，供互动引擎使用
	EnsureMember(communityID, userID string) error
	PolicyForCommunity(communityID string) (antispam.FilterPolicy, error)
}

type communityService struct {
	repo  repository.CommunityRepository
	cache cache.CacheService
}

func NewCommunityService(repo repository.CommunityRepository, cacheService cache.CacheService) CommunityService {
	return &communityService{repo: repo, cache: cacheService}
}

func (s *communityService) getCommunity(id string) (*model.Community, error) {
	community, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "community not found")
		}
		return nil, err
	}
	return community, nil
}

func (s *communityService) Create(ctx context.Context, creatorID string, input CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "community name cannot be empty")
	}

	community := &model.Community{
		Name:            name,
		Description:     input.Description,
		Category:        input.Category,
		IsPrivate:       input.IsPrivate,
		CreatorID:       creatorID,
		CommentsEnabled: true,
		ColorScheme:     "default",
		FontSize:        "medium",
		Theme:           "light",
	}

	if err := s.repo.Create(community); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.KindAlreadyExists, "a community with this name already exists")
		}
		return nil, err
	}

	// 创建者自动成为管理员成员
	member := &model.CommunityMember{
		CommunityID: community.ID,
		UserID:      creatorID,
		Role:        model.MemberRoleAdmin,
	}
	if err := s.repo.CreateMember(member); err != nil {
		return nil, err
	}
	return community, nil
}

func (s *communityService) GetByID(ctx context.Context, id string) (*model.Community, error) {
	return s.getCommunity(id)
}

func (s *communityService) GetList(ctx context.Context, page utils.Pagination) (*utils.PageResult, error) {
	page.Normalize()
	communities, total, err := s.repo.GetList(page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: communities, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Join 加入社区，重复加入不报错
func (s *communityService) Join(ctx context.Context, communityID, userID string) error {
	if _, err := s.getCommunity(communityID); err != nil {
		return err
	}

	existing, err := s.repo.GetMember(communityID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	member := &model.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        model.MemberRoleMember,
	}
	if err := s.repo.CreateMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

// Leave 退出社区，创建者不能退出
func (s *communityService) Leave(ctx context.Context, communityID, userID string) error {
	community, err := s.getCommunity(communityID)
	if err != nil {
		return err
	}
	if community.CreatorID == userID {
		return apperr.New(apperr.KindNoPermission, "the creator cannot leave the community, transfer ownership first")
	}

	member, err := s.repo.GetMember(communityID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}
	return s.repo.DeleteMember(member)
}

// CreatePost 社区发帖，只有创建者可以发布
func (s *communityService) CreatePost(ctx context.Context, communityID, userID, content string) (*model.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.KindValidation, "post content cannot be empty")
	}

	community, err := s.getCommunity(communityID)
	if err != nil {
		return nil, err
	}
	if community.CreatorID != userID {
		return nil, apperr.New(apperr.KindNoPermission, "only the community creator can publish posts")
	}

	post := &model.CommunityPost{
		CommunityID: communityID,
		UserID:      userID,
		Content:     content,
	}
	if err := s.repo.CreatePost(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *communityService) GetPosts(ctx context.Context, communityID string, page utils.Pagination) (*utils.PageResult, error) {
	page.Normalize()

	if _, err := s.getCommunity(communityID); err != nil {
		return nil, err
	}

	posts, total, err := s.repo.GetPosts(communityID, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: posts, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// ToggleLike 社区帖点赞切换，成员资格是唯一的门槛
func (s *communityService) ToggleLike(ctx context.Context, postID, userID string) (*CommunityLikeResult, error) {
	post, err := s.repo.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "community post not found")
		}
		return nil, err
	}
	if err := s.EnsureMember(post.CommunityID, userID); err != nil {
		return nil, err
	}

	var result CommunityLikeResult
	existing, err := s.repo.GetLike(userID, postID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.repo.DeleteLike(existing); err != nil {
			return nil, err
		}
		result.Liked = false
	} else {
		like := &model.CommunityLike{UserID: userID, PostID: postID}
		if err := s.repo.CreateLike(like); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperr.New(apperr.KindAlreadyExists, "already liked")
			}
			return nil, err
		}
		result.Liked = true
	}

	count, err := s.repo.CountLikes(postID)
	if err != nil {
		return nil, err
	}
	result.LikeCount = count
	return &result, nil
}

// AddComment 社区评论：成员资格之后过社区过滤链，不通过不落库
func (s *communityService) AddComment(ctx context.Context, postID, userID, content string) (*model.CommunityComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.KindValidation, "comment content cannot be empty")
	}

	post, err := s.repo.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "community post not found")
		}
		return nil, err
	}
	if err := s.EnsureMember(post.CommunityID, userID); err != nil {
		return nil, err
	}

	policy, err := s.PolicyForCommunity(post.CommunityID)
	if err != nil {
		return nil, err
	}
	if allowed, reason := policy.Evaluate(content); !allowed {
		return nil, apperr.New(apperr.KindFilteredByCommunity, reason)
	}

	comment := &model.CommunityComment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.CreateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// SaveFilterSettings 保存评论过滤设置，要求管理员或版主
func (s *communityService) SaveFilterSettings(ctx context.Context, communityID, userID string, input FilterSettingsInput) error {
	community, err := s.getCommunity(communityID)
	if err != nil {
		return err
	}

	member, err := s.repo.GetMember(communityID, userID)
	if err != nil {
		return err
	}
	if member == nil || !member.CanManage() {
		return apperr.New(apperr.KindNoPermission, "only admins and moderators can change comment settings")
	}

	community.CommentsEnabled = input.CommentsEnabled
	community.ProfanityFilter = input.ProfanityFilter
	community.HostileFilter = input.HostileFilter
	community.KeywordFilter = input.KeywordFilter
	community.BannedKeywords = input.BannedKeywords

	if err := s.repo.Update(community); err != nil {
		return err
	}
	s.invalidatePolicy(ctx, communityID)
	return nil
}

func (s *communityService) GetDesignSettings(ctx context.Context, communityID string) (*DesignSettings, error) {
	community, err := s.getCommunity(communityID)
	if err != nil {
		return nil, err
	}
	return &DesignSettings{
		ColorScheme: community.ColorScheme,
		FontSize:    community.FontSize,
		Theme:       community.Theme,
		CustomCSS:   community.CustomCSS,
	}, nil
}

// ApplyDesignSettings 应用外观设置。载荷是封闭结构：
// 未知键、非法枚举值、超长 CSS 都整体拒绝，不做部分应用。
func (s *communityService) ApplyDesignSettings(ctx context.Context, communityID, userID string, raw []byte) (*DesignSettings, error) {
	community, err := s.getCommunity(communityID)
	if err != nil {
		return nil, err
	}
	if community.CreatorID != userID {
		return nil, apperr.New(apperr.KindNoPermission, "only the community creator can change design settings")
	}

	settings, err := decodeDesignSettings(raw)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"color_scheme": settings.ColorScheme,
		"font_size":    settings.FontSize,
		"theme":        settings.Theme,
		"custom_css":   settings.CustomCSS,
	}
	if err := s.repo.UpdateDesign(communityID, fields); err != nil {
		return nil, err
	}

	logger.Log.Info("community design updated",
		zap.String("communityID", communityID),
		zap.String("userID", userID))
	return settings, nil
}

// ResetDesignSettings 恢复默认外观
func (s *communityService) ResetDesignSettings(ctx context.Context, communityID, userID string) error {
	community, err := s.getCommunity(communityID)
	if err != nil {
		return err
	}
	if community.CreatorID != userID {
		return apperr.New(apperr.KindNoPermission, "only the community creator can reset design settings")
	}

	return s.repo.UpdateDesign(communityID, map[string]interface{}{
		"color_scheme": "default",
		"font_size":    "medium",
		"theme":        "light",
		"custom_css":   "",
	})
}

// UpdateMemberRole 调整成员角色，管理员专属；创建者的角色不可变更
func (s *communityService) UpdateMemberRole(ctx context.Context, communityID, actorID, targetID, role string) error {
	switch role {
	case model.MemberRoleMember, model.MemberRoleModerator, model.MemberRoleAdmin:
	default:
		return apperr.Newf(apperr.KindValidation, "invalid member role: %s", role)
	}

	community, err := s.getCommunity(communityID)
	if err != nil {
		return err
	}
	if community.CreatorID == targetID {
		return apperr.New(apperr.KindNoPermission, "the creator role cannot be changed")
	}

	actor, err := s.repo.GetMember(communityID, actorID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != model.MemberRoleAdmin {
		return apperr.New(apperr.KindNoPermission, "only admins can change member roles")
	}

	target, err := s.repo.GetMember(communityID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.New(apperr.KindNotFound, "member not found")
	}
	return s.repo.UpdateMemberRole(target, role)
}

// EnsureMember 非成员拒绝
func (s *communityService) EnsureMember(communityID, userID string) error {
	member, err := s.repo.GetMember(communityID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperr.New(apperr.KindNoPermission, "you must be a member of this community")
	}
	return nil
}

// PolicyForCommunity 解析社区过滤策略，短 TTL 缓存
func (s *communityService) PolicyForCommunity(communityID string) (antispam.FilterPolicy, error) {
	cacheKey := "community:policy:" + communityID

	var policy antispam.FilterPolicy
	if s.cache != nil {
		if err := s.cache.Get(context.Background(), cacheKey, &policy); err == nil {
			return policy, nil
		}
	}

	community, err := s.getCommunity(communityID)
	if err != nil {
		return antispam.FilterPolicy{}, err
	}
	policy = community.FilterPolicy()

	if s.cache != nil {
		if err := s.cache.Set(context.Background(), cacheKey, policy, policyCacheTTL); err != nil {
			logger.Log.Warn("policy cache write failed", zap.Error(err))
		}
	}
	return policy, nil
}

func (s *communityService) invalidatePolicy(ctx context.Context, communityID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "community:policy:"+communityID); err != nil {
		logger.Log.Warn("policy cache invalidation failed", zap.Error(err))
	}
}

// decodeDesignSettings 严格解码：未知键报错，枚举值校验
func decodeDesignSettings(raw []byte) (*DesignSettings, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	var settings DesignSettings
	if err := decoder.Decode(&settings); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid design settings payload", err)
	}

	if settings.ColorScheme == "" {
		settings.ColorScheme = "default"
	}
	if settings.FontSize == "" {
		settings.FontSize = "medium"
	}
	if settings.Theme == "" {
		settings.Theme = "light"
	}

	if !lo.Contains(validColorSchemes, settings.ColorScheme) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid color scheme: %s", settings.ColorScheme)
	}
	if !lo.Contains(validFontSizes, settings.FontSize) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid font size: %s", settings.FontSize)
	}
	if !lo.Contains(validThemes, settings.Theme) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid theme: %s", settings.Theme)
	}
	if len(settings.CustomCSS) > maxCustomCSSLen {
		return nil, apperr.New(apperr.KindValidation, "custom css is too long")
	}
	return &settings, nil
}
