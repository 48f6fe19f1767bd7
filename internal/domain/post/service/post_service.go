package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linka/internal/domain/post/model"
	"linka/internal/domain/post/repository"
	userModel "linka/internal/domain/user/model"
	"linka/pkg/apperr"
	"linka/pkg/cache"
	"linka/pkg/logger"
	"linka/pkg/utils"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const feedCacheTTL = 30 * time.Second

// CreatePostInput 发帖参数
type CreatePostInput struct {
	Content    string `json:"content" binding:"required"`
	Emoji      string `json:"emoji"`
	Visibility string `json:"visibility"`
	Category   string `json:"category"`
	Tags       string `json:"tags"`
}

// FeedItem 信息流条目，聚合计数随帖子一并返回
type FeedItem struct {
	Post         model.Post `json:"post"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	Liked        bool       `json:"liked"`
}

type PostService interface {
	Create(ctx context.Context, userID string, input CreatePostInput) (*model.Post, error)
	GetByID(ctx context.Context, postID string) (*model.Post, error)
	GetFeed(ctx context.Context, viewerID string, page utils.Pagination) (*utils.PageResult, error)
	GetUserPosts(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error)
	GetComments(ctx context.Context, postID string, page utils.Pagination) (*utils.PageResult, error)
	GetTrendingTags(ctx context.Context, top int) ([]string, error)
	Delete(ctx context.Context, actorID string, role int, postID string) error
}

type postService struct {
	posts   repository.PostRepository
	actions repository.InteractionRepository
	cache   cache.CacheService
}

func NewPostService(posts repository.PostRepository, actions repository.InteractionRepository, cacheService cache.CacheService) PostService {
	return &postService{posts: posts, actions: actions, cache: cacheService}
}

func (s *postService) Create(ctx context.Context, userID string, input CreatePostInput) (*model.Post, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperr.New(apperr.KindValidation, "post content cannot be empty")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = "public"
	}
	switch visibility {
	case "public", "friends", "private":
	default:
		return nil, apperr.Newf(apperr.KindValidation, "invalid visibility: %s", visibility)
	}

	post := &model.Post{
		UserID:     userID,
		Content:    content,
		Emoji:      input.Emoji,
		Visibility: visibility,
		Category:   input.Category,
		Tags:       input.Tags,
	}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx)
	return post, nil
}

func (s *postService) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "post not found")
		}
		return nil, err
	}
	return post, nil
}

// GetFeed 公开帖信息流。第一页走缓存，后续页直查，
// 发帖和删帖时整体失效。
func (s *postService) GetFeed(ctx context.Context, viewerID string, page utils.Pagination) (*utils.PageResult, error) {
	page.Normalize()

	cacheKey := fmt.Sprintf("feed:page:%d:limit:%d", page.Page, page.Limit)
	if viewerID == "" && page.Page == 1 {
		var cached utils.PageResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Log.Warn("feed cache read failed", zap.Error(err))
		}
	}

	posts, total, err := s.posts.GetFeed(page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	items, err := s.buildFeedItems(posts, viewerID)
	if err != nil {
		return nil, err
	}

	result := &utils.PageResult{
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
		List:  items,
	}

	if viewerID == "" && page.Page == 1 {
		if err := s.cache.Set(ctx, cacheKey, result, feedCacheTTL); err != nil {
			logger.Log.Warn("feed cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *postService) GetUserPosts(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error) {
	page.Normalize()

	posts, total, err := s.posts.GetByUserID(userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	items, err := s.buildFeedItems(posts, "")
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{Total: total, Page: page.Page, Limit: page.Limit, List: items}, nil
}

func (s *postService) GetComments(ctx context.Context, postID string, page utils.Pagination) (*utils.PageResult, error) {
	page.Normalize()

	if _, err := s.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, total, err := s.posts.GetCommentsByPostID(postID, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{Total: total, Page: page.Page, Limit: page.Limit, List: comments}, nil
}

// GetTrendingTags 基于最近的公开帖统计热门标签
func (s *postService) GetTrendingTags(ctx context.Context, top int) ([]string, error) {
	posts, _, err := s.posts.GetFeed(0, 100)
	if err != nil {
		return nil, err
	}
	return TrendingTags(posts, top), nil
}

func (s *postService) Delete(ctx context.Context, actorID string, role int, postID string) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID && role != userModel.RoleAdmin {
		return apperr.New(apperr.KindNoPermission, "you can only delete your own posts")
	}
	if err := s.posts.Delete(post); err != nil {
		return err
	}
	s.invalidateFeed(ctx)
	return nil
}

func (s *postService) buildFeedItems(posts []model.Post, viewerID string) ([]FeedItem, error) {
	items := make([]FeedItem, 0, len(posts))
	for _, post := range posts {
		likeCount, err := s.actions.CountLikes(post.ID)
		if err != nil {
			return nil, err
		}
		commentCount, err := s.posts.CountComments(post.ID)
		if err != nil {
			return nil, err
		}
		item := FeedItem{Post: post, LikeCount: likeCount, CommentCount: commentCount}
		if viewerID != "" {
			like, err := s.actions.GetLike(viewerID, post.ID)
			if err != nil {
				return nil, err
			}
			item.Liked = like != nil
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *postService) invalidateFeed(ctx context.Context) {
	if err := s.cache.InvalidatePattern(ctx, "feed:*"); err != nil {
		logger.Log.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

// TrendingTags 统计一批帖子里出现最多的标签
func TrendingTags(posts []model.Post, top int) []string {
	counts := map[string]int{}
	for _, p := range posts {
		for _, t := range p.GetTagsList() {
			counts[strings.ToLower(t)]++
		}
	}
	tags := lo.Keys(counts)
	// 次数降序，同次数按字典序稳定
	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			if counts[tags[j]] > counts[tags[i]] ||
				(counts[tags[j]] == counts[tags[i]] && tags[j] < tags[i]) {
				tags[i], tags[j] = tags[j], tags[i]
			}
		}
	}
	if top > 0 && len(tags) > top {
		tags = tags[:top]
	}
	return tags
}
