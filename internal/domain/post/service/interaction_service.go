package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"linka/internal/domain/post/model"
	"linka/internal/domain/post/repository"
	userModel "linka/internal/domain/user/model"
	userRepo "linka/internal/domain/user/repository"
	"linka/internal/pkg/antispam"
	"linka/internal/pkg/config"
	"linka/internal/pkg/worker"
	"linka/pkg/apperr"
	"linka/pkg/logger"
	"linka/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 互动结果的 state 取值
const (
	ReactionCreated  = "created"
	ReactionSwitched = "switched"
	ReactionRemoved  = "removed"
)

// CommunityGate 社区侧的准入与过滤策略。帖子不属于任何社区时不会被调用。
// 由 community 模块实现，注入到这里以避免跨域直接依赖。
type CommunityGate interface {
	// EnsureMember 非成员返回 NoPermission 类错误
	EnsureMember(communityID, userID string) error
	PolicyForCommunity(communityID string) (antispam.FilterPolicy, error)
}

// LikeResult 点赞切换结果，计数总是事务内重算出来的
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// ReactionResult 表情切换结果
type ReactionResult struct {
	State     string           `json:"state"` // created, switched, removed
	Kind      string           `json:"kind,omitempty"`
	Reactions map[string]int64 `json:"reactions"`
}

// CommentResult 评论创建结果
type CommentResult struct {
	Comment      *model.Comment `json:"comment"`
	CommentCount int64          `json:"commentCount"`
}

// RepostResult 转发结果
type RepostResult struct {
	Repost *model.Repost `json:"repost"`
}

// PostStats 帖子聚合统计，全部按需重算
type PostStats struct {
	LikeCount    int64            `json:"likeCount"`
	CommentCount int64            `json:"commentCount"`
	Reactions    map[string]int64 `json:"reactions"`
	Liked        bool             `json:"liked"`
}

// InteractionService 互动与反滥用规则引擎。
// 每次动作在单个事务里完成：读冷却、查已有记录、判定、变更、重算计数。
type InteractionService interface {
	LikeToggle(ctx context.Context, actorID, postID string) (*LikeResult, error)
	ReactionToggle(ctx context.Context, actorID, postID, kind string) (*ReactionResult, error)
	CommentCreate(ctx context.Context, actorID, postID, content string) (*CommentResult, error)
	CommentDelete(ctx context.Context, actorID string, role int, commentID string) error
	RepostCreate(ctx context.Context, actorID, postID string) (*RepostResult, error)
	Stats(ctx context.Context, actorID, postID string) (*PostStats, error)
}

type interactionService struct {
	db       *gorm.DB
	posts    repository.PostRepository
	actions  repository.InteractionRepository
	users    userRepo.UserRepository
	tracker  antispam.Tracker
	policies CommunityGate
	activity *worker.ActivityRecorder
	cfg      config.AntiAbuseConfig
	now      func() time.Time
}

func NewInteractionService(
	db *gorm.DB,
	posts repository.PostRepository,
	actions repository.InteractionRepository,
	users userRepo.UserRepository,
	tracker antispam.Tracker,
	policies CommunityGate,
	activity *worker.ActivityRecorder,
	cfg config.AntiAbuseConfig,
) InteractionService {
	return &interactionService{
		db:       db,
		posts:    posts,
		actions:  actions,
		users:    users,
		tracker:  tracker,
		policies: policies,
		activity: activity,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *interactionService) likeCooldown() time.Duration {
	return time.Duration(s.cfg.LikeCooldownSeconds) * time.Second
}

func (s *interactionService) repostCooldown() time.Duration {
	return time.Duration(s.cfg.RepostCooldownMinutes) * time.Minute
}

func (s *interactionService) commentQuota() antispam.CommentQuota {
	return antispam.CommentQuota{
		DailyMax: s.cfg.CommentDailyMax,
		MinGap:   time.Duration(s.cfg.CommentMinGapSeconds) * time.Second,
	}
}

// loadActor 读取操作者并做封禁检查，所有互动入口共用
func loadActor(users userRepo.UserRepository, actorID string) (*userModel.User, error) {
	actor, err := users.GetByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindUnauthorized, "user not found")
		}
		return nil, err
	}
	if actor.IsBanned {
		return nil, apperr.New(apperr.KindBanned, "your account has been suspended")
	}
	return actor, nil
}

func loadPost(posts repository.PostRepository, postID string) (*model.Post, error) {
	post, err := posts.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "post not found")
		}
		return nil, err
	}
	return post, nil
}

// LikeToggle 点赞/取消点赞。
// 取消永远放行；新增依次过帖子冷却、用户冷却、滑动窗口三道闸，
// 任何一道拒绝都不产生写入。放行后创建记录并武装两侧冷却。
func (s *interactionService) LikeToggle(ctx context.Context, actorID, postID string) (*LikeResult, error) {
	now := s.now()
	var result LikeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		posts := s.posts.WithTx(tx)
		actions := s.actions.WithTx(tx)

		actor, err := loadActor(users, actorID)
		if err != nil {
			return err
		}
		post, err := loadPost(posts, postID)
		if err != nil {
			return err
		}
		if post.CommunityID != "" {
			if err := s.policies.EnsureMember(post.CommunityID, actorID); err != nil {
				return err
			}
		}

		existing, err := actions.GetLike(actorID, postID)
		if err != nil {
			return err
		}

		if existing != nil {
			// 取消点赞不受任何限流约束
			if err := actions.DeleteLike(existing); err != nil {
				return err
			}
			result.Liked = false
		} else {
			if !antispam.CooldownOpen(post.LikeCooldownUntil, now) {
				remaining := antispam.CooldownRemaining(post.LikeCooldownUntil, now)
				return apperr.CooldownActive("this post was liked too recently, slow down", remaining)
			}
			if !antispam.CooldownOpen(actor.LikeCooldownUntil, now) {
				remaining := antispam.CooldownRemaining(actor.LikeCooldownUntil, now)
				return apperr.CooldownActive("you are liking too fast, slow down", remaining)
			}

			ok, err := s.tracker.TryConsume(ctx, actorID, antispam.KindLike, now)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.RateLimited("too many likes in a short period, try again later", 0)
			}

			like := &model.Like{UserID: actorID, PostID: postID}
			if err := actions.CreateLike(like); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// 并发重复：记录已经存在，等价于已点赞
					return apperr.New(apperr.KindAlreadyExists, "already liked")
				}
				return err
			}

			until := now.Add(s.likeCooldown())
			post.LikeCooldownUntil = until
			if err := posts.UpdateCooldowns(post); err != nil {
				return err
			}
			if err := users.UpdateLikeCooldown(actorID, until); err != nil {
				return err
			}
			result.Liked = true
		}

		count, err := actions.CountLikes(postID)
		if err != nil {
			return err
		}
		result.LikeCount = count
		return nil
	})
	if err != nil {
		s.recordDenial(antispam.KindLike, err)
		return nil, err
	}

	outcome := "unliked"
	if result.Liked {
		outcome = "liked"
		s.recordActivity(actorID, "like")
	}
	metrics.Default.RecordInteraction(antispam.KindLike, outcome)
	return &result, nil
}

// ReactionToggle 表情反应三态切换：无记录则创建，同表情则删除，不同表情原地换。
// 表情不走冷却和窗口，唯一性由存储层约束兜底。
func (s *interactionService) ReactionToggle(ctx context.Context, actorID, postID, kind string) (*ReactionResult, error) {
	if !model.IsValidReaction(kind) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid reaction type: %s", kind)
	}

	var result ReactionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		posts := s.posts.WithTx(tx)
		actions := s.actions.WithTx(tx)

		if _, err := loadActor(users, actorID); err != nil {
			return err
		}
		if _, err := loadPost(posts, postID); err != nil {
			return err
		}

		existing, err := actions.GetReaction(actorID, postID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			reaction := &model.Reaction{UserID: actorID, PostID: postID, Kind: kind}
			if err := actions.CreateReaction(reaction); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.New(apperr.KindAlreadyExists, "reaction already exists")
				}
				return err
			}
			result.State = ReactionCreated
			result.Kind = kind
		case existing.Kind == kind:
			if err := actions.DeleteReaction(existing); err != nil {
				return err
			}
			result.State = ReactionRemoved
		default:
			if err := actions.UpdateReactionKind(existing, kind); err != nil {
				return err
			}
			result.State = ReactionSwitched
			result.Kind = kind
		}

		counts, err := actions.CountReactionsByKind(postID)
		if err != nil {
			return err
		}
		result.Reactions = counts
		return nil
	})
	if err != nil {
		s.recordDenial("reaction", err)
		return nil, err
	}

	metrics.Default.RecordInteraction("reaction", result.State)
	return &result, nil
}

// CommentCreate 评论创建管线：基本校验、封禁、每日配额与最小间隔、
// 社区过滤链（若帖子属于社区）、垃圾分类。任何一步拒绝都不落库。
// 顺序固定：过滤链先于分类器，命中过滤的文本不会被打分。
func (s *interactionService) CommentCreate(ctx context.Context, actorID, postID, content string) (*CommentResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.KindValidation, "comment content cannot be empty")
	}
	if len(content) > 2000 {
		return nil, apperr.New(apperr.KindValidation, "comment is too long")
	}

	now := s.now()
	var result CommentResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		posts := s.posts.WithTx(tx)

		actor, err := loadActor(users, actorID)
		if err != nil {
			return err
		}
		post, err := loadPost(posts, postID)
		if err != nil {
			return err
		}
		if post.CommunityID != "" {
			if err := s.policies.EnsureMember(post.CommunityID, actorID); err != nil {
				return err
			}
		}

		rolled, ok, reason := s.commentQuota().Check(actor.CommentCountToday, actor.LastCommentAt, now)
		if !ok {
			return apperr.RateLimited(reason, 0)
		}

		if post.CommunityID != "" {
			policy, err := s.policies.PolicyForCommunity(post.CommunityID)
			if err != nil {
				return err
			}
			if allowed, why := policy.Evaluate(content); !allowed {
				return apperr.New(apperr.KindFilteredByCommunity, why)
			}
		}

		verdict := antispam.Classify(content)
		metrics.Default.SpamScore.Observe(verdict.Score)
		if verdict.IsSpam {
			logger.Log.Info("comment rejected as spam",
				zap.String("userID", actorID),
				zap.String("postID", postID),
				zap.Float64("score", verdict.Score))
			return apperr.New(apperr.KindMarkedSpam, "comment looks like spam and was not posted")
		}

		comment := &model.Comment{
			PostID:    postID,
			UserID:    actorID,
			Content:   content,
			SpamScore: verdict.Score,
		}
		if err := posts.CreateComment(comment); err != nil {
			return err
		}

		// 配额计数与评论插入同事务提交，失败一起回滚
		if err := users.UpdateCommentCounters(actorID, rolled+1, now); err != nil {
			return err
		}

		count, err := posts.CountComments(postID)
		if err != nil {
			return err
		}
		result.Comment = comment
		result.CommentCount = count
		return nil
	})
	if err != nil {
		s.recordDenial(antispam.KindComment, err)
		return nil, err
	}

	s.recordActivity(actorID, "comment")
	metrics.Default.RecordInteraction(antispam.KindComment, "created")
	return &result, nil
}

// CommentDelete 只有评论作者或管理员可删
func (s *interactionService) CommentDelete(ctx context.Context, actorID string, role int, commentID string) error {
	comment, err := s.posts.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "comment not found")
		}
		return err
	}
	if comment.UserID != actorID && role != userModel.RoleAdmin {
		return apperr.New(apperr.KindNoPermission, "you can only delete your own comments")
	}
	return s.posts.DeleteComment(comment)
}

// RepostCreate 转发：原帖冷却闸在前，重复检查在后，放行后创建并武装冷却。
// 没有取消转发的反向动作，重复转发报已存在。
func (s *interactionService) RepostCreate(ctx context.Context, actorID, postID string) (*RepostResult, error) {
	now := s.now()
	var result RepostResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		posts := s.posts.WithTx(tx)
		actions := s.actions.WithTx(tx)

		if _, err := loadActor(users, actorID); err != nil {
			return err
		}
		post, err := loadPost(posts, postID)
		if err != nil {
			return err
		}

		if !antispam.CooldownOpen(post.RepostCooldownUntil, now) {
			remaining := antispam.CooldownRemaining(post.RepostCooldownUntil, now)
			return apperr.CooldownActive("this post was reposted recently, try again later", remaining)
		}

		existing, err := actions.GetRepost(actorID, postID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.New(apperr.KindAlreadyExists, "you already reposted this post")
		}

		repost := &model.Repost{UserID: actorID, OriginalPostID: postID}
		if err := actions.CreateRepost(repost); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.KindAlreadyExists, "you already reposted this post")
			}
			return err
		}

		post.RepostCooldownUntil = now.Add(s.repostCooldown())
		if err := posts.UpdateCooldowns(post); err != nil {
			return err
		}

		result.Repost = repost
		return nil
	})
	if err != nil {
		s.recordDenial(antispam.KindRepost, err)
		return nil, err
	}

	s.recordActivity(actorID, "repost")
	metrics.Default.RecordInteraction(antispam.KindRepost, "created")
	return &result, nil
}

// Stats 帖子聚合统计，实时从关系表重算
func (s *interactionService) Stats(ctx context.Context, actorID, postID string) (*PostStats, error) {
	if _, err := loadPost(s.posts, postID); err != nil {
		return nil, err
	}

	likeCount, err := s.actions.CountLikes(postID)
	if err != nil {
		return nil, err
	}
	commentCount, err := s.posts.CountComments(postID)
	if err != nil {
		return nil, err
	}
	reactions, err := s.actions.CountReactionsByKind(postID)
	if err != nil {
		return nil, err
	}

	stats := &PostStats{
		LikeCount:    likeCount,
		CommentCount: commentCount,
		Reactions:    reactions,
	}

	if actorID != "" {
		like, err := s.actions.GetLike(actorID, postID)
		if err != nil {
			return nil, err
		}
		stats.Liked = like != nil
	}
	return stats, nil
}

// recordDenial 把业务拒绝计入指标，系统错误不算拒绝
func (s *interactionService) recordDenial(action string, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindRateLimited:
		metrics.Default.RecordDenial(action, "rate_limited")
	case apperr.KindCooldownActive:
		metrics.Default.RecordDenial(action, "cooldown")
	case apperr.KindMarkedSpam:
		metrics.Default.RecordDenial(action, "spam")
	case apperr.KindFilteredByCommunity:
		metrics.Default.RecordDenial(action, "filtered")
	case apperr.KindBanned:
		metrics.Default.RecordDenial(action, "banned")
	}
}

func (s *interactionService) recordActivity(userID, activityType string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(worker.ActivityTask{
		UserID:       userID,
		ActivityType: activityType,
	})
}
