package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"linka/internal/domain/story/model"
	"linka/internal/domain/story/repository"
	userModel "linka/internal/domain/user/model"
	userRepository "linka/internal/domain/user/repository"
	"linka/internal/pkg/worker"
	"linka/pkg/apperr"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const maxCaptionLen = 500

var validMediaTypes = []string{model.MediaTypeImage, model.MediaTypeVideo}

// CreateStoryInput 创建故事的入参
type CreateStoryInput struct {
	MediaType string `json:"mediaType" binding:"required"`
	MediaPath string `json:"mediaPath" binding:"required"`
	Caption   string `json:"caption"`
}

// StoryAuthor 故事作者摘要
type StoryAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// StoryItem 故事列表项，浏览计数始终重算
type StoryItem struct {
	Story     model.Story `json:"story"`
	Author    StoryAuthor `json:"author"`
	ViewCount int64       `json:"viewCount"`
	Viewed    bool        `json:"viewed"`
}

// ViewResult 标记浏览的结果
type ViewResult struct {
	Viewed    bool  `json:"viewed"`
	ViewCount int64 `json:"viewCount"`
}

type StoryService interface {
	Create(ctx context.Context, userID string, input CreateStoryInput) (*model.Story, error)
	ListActive(ctx context.Context, viewerID string) ([]StoryItem, error)
	MarkViewed(ctx context.Context, viewerID, storyID string) (*ViewResult, error)
	Delete(ctx context.Context, actorID string, actorRole int, storyID string) error
}

type storyService struct {
	db       *gorm.DB
	repo     repository.StoryRepository
	users    userRepository.UserRepository
	activity *worker.ActivityRecorder

	now func() time.Time
}

func NewStoryService(db *gorm.DB, repo repository.StoryRepository, users userRepository.UserRepository, activity *worker.ActivityRecorder) StoryService {
	return &storyService{
		db:       db,
		repo:     repo,
		users:    users,
		activity: activity,
		now:      time.Now,
	}
}

func (s *storyService) Create(ctx context.Context, userID string, input CreateStoryInput) (*model.Story, error) {
	if !lo.Contains(validMediaTypes, input.MediaType) {
		return nil, apperr.Newf(apperr.KindValidation, "unsupported media type: %s", input.MediaType)
	}
	if strings.TrimSpace(input.MediaPath) == "" {
		return nil, apperr.New(apperr.KindValidation, "media path is required")
	}
	if len(input.Caption) > maxCaptionLen {
		return nil, apperr.New(apperr.KindValidation, "caption is too long")
	}

	actor, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if actor.IsBanned {
		return nil, apperr.New(apperr.KindBanned, "account is banned")
	}

	now := s.now()
	story := &model.Story{
		UserID:    userID,
		MediaType: input.MediaType,
		MediaPath: input.MediaPath,
		Caption:   input.Caption,
		ExpiresAt: now.Add(model.StoryTTL),
	}
	if err := s.repo.Create(story); err != nil {
		return nil, err
	}

	s.recordActivity(userID, "story")
	return story, nil
}

// ListActive 返回有效期内的故事，附带作者摘要和浏览状态
func (s *storyService) ListActive(ctx context.Context, viewerID string) ([]StoryItem, error) {
	stories, err := s.repo.ListActive(s.now())
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return []StoryItem{}, nil
	}

	storyIDs := lo.Map(stories, func(st model.Story, _ int) string { return st.ID })

	viewed := map[string]bool{}
	if viewerID != "" {
		viewed, err = s.repo.ViewedStoryIDs(viewerID, storyIDs)
		if err != nil {
			return nil, err
		}
	}

	// 同一作者只查一次
	authors := make(map[string]*userModel.User)
	for _, id := range lo.Uniq(lo.Map(stories, func(st model.Story, _ int) string { return st.UserID })) {
		author, err := s.users.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		authors[id] = author
	}

	items := make([]StoryItem, 0, len(stories))
	for _, st := range stories {
		count, err := s.repo.CountViews(st.ID)
		if err != nil {
			return nil, err
		}

		item := StoryItem{Story: st, ViewCount: count, Viewed: viewed[st.ID]}
		if author, ok := authors[st.UserID]; ok {
			item.Author = StoryAuthor{
				ID:        author.ID,
				Username:  author.Username,
				FirstName: author.FirstName,
				LastName:  author.LastName,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkViewed 记录一次浏览。重复浏览是幂等的，唯一约束兜底并发
func (s *storyService) MarkViewed(ctx context.Context, viewerID, storyID string) (*ViewResult, error) {
	var result ViewResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		story, err := repo.GetByID(storyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "story not found")
			}
			return err
		}
		if story.IsExpired(s.now()) {
			return apperr.New(apperr.KindNotFound, "story has expired")
		}

		existing, err := repo.GetView(storyID, viewerID)
		if err != nil {
			return err
		}
		if existing == nil {
			err := repo.CreateView(&model.StoryView{StoryID: storyID, UserID: viewerID})
			if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}

		count, err := repo.CountViews(storyID)
		if err != nil {
			return err
		}
		result = ViewResult{Viewed: true, ViewCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *storyService) Delete(ctx context.Context, actorID string, actorRole int, storyID string) error {
	story, err := s.repo.GetByID(storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "story not found")
		}
		return err
	}
	if story.UserID != actorID && actorRole != userModel.RoleAdmin {
		return apperr.New(apperr.KindNoPermission, "only the author can delete this story")
	}
	return s.repo.Delete(story)
}

func (s *storyService) recordActivity(userID, activityType string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(worker.ActivityTask{UserID: userID, ActivityType: activityType})
}
