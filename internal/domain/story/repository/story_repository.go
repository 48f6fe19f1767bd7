package repository

import (
	"errors"
	"time"

	"linka/internal/domain/story/model"

	"gorm.io/gorm"
)

type StoryRepository interface {
	WithTx(tx *gorm.DB) StoryRepository

	Create(story *model.Story) error
	GetByID(id string) (*model.Story, error)
	ListActive(now time.Time) ([]model.Story, error)
	Delete(story *model.Story) error

	GetView(storyID, userID string) (*model.StoryView, error)
	CreateView(view *model.StoryView) error
	CountViews(storyID string) (int64, error)
	ViewedStoryIDs(userID string, storyIDs []string) (map[string]bool, error)
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) WithTx(tx *gorm.DB) StoryRepository {
	return &storyRepository{db: tx}
}

func (r *storyRepository) Create(story *model.Story) error {
	return r.db.Create(story).Error
}

func (r *storyRepository) GetByID(id string) (*model.Story, error) {
	var story model.Story
	if err := r.db.Where("id = ?", id).First(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// ListActive 按创建时间倒序返回仍在有效期内的故事
func (r *storyRepository) ListActive(now time.Time) ([]model.Story, error) {
	var stories []model.Story
	cutoff := now.Add(-model.StoryTTL)
	err := r.db.
		Where("created_at >= ? AND expires_at > ?", cutoff, now).
		Order("created_at desc").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) Delete(story *model.Story) error {
	return r.db.Delete(story).Error
}

func (r *storyRepository) GetView(storyID, userID string) (*model.StoryView, error) {
	var view model.StoryView
	err := r.db.Where("story_id = ? AND user_id = ?", storyID, userID).First(&view).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &view, nil
}

func (r *storyRepository) CreateView(view *model.StoryView) error {
	return r.db.Create(view).Error
}

func (r *storyRepository) CountViews(storyID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.StoryView{}).Where("story_id = ?", storyID).Count(&count).Error
	return count, err
}

// ViewedStoryIDs 批量查询用户已看过的故事集合
func (r *storyRepository) ViewedStoryIDs(userID string, storyIDs []string) (map[string]bool, error) {
	if len(storyIDs) == 0 {
		return map[string]bool{}, nil
	}

	var ids []string
	err := r.db.Model(&model.StoryView{}).
		Where("user_id = ? AND story_id IN ?", userID, storyIDs).
		Pluck("story_id", &ids).Error
	if err != nil {
		return nil, err
	}

	viewed := make(map[string]bool, len(ids))
	for _, id := range ids {
		viewed[id] = true
	}
	return viewed, nil
}
