package repository

import (
	"linka/internal/domain/post/model"

	"gorm.io/gorm"
)

type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository

	Create(post *model.Post) error
	GetByID(id string) (*model.Post, error)
	GetFeed(offset, limit int) ([]model.Post, int64, error)
	GetByUserID(userID string, offset, limit int) ([]model.Post, int64, error)
	UpdateCooldowns(post *model.Post) error
	Delete(post *model.Post) error

	CreateComment(comment *model.Comment) error
	GetCommentByID(id string) (*model.Comment, error)
	GetCommentsByPostID(postID string, offset, limit int) ([]model.Comment, int64, error)
	DeleteComment(comment *model.Comment) error
	CountComments(postID string) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

// --- Post ---

func (r *postRepository) Create(post *model.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) GetByID(id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetFeed(offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.db.Model(&model.Post{}).Where("visibility = ?", "public")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) GetByUserID(userID string, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.db.Model(&model.Post{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdateCooldowns 只更新冷却字段，避免覆盖内容列
func (r *postRepository) UpdateCooldowns(post *model.Post) error {
	return r.db.Model(post).Select("like_cooldown_until", "repost_cooldown_until").Updates(post).Error
}

func (r *postRepository) Delete(post *model.Post) error {
	return r.db.Delete(post).Error
}

// --- Comment ---

func (r *postRepository) CreateComment(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

func (r *postRepository) GetCommentByID(id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *postRepository) GetCommentsByPostID(postID string, offset, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	query := r.db.Model(&model.Comment{}).Where("post_id = ?", postID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at asc").Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *postRepository) DeleteComment(comment *model.Comment) error {
	return r.db.Delete(comment).Error
}

func (r *postRepository) CountComments(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
