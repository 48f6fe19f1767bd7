package repository

import (
	"linka/internal/domain/post/model"

	"gorm.io/gorm"
)

// InteractionRepository 互动记录的存取。
// WithTx 返回绑定到事务的副本，toggle 的检查和写入必须走同一事务。
type InteractionRepository interface {
	WithTx(tx *gorm.DB) InteractionRepository

	GetLike(userID, postID string) (*model.Like, error)
	CreateLike(like *model.Like) error
	DeleteLike(like *model.Like) error
	CountLikes(postID string) (int64, error)

	GetReaction(userID, postID string) (*model.Reaction, error)
	CreateReaction(reaction *model.Reaction) error
	UpdateReactionKind(reaction *model.Reaction, kind string) error
	DeleteReaction(reaction *model.Reaction) error
	CountReactionsByKind(postID string) (map[string]int64, error)

	GetRepost(userID, postID string) (*model.Repost, error)
	CreateRepost(repost *model.Repost) error
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) WithTx(tx *gorm.DB) InteractionRepository {
	return &interactionRepository{db: tx}
}

// --- Like ---

func (r *interactionRepository) GetLike(userID, postID string) (*model.Like, error) {
	var like model.Like
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

func (r *interactionRepository) CreateLike(like *model.Like) error {
	return r.db.Create(like).Error
}

func (r *interactionRepository) DeleteLike(like *model.Like) error {
	return r.db.Unscoped().Delete(like).Error
}

func (r *interactionRepository) CountLikes(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// --- Reaction ---

func (r *interactionRepository) GetReaction(userID, postID string) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&reaction).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &reaction, nil
}

func (r *interactionRepository) CreateReaction(reaction *model.Reaction) error {
	return r.db.Create(reaction).Error
}

// UpdateReactionKind 换表情原地更新，保留创建时间
func (r *interactionRepository) UpdateReactionKind(reaction *model.Reaction, kind string) error {
	return r.db.Model(reaction).Update("reaction_type", kind).Error
}

func (r *interactionRepository) DeleteReaction(reaction *model.Reaction) error {
	return r.db.Unscoped().Delete(reaction).Error
}

func (r *interactionRepository) CountReactionsByKind(postID string) (map[string]int64, error) {
	type row struct {
		ReactionType string
		Count        int64
	}
	var rows []row
	err := r.db.Model(&model.Reaction{}).
		Select("reaction_type, count(*) as count").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(model.ReactionKinds))
	for _, kind := range model.ReactionKinds {
		counts[kind] = 0
	}
	for _, r := range rows {
		counts[r.ReactionType] = r.Count
	}
	return counts, nil
}

// --- Repost ---

func (r *interactionRepository) GetRepost(userID, postID string) (*model.Repost, error) {
	var repost model.Repost
	err := r.db.Where("user_id = ? AND original_post_id = ?", userID, postID).First(&repost).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &repost, nil
}

func (r *interactionRepository) CreateRepost(repost *model.Repost) error {
	return r.db.Create(repost).Error
}
