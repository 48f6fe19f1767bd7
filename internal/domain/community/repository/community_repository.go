package repository

import (
	"linka/internal/domain/community/model"

	"gorm.io/gorm"
)

type CommunityRepository interface {
	WithTx(tx *gorm.DB) CommunityRepository

	Create(community *model.Community) error
	GetByID(id string) (*model.Community, error)
	GetList(offset, limit int) ([]model.Community, int64, error)
	Update(community *model.Community) error
	UpdateDesign(id string, fields map[string]interface{}) error

	GetMember(communityID, userID string) (*model.CommunityMember, error)
	CreateMember(member *model.CommunityMember) error
	DeleteMember(member *model.CommunityMember) error
	GetMembers(communityID string) ([]model.CommunityMember, error)
	UpdateMemberRole(member *model.CommunityMember, role string) error
	CountMembers(communityID string) (int64, error)

	CreatePost(post *model.CommunityPost) error
	GetPostByID(id string) (*model.CommunityPost, error)
	GetPosts(communityID string, offset, limit int) ([]model.CommunityPost, int64, error)

	GetLike(userID, postID string) (*model.CommunityLike, error)
	CreateLike(like *model.CommunityLike) error
	DeleteLike(like *model.CommunityLike) error
	CountLikes(postID string) (int64, error)

	CreateComment(comment *model.CommunityComment) error
	GetComments(postID string) ([]model.CommunityComment, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) WithTx(tx *gorm.DB) CommunityRepository {
	return &communityRepository{db: tx}
}

func (r *communityRepository) Create(community *model.Community) error {
	return r.db.Create(community).Error
}

func (r *communityRepository) GetByID(id string) (*model.Community, error) {
	var community model.Community
	if err := r.db.Where("id = ?", id).First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetList(offset, limit int) ([]model.Community, int64, error) {
	var communities []model.Community
	var total int64

	if err := r.db.Model(&model.Community{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("created_at desc").Offset(offset).Limit(limit).Find(&communities).Error; err != nil {
		return nil, 0, err
	}
	return communities, total, nil
}

func (r *communityRepository) Update(community *model.Community) error {
	return r.db.Save(community).Error
}

// UpdateDesign 只更新传入的外观字段
func (r *communityRepository) UpdateDesign(id string, fields map[string]interface{}) error {
	return r.db.Model(&model.Community{}).Where("id = ?", id).Updates(fields).Error
}

// --- Member ---

func (r *communityRepository) GetMember(communityID, userID string) (*model.CommunityMember, error) {
	var member model.CommunityMember
	err := r.db.Where("community_id = ? AND user_id = ?", communityID, userID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *communityRepository) CreateMember(member *model.CommunityMember) error {
	return r.db.Create(member).Error
}

func (r *communityRepository) DeleteMember(member *model.CommunityMember) error {
	return r.db.Unscoped().Delete(member).Error
}

func (r *communityRepository) GetMembers(communityID string) ([]model.CommunityMember, error) {
	var members []model.CommunityMember
	err := r.db.Where("community_id = ?", communityID).Order("created_at asc").Find(&members).Error
	return members, err
}

func (r *communityRepository) UpdateMemberRole(member *model.CommunityMember, role string) error {
	return r.db.Model(member).Update("role", role).Error
}

func (r *communityRepository) CountMembers(communityID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.CommunityMember{}).Where("community_id = ?", communityID).Count(&count).Error
	return count, err
}

// --- Post ---

func (r *communityRepository) CreatePost(post *model.CommunityPost) error {
	return r.db.Create(post).Error
}

func (r *communityRepository) GetPostByID(id string) (*model.CommunityPost, error) {
	var post model.CommunityPost
	if err := r.db.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *communityRepository) GetPosts(communityID string, offset, limit int) ([]model.CommunityPost, int64, error) {
	var posts []model.CommunityPost
	var total int64

	query := r.db.Model(&model.CommunityPost{}).Where("community_id = ?", communityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// --- Like ---

func (r *communityRepository) GetLike(userID, postID string) (*model.CommunityLike, error) {
	var like model.CommunityLike
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

func (r *communityRepository) CreateLike(like *model.CommunityLike) error {
	return r.db.Create(like).Error
}

func (r *communityRepository) DeleteLike(like *model.CommunityLike) error {
	return r.db.Unscoped().Delete(like).Error
}

func (r *communityRepository) CountLikes(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.CommunityLike{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// --- Comment ---

func (r *communityRepository) CreateComment(comment *model.CommunityComment) error {
	return r.db.Create(comment).Error
}

func (r *communityRepository) GetComments(postID string) ([]model.CommunityComment, error) {
	var comments []model.CommunityComment
	err := r.db.Where("post_id = ?", postID).Order("created_at asc").Find(&comments).Error
	return comments, err
}
