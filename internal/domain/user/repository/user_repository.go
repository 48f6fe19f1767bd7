package repository

import (
	"time"

	"linka/internal/domain/user/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(user *model.User) error
	GetByID(id string) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	UpdateLikeCooldown(userID string, until time.Time) error
	UpdateCommentCounters(userID string, count int, lastAt time.Time) error
	UpdateLastSeen(userID string, at time.Time) error

	CreateStatus(status *model.UserStatus) error
	GetLatestStatus(userID string) (*model.UserStatus, error)

	GetFollow(followerID, followingID string) (*model.Follow, error)
	CreateFollow(follow *model.Follow) error
	DeleteFollow(follow *model.Follow) error
	CountFollowers(userID string) (int64, error)
	CountFollowing(userID string) (int64, error)
	GetFollowing(userID string) ([]model.User, error)
	GetFollowers(userID string) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UpdateLikeCooldown(userID string, until time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("like_cooldown_until", until).Error
}

// UpdateCommentCounters 评论计数和最后评论时间必须原子更新
func (r *userRepository) UpdateCommentCounters(userID string, count int, lastAt time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"comment_count_today": count,
			"last_comment_at":     lastAt,
		}).Error
}

func (r *userRepository) UpdateLastSeen(userID string, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_seen": at,
			"is_online": true,
		}).Error
}

// --- Status ---

func (r *userRepository) CreateStatus(status *model.UserStatus) error {
	return r.db.Create(status).Error
}

func (r *userRepository) GetLatestStatus(userID string) (*model.UserStatus, error) {
	var status model.UserStatus
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").First(&status).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// --- Follow ---

func (r *userRepository) GetFollow(followerID, followingID string) (*model.Follow, error) {
	var follow model.Follow
	err := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&follow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

func (r *userRepository) CreateFollow(follow *model.Follow) error {
	return r.db.Create(follow).Error
}

func (r *userRepository) DeleteFollow(follow *model.Follow) error {
	return r.db.Unscoped().Delete(follow).Error
}

func (r *userRepository) CountFollowers(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *userRepository) CountFollowing(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *userRepository) GetFollowing(userID string) ([]model.User, error) {
	var users []model.User
	err := r.db.Where("id IN (?)",
		r.db.Model(&model.Follow{}).Select("following_id").Where("follower_id = ?", userID),
	).Order("first_name asc").Find(&users).Error
	return users, err
}

func (r *userRepository) GetFollowers(userID string) ([]model.User, error) {
	var users []model.User
	err := r.db.Where("id IN (?)",
		r.db.Model(&model.Follow{}).Select("follower_id").Where("following_id = ?", userID),
	).Order("first_name asc").Find(&users).Error
	return users, err
}
