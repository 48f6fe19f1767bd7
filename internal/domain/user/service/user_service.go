package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"linka/internal/domain/user/model"
	"linka/internal/domain/user/repository"
	"linka/internal/pkg/worker"
	"linka/pkg/apperr"
	"linka/pkg/logger"
	"linka/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=80"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginInput 登录参数
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileInput 资料更新参数
type UpdateProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
	Status    *string `json:"status"`
}

// FollowResult 关注切换结果
type FollowResult struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followersCount"`
}

// Profile 公开资料，计数实时重算
type Profile struct {
	User           *model.User `json:"user"`
	FollowersCount int64       `json:"followersCount"`
	FollowingCount int64       `json:"followingCount"`
	IsFollowing    bool        `json:"isFollowing"`
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, input LoginInput) (string, *model.User, error)
	GetProfile(ctx context.Context, viewerID, username string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error)
	FollowToggle(ctx context.Context, actorID, targetUserID string) (*FollowResult, error)
	GetFollowers(ctx context.Context, userID string) ([]model.User, error)
	GetFriends(ctx context.Context, userID string) ([]model.User, error)
	SetStatus(ctx context.Context, userID, text, statusType string, expiresInHours int) (*model.UserStatus, error)
	GetStatus(ctx context.Context, userID string) (*model.UserStatus, error)
}

type userService struct {
	repo     repository.UserRepository
	activity *worker.ActivityRecorder
	now      func() time.Time
}

func NewUserService(repo repository.UserRepository, activity *worker.ActivityRecorder) UserService {
	return &userService{repo: repo, activity: activity, now: time.Now}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)

	if _, err := s.repo.GetByUsername(username); err == nil {
		return nil, apperr.New(apperr.KindAlreadyExists, "username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(input.Email); err == nil {
		return nil, apperr.New(apperr.KindAlreadyExists, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  username,
		Email:     input.Email,
		Password:  string(hashed),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		LastSeen:  s.now(),
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.KindAlreadyExists, "username or email is already taken")
		}
		return nil, err
	}

	logger.Log.Info("user registered", zap.String("userID", user.ID), zap.String("username", username))
	return user, nil
}

func (s *userService) Login(ctx context.Context, input LoginInput) (string, *model.User, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.KindUnauthorized, "invalid username or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return "", nil, apperr.New(apperr.KindUnauthorized, "invalid username or password")
	}
	if user.IsBanned {
		return "", nil, apperr.New(apperr.KindBanned, "your account has been suspended")
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	if err := s.repo.UpdateLastSeen(user.ID, s.now()); err != nil {
		logger.Log.Warn("failed to update last seen", zap.Error(err))
	}
	s.recordActivity(user.ID, "login")
	return token, user, nil
}

func (s *userService) GetProfile(ctx context.Context, viewerID, username string) (*Profile, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	followers, err := s.repo.CountFollowers(user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.repo.CountFollowing(user.ID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		User:           user,
		FollowersCount: followers,
		FollowingCount: following,
	}

	if viewerID != "" && viewerID != user.ID {
		follow, err := s.repo.GetFollow(viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = follow != nil
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// FollowToggle 关注/取关切换。关注自己直接拒绝，重复关注即取关。
func (s *userService) FollowToggle(ctx context.Context, actorID, targetUserID string) (*FollowResult, error) {
	if actorID == targetUserID {
		return nil, apperr.New(apperr.KindSelfFollow, "you cannot follow yourself")
	}

	target, err := s.repo.GetByID(targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	var result FollowResult
	existing, err := s.repo.GetFollow(actorID, target.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.repo.DeleteFollow(existing); err != nil {
			return nil, err
		}
		result.Following = false
	} else {
		follow := &model.Follow{FollowerID: actorID, FollowingID: target.ID}
		if err := s.repo.CreateFollow(follow); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperr.New(apperr.KindAlreadyExists, "already following")
			}
			return nil, err
		}
		result.Following = true
		s.recordActivity(actorID, "follow")
	}

	count, err := s.repo.CountFollowers(target.ID)
	if err != nil {
		return nil, err
	}
	result.FollowersCount = count
	return &result, nil
}

func (s *userService) GetFollowers(ctx context.Context, userID string) ([]model.User, error) {
	return s.repo.GetFollowers(userID)
}

// GetFriends 好友即当前用户关注的人，按名字排序
func (s *userService) GetFriends(ctx context.Context, userID string) ([]model.User, error) {
	return s.repo.GetFollowing(userID)
}

// SetStatus 设置临时状态，过期时间按小时计，0 表示永不过期
func (s *userService) SetStatus(ctx context.Context, userID, text, statusType string, expiresInHours int) (*model.UserStatus, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "status text cannot be empty")
	}
	switch statusType {
	case "", "text":
		statusType = "text"
	case "emoji", "custom":
	default:
		return nil, apperr.Newf(apperr.KindValidation, "invalid status type: %s", statusType)
	}

	status := &model.UserStatus{
		UserID:     userID,
		StatusText: text,
		StatusType: statusType,
	}
	if expiresInHours > 0 {
		status.ExpiresAt = s.now().Add(time.Duration(expiresInHours) * time.Hour)
	}
	if err := s.repo.CreateStatus(status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetStatus 读取当前状态，过期判定是惰性的：没有后台清理任务
func (s *userService) GetStatus(ctx context.Context, userID string) (*model.UserStatus, error) {
	status, err := s.repo.GetLatestStatus(userID)
	if err != nil {
		return nil, err
	}
	if status == nil || status.IsExpired(s.now()) {
		return nil, nil
	}
	return status, nil
}

func (s *userService) recordActivity(userID, activityType string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(worker.ActivityTask{UserID: userID, ActivityType: activityType})
}
