package service

import (
	"context"
	"testing"
	"time"

	"linka/internal/domain/user/model"
	"linka/internal/domain/user/repository"
	"linka/pkg/apperr"
	"linka/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	logger.Init("release")
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(tx *gorm.DB) repository.UserRepository { return m }

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLikeCooldown(userID string, until time.Time) error {
	args := m.Called(userID, until)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateCommentCounters(userID string, count int, lastAt time.Time) error {
	args := m.Called(userID, count, lastAt)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastSeen(userID string, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}

func (m *MockUserRepository) CreateStatus(status *model.UserStatus) error {
	args := m.Called(status)
	return args.Error(0)
}

func (m *MockUserRepository) GetLatestStatus(userID string) (*model.UserStatus, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStatus), args.Error(1)
}

func (m *MockUserRepository) GetFollow(followerID, followingID string) (*model.Follow, error) {
	args := m.Called(followerID, followingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Follow), args.Error(1)
}

func (m *MockUserRepository) CreateFollow(follow *model.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteFollow(follow *model.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockUserRepository) CountFollowers(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountFollowing(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetFollowing(userID string) ([]model.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) GetFollowers(userID string) ([]model.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.User), args.Error(1)
}

func createTestUser(id, username string) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		Role:     model.RoleUser,
	}
	u.ID = id
	return u
}

func TestRegister(t *testing.T) {
	t.Run("duplicate username is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		repo.On("GetByUsername", "alice").Return(createTestUser("user-1", "alice"), nil)

		_, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice",
			Email:    "new@example.com",
			Password: "secret123",
		})

		assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
		repo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("new user is created with hashed password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		repo.On("GetByUsername", "bob").Return(nil, gorm.ErrRecordNotFound)
		repo.On("GetByEmail", "bob@example.com").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

		user, err := svc.Register(context.Background(), RegisterInput{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "secret123",
		})

		assert.NoError(t, err)
		assert.NotEqual(t, "secret123", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	})
}

func TestLogin(t *testing.T) {
	t.Run("wrong password is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		repo.On("GetByUsername", "alice").Return(createTestUser("user-1", "alice"), nil)

		_, _, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})

		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("banned user cannot log in", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		user := createTestUser("user-1", "alice")
		user.IsBanned = true

		repo.On("GetByUsername", "alice").Return(user, nil)

		_, _, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret123"})

		assert.Equal(t, apperr.KindBanned, apperr.KindOf(err))
	})

	t.Run("valid credentials return a token", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		user := createTestUser("user-1", "alice")

		repo.On("GetByUsername", "alice").Return(user, nil)
		repo.On("UpdateLastSeen", "user-1", mock.AnythingOfType("time.Time")).Return(nil)

		token, loggedIn, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret123"})

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "user-1", loggedIn.ID)
	})
}

func TestFollowToggle(t *testing.T) {
	t.Run("self follow is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		_, err := svc.FollowToggle(context.Background(), "user-1", "user-1")

		assert.Equal(t, apperr.KindSelfFollow, apperr.KindOf(err))
		repo.AssertNotCalled(t, "GetByID", mock.Anything)
	})

	t.Run("follow then unfollow", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		target := createTestUser("user-2", "bob")

		repo.On("GetByID", "user-2").Return(target, nil)
		repo.On("GetFollow", "user-1", "user-2").Return(nil, nil).Once()
		repo.On("CreateFollow", mock.AnythingOfType("*model.Follow")).Return(nil)
		repo.On("CountFollowers", "user-2").Return(int64(1), nil).Once()

		result, err := svc.FollowToggle(context.Background(), "user-1", "user-2")
		assert.NoError(t, err)
		assert.True(t, result.Following)
		assert.Equal(t, int64(1), result.FollowersCount)

		follow := &model.Follow{FollowerID: "user-1", FollowingID: "user-2"}
		repo.On("GetFollow", "user-1", "user-2").Return(follow, nil).Once()
		repo.On("DeleteFollow", follow).Return(nil)
		repo.On("CountFollowers", "user-2").Return(int64(0), nil).Once()

		result, err = svc.FollowToggle(context.Background(), "user-1", "user-2")
		assert.NoError(t, err)
		assert.False(t, result.Following)
	})

	t.Run("following a missing user is not found", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		repo.On("GetByID", "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.FollowToggle(context.Background(), "user-1", "ghost")

		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
