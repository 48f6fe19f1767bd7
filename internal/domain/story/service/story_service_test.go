package service

import (
	"context"
	"testing"
	"time"

	"linka/internal/domain/story/model"
	"linka/internal/domain/story/repository"
	userModel "linka/internal/domain/user/model"
	userRepository "linka/internal/domain/user/repository"
	"linka/pkg/apperr"
	"linka/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	logger.Init("release")
}

// MockStoryRepository is a mock of StoryRepository
type MockStoryRepository struct {
	mock.Mock
}

func (m *MockStoryRepository) WithTx(tx *gorm.DB) repository.StoryRepository { return m }

func (m *MockStoryRepository) Create(story *model.Story) error {
	args := m.Called(story)
	return args.Error(0)
}

func (m *MockStoryRepository) GetByID(id string) (*model.Story, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Story), args.Error(1)
}

func (m *MockStoryRepository) ListActive(now time.Time) ([]model.Story, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Story), args.Error(1)
}

func (m *MockStoryRepository) Delete(story *model.Story) error {
	args := m.Called(story)
	return args.Error(0)
}

func (m *MockStoryRepository) GetView(storyID, userID string) (*model.StoryView, error) {
	args := m.Called(storyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoryView), args.Error(1)
}

func (m *MockStoryRepository) CreateView(view *model.StoryView) error {
	args := m.Called(view)
	return args.Error(0)
}

func (m *MockStoryRepository) CountViews(storyID string) (int64, error) {
	args := m.Called(storyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStoryRepository) ViewedStoryIDs(userID string, storyIDs []string) (map[string]bool, error) {
	args := m.Called(userID, storyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// MockUserRepository is a mock of the user repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(tx *gorm.DB) userRepository.UserRepository { return m }

func (m *MockUserRepository) Create(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*userModel.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*userModel.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *userModel.User) error {
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

func (m *MockUserRepository) CreateStatus(status *userModel.UserStatus) error {
	args := m.Called(status)
	return args.Error(0)
}

func (m *MockUserRepository) GetLatestStatus(userID string) (*userModel.UserStatus, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.UserStatus), args.Error(1)
}

func (m *MockUserRepository) GetFollow(followerID, followingID string) (*userModel.Follow, error) {
	args := m.Called(followerID, followingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.Follow), args.Error(1)
}

func (m *MockUserRepository) CreateFollow(follow *userModel.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteFollow(follow *userModel.Follow) error {
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

func (m *MockUserRepository) GetFollowing(userID string) ([]userModel.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetFollowers(userID string) ([]userModel.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]userModel.User), args.Error(1)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, dbMock
}

type storyFixture struct {
	svc    *storyService
	dbMock sqlmock.Sqlmock
	repo   *MockStoryRepository
	users  *MockUserRepository
}

func newStoryFixture(t *testing.T, now time.Time) *storyFixture {
	db, dbMock := newTestDB(t)
	f := &storyFixture{
		dbMock: dbMock,
		repo:   new(MockStoryRepository),
		users:  new(MockUserRepository),
	}
	svc := NewStoryService(db, f.repo, f.users, nil).(*storyService)
	svc.now = func() time.Time { return now }
	f.svc = svc
	return f
}

func (f *storyFixture) expectTx(commit bool) {
	f.dbMock.ExpectBegin()
	if commit {
		f.dbMock.ExpectCommit()
	} else {
		f.dbMock.ExpectRollback()
	}
}

func testStoryAuthor(id string) *userModel.User {
	u := &userModel.User{Username: "alice", FirstName: "Alice", LastName: "Liddell"}
	u.ID = id
	return u
}

func activeStory(id, userID string, now time.Time) *model.Story {
	st := &model.Story{UserID: userID, MediaType: model.MediaTypeImage, MediaPath: "s.jpg", ExpiresAt: now.Add(12 * time.Hour)}
	st.ID = id
	st.CreatedAt = now.Add(-12 * time.Hour)
	return st
}

func TestCreateStory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("rejects unknown media type", func(t *testing.T) {
		f := newStoryFixture(t, now)

		_, err := f.svc.Create(context.Background(), "u1", CreateStoryInput{MediaType: "audio", MediaPath: "a.mp3"})

		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("banned user cannot create", func(t *testing.T) {
		f := newStoryFixture(t, now)
		actor := testStoryAuthor("u1")
		actor.IsBanned = true
		f.users.On("GetByID", "u1").Return(actor, nil)

		_, err := f.svc.Create(context.Background(), "u1", CreateStoryInput{MediaType: "image", MediaPath: "s.jpg"})

		assert.Equal(t, apperr.KindBanned, apperr.KindOf(err))
	})

	t.Run("expires a day after creation", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.users.On("GetByID", "u1").Return(testStoryAuthor("u1"), nil)
		f.repo.On("Create", mock.AnythingOfType("*model.Story")).Return(nil)

		story, err := f.svc.Create(context.Background(), "u1", CreateStoryInput{MediaType: "video", MediaPath: "clip.mp4", Caption: "hi"})

		require.NoError(t, err)
		assert.Equal(t, now.Add(24*time.Hour), story.ExpiresAt)
		f.repo.AssertExpectations(t)
	})
}

func TestListActiveStories(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns stories with authors and view state", func(t *testing.T) {
		f := newStoryFixture(t, now)
		s1 := activeStory("s1", "u1", now)
		s2 := activeStory("s2", "u2", now)
		f.repo.On("ListActive", now).Return([]model.Story{*s1, *s2}, nil)
		f.repo.On("ViewedStoryIDs", "viewer", []string{"s1", "s2"}).Return(map[string]bool{"s2": true}, nil)
		f.users.On("GetByID", "u1").Return(testStoryAuthor("u1"), nil)
		f.users.On("GetByID", "u2").Return(testStoryAuthor("u2"), nil)
		f.repo.On("CountViews", "s1").Return(int64(3), nil)
		f.repo.On("CountViews", "s2").Return(int64(7), nil)

		items, err := f.svc.ListActive(context.Background(), "viewer")

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.False(t, items[0].Viewed)
		assert.True(t, items[1].Viewed)
		assert.Equal(t, int64(3), items[0].ViewCount)
		assert.Equal(t, "alice", items[0].Author.Username)
	})

	t.Run("empty feed", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.repo.On("ListActive", now).Return([]model.Story{}, nil)

		items, err := f.svc.ListActive(context.Background(), "viewer")

		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestMarkViewed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first view is recorded", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.expectTx(true)
		f.repo.On("GetByID", "s1").Return(activeStory("s1", "u1", now), nil)
		f.repo.On("GetView", "s1", "viewer").Return(nil, nil)
		f.repo.On("CreateView", mock.AnythingOfType("*model.StoryView")).Return(nil)
		f.repo.On("CountViews", "s1").Return(int64(1), nil)

		result, err := f.svc.MarkViewed(context.Background(), "viewer", "s1")

		require.NoError(t, err)
		assert.Equal(t, int64(1), result.ViewCount)
		f.repo.AssertExpectations(t)
	})

	t.Run("repeat view is a no-op", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.expectTx(true)
		f.repo.On("GetByID", "s1").Return(activeStory("s1", "u1", now), nil)
		view := &model.StoryView{StoryID: "s1", UserID: "viewer"}
		f.repo.On("GetView", "s1", "viewer").Return(view, nil)
		f.repo.On("CountViews", "s1").Return(int64(5), nil)

		result, err := f.svc.MarkViewed(context.Background(), "viewer", "s1")

		require.NoError(t, err)
		assert.Equal(t, int64(5), result.ViewCount)
		f.repo.AssertNotCalled(t, "CreateView", mock.Anything)
	})

	t.Run("concurrent duplicate insert is swallowed", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.expectTx(true)
		f.repo.On("GetByID", "s1").Return(activeStory("s1", "u1", now), nil)
		f.repo.On("GetView", "s1", "viewer").Return(nil, nil)
		f.repo.On("CreateView", mock.AnythingOfType("*model.StoryView")).Return(gorm.ErrDuplicatedKey)
		f.repo.On("CountViews", "s1").Return(int64(2), nil)

		result, err := f.svc.MarkViewed(context.Background(), "viewer", "s1")

		require.NoError(t, err)
		assert.Equal(t, int64(2), result.ViewCount)
	})

	t.Run("expired story cannot be viewed", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.expectTx(false)
		expired := activeStory("s1", "u1", now)
		expired.ExpiresAt = now.Add(-time.Minute)
		f.repo.On("GetByID", "s1").Return(expired, nil)

		_, err := f.svc.MarkViewed(context.Background(), "viewer", "s1")

		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestDeleteStory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("author deletes own story", func(t *testing.T) {
		f := newStoryFixture(t, now)
		story := activeStory("s1", "u1", now)
		f.repo.On("GetByID", "s1").Return(story, nil)
		f.repo.On("Delete", story).Return(nil)

		err := f.svc.Delete(context.Background(), "u1", userModel.RoleUser, "s1")

		assert.NoError(t, err)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		f := newStoryFixture(t, now)
		f.repo.On("GetByID", "s1").Return(activeStory("s1", "u1", now), nil)

		err := f.svc.Delete(context.Background(), "u2", userModel.RoleUser, "s1")

		assert.Equal(t, apperr.KindNoPermission, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "Delete", mock.Anything)
	})

	t.Run("admin can delete any story", func(t *testing.T) {
		f := newStoryFixture(t, now)
		story := activeStory("s1", "u1", now)
		f.repo.On("GetByID", "s1").Return(story, nil)
		f.repo.On("Delete", story).Return(nil)

		err := f.svc.Delete(context.Background(), "u2", userModel.RoleAdmin, "s1")

		assert.NoError(t, err)
	})
}
