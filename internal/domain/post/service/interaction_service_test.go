package service

import (
	"context"
	"testing"
	"time"

	"linka/internal/domain/post/model"
	"linka/internal/domain/post/repository"
	userModel "linka/internal/domain/user/model"
	userRepo "linka/internal/domain/user/repository"
	"linka/internal/pkg/antispam"
	"linka/internal/pkg/config"
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

// MockPostRepository is a mock of PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) WithTx(tx *gorm.DB) repository.PostRepository { return m }

func (m *MockPostRepository) Create(post *model.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(id string) (*model.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) GetFeed(offset, limit int) ([]model.Post, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]model.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) GetByUserID(userID string, offset, limit int) ([]model.Post, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) UpdateCooldowns(post *model.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(post *model.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockPostRepository) CreateComment(comment *model.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockPostRepository) GetCommentByID(id string) (*model.Comment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockPostRepository) GetCommentsByPostID(postID string, offset, limit int) ([]model.Comment, int64, error) {
	args := m.Called(postID, offset, limit)
	return args.Get(0).([]model.Comment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) DeleteComment(comment *model.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockPostRepository) CountComments(postID string) (int64, error) {
	args := m.Called(postID)
	return args.Get(0).(int64), args.Error(1)
}

// MockInteractionRepository is a mock of InteractionRepository
type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) WithTx(tx *gorm.DB) repository.InteractionRepository {
	return m
}

func (m *MockInteractionRepository) GetLike(userID, postID string) (*model.Like, error) {
	args := m.Called(userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Like), args.Error(1)
}

func (m *MockInteractionRepository) CreateLike(like *model.Like) error {
	args := m.Called(like)
	return args.Error(0)
}

func (m *MockInteractionRepository) DeleteLike(like *model.Like) error {
	args := m.Called(like)
	return args.Error(0)
}

func (m *MockInteractionRepository) CountLikes(postID string) (int64, error) {
	args := m.Called(postID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInteractionRepository) GetReaction(userID, postID string) (*model.Reaction, error) {
	args := m.Called(userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reaction), args.Error(1)
}

func (m *MockInteractionRepository) CreateReaction(reaction *model.Reaction) error {
	args := m.Called(reaction)
	return args.Error(0)
}

func (m *MockInteractionRepository) UpdateReactionKind(reaction *model.Reaction, kind string) error {
	args := m.Called(reaction, kind)
	return args.Error(0)
}

func (m *MockInteractionRepository) DeleteReaction(reaction *model.Reaction) error {
	args := m.Called(reaction)
	return args.Error(0)
}

func (m *MockInteractionRepository) CountReactionsByKind(postID string) (map[string]int64, error) {
	args := m.Called(postID)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockInteractionRepository) GetRepost(userID, postID string) (*model.Repost, error) {
	args := m.Called(userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Repost), args.Error(1)
}

func (m *MockInteractionRepository) CreateRepost(repost *model.Repost) error {
	args := m.Called(repost)
	return args.Error(0)
}

// MockUserRepository is a mock of the user domain repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(tx *gorm.DB) userRepo.UserRepository { return m }

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
	return args.Get(0).([]userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetFollowers(userID string) ([]userModel.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]userModel.User), args.Error(1)
}

// MockTracker is a mock of the rate window tracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) TryConsume(ctx context.Context, actorID, kind string, now time.Time) (bool, error) {
	args := m.Called(actorID, kind)
	return args.Bool(0), args.Error(1)
}

// MockCommunityGate is a mock of CommunityGate
type MockCommunityGate struct {
	mock.Mock
}

func (m *MockCommunityGate) EnsureMember(communityID, userID string) error {
	args := m.Called(communityID, userID)
	return args.Error(0)
}

func (m *MockCommunityGate) PolicyForCommunity(communityID string) (antispam.FilterPolicy, error) {
	args := m.Called(communityID)
	return args.Get(0).(antispam.FilterPolicy), args.Error(1)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, dbMock
}

func testAntiAbuseConfig() config.AntiAbuseConfig {
	return config.AntiAbuseConfig{
		LikeCooldownSeconds:   3,
		RepostCooldownMinutes: 5,
		LikeWindowMax:         20,
		LikeWindowMinutes:     5,
		CommentDailyMax:       50,
		CommentMinGapSeconds:  10,
	}
}

type interactionFixture struct {
	svc     *interactionService
	dbMock  sqlmock.Sqlmock
	posts   *MockPostRepository
	actions *MockInteractionRepository
	users   *MockUserRepository
	tracker *MockTracker
	policy  *MockCommunityGate
}

func newInteractionFixture(t *testing.T, now time.Time) *interactionFixture {
	db, dbMock := newTestDB(t)
	f := &interactionFixture{
		dbMock:  dbMock,
		posts:   new(MockPostRepository),
		actions: new(MockInteractionRepository),
		users:   new(MockUserRepository),
		tracker: new(MockTracker),
		policy:  new(MockCommunityGate),
	}
	svc := NewInteractionService(db, f.posts, f.actions, f.users, f.tracker, f.policy, nil, testAntiAbuseConfig())
	f.svc = svc.(*interactionService)
	f.svc.now = func() time.Time { return now }
	return f
}

func (f *interactionFixture) expectTx(commit bool) {
	f.dbMock.ExpectBegin()
	if commit {
		f.dbMock.ExpectCommit()
	} else {
		f.dbMock.ExpectRollback()
	}
}

func testActor(id string) *userModel.User {
	u := &userModel.User{Username: "alice", Email: "alice@example.com"}
	u.ID = id
	return u
}

func testPost(id string) *model.Post {
	p := &model.Post{UserID: "author-1", Content: "hello", Visibility: "public"}
	p.ID = id
	return p
}

func TestLikeToggle(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("first like creates record and arms both cooldowns", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		post := testPost("post-1")

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.actions.On("GetLike", "user-1", "post-1").Return(nil, nil)
		f.tracker.On("TryConsume", "user-1", antispam.KindLike).Return(true, nil)
		f.actions.On("CreateLike", mock.AnythingOfType("*model.Like")).Return(nil)
		f.posts.On("UpdateCooldowns", post).Return(nil)
		f.users.On("UpdateLikeCooldown", "user-1", now.Add(3*time.Second)).Return(nil)
		f.actions.On("CountLikes", "post-1").Return(int64(1), nil)
		f.expectTx(true)

		result, err := f.svc.LikeToggle(context.Background(), "user-1", "post-1")

		assert.NoError(t, err)
		assert.True(t, result.Liked)
		assert.Equal(t, int64(1), result.LikeCount)
		assert.Equal(t, now.Add(3*time.Second), post.LikeCooldownUntil)
		f.actions.AssertExpectations(t)
	})

	t.Run("second like removes record without rate checks", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		// 冷却仍在进行中也必须放行取消
		actor.LikeCooldownUntil = now.Add(2 * time.Second)
		post := testPost("post-1")
		post.LikeCooldownUntil = now.Add(2 * time.Second)
		like := &model.Like{UserID: "user-1", PostID: "post-1"}

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.actions.On("GetLike", "user-1", "post-1").Return(like, nil)
		f.actions.On("DeleteLike", like).Return(nil)
		f.actions.On("CountLikes", "post-1").Return(int64(0), nil)
		f.expectTx(true)

		result, err := f.svc.LikeToggle(context.Background(), "user-1", "post-1")

		assert.NoError(t, err)
		assert.False(t, result.Liked)
		assert.Equal(t, int64(0), result.LikeCount)
		f.tracker.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything)
	})

	t.Run("post cooldown rejects with remaining seconds", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-2")
		post := testPost("post-1")
		post.LikeCooldownUntil = now.Add(2 * time.Second)

		f.users.On("GetByID", "user-2").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.actions.On("GetLike", "user-2", "post-1").Return(nil, nil)
		f.expectTx(false)

		_, err := f.svc.LikeToggle(context.Background(), "user-2", "post-1")

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindCooldownActive, appErr.Kind)
		assert.Equal(t, 2, appErr.RetryAfter)
		f.actions.AssertNotCalled(t, "CreateLike", mock.Anything)
	})

	t.Run("actor cooldown rejects likes on other posts", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		actor.LikeCooldownUntil = now.Add(3 * time.Second)
		post := testPost("post-2")

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-2").Return(post, nil)
		f.actions.On("GetLike", "user-1", "post-2").Return(nil, nil)
		f.expectTx(false)

		_, err := f.svc.LikeToggle(context.Background(), "user-1", "post-2")

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindCooldownActive, appErr.Kind)
	})

	t.Run("exhausted window rejects without creating record", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-3")
		post := testPost("post-3")

		f.users.On("GetByID", "user-3").Return(actor, nil)
		f.posts.On("GetByID", "post-3").Return(post, nil)
		f.actions.On("GetLike", "user-3", "post-3").Return(nil, nil)
		f.tracker.On("TryConsume", "user-3", antispam.KindLike).Return(false, nil)
		f.expectTx(false)

		_, err := f.svc.LikeToggle(context.Background(), "user-3", "post-3")

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindRateLimited, appErr.Kind)
		f.actions.AssertNotCalled(t, "CreateLike", mock.Anything)
	})

	t.Run("banned user cannot like", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-4")
		actor.IsBanned = true

		f.users.On("GetByID", "user-4").Return(actor, nil)
		f.expectTx(false)

		_, err := f.svc.LikeToggle(context.Background(), "user-4", "post-1")

		assert.Equal(t, apperr.KindBanned, apperr.KindOf(err))
	})

	t.Run("concurrent duplicate maps to already exists", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-5")
		post := testPost("post-5")

		f.users.On("GetByID", "user-5").Return(actor, nil)
		f.posts.On("GetByID", "post-5").Return(post, nil)
		f.actions.On("GetLike", "user-5", "post-5").Return(nil, nil)
		f.tracker.On("TryConsume", "user-5", antispam.KindLike).Return(true, nil)
		f.actions.On("CreateLike", mock.AnythingOfType("*model.Like")).Return(gorm.ErrDuplicatedKey)
		f.expectTx(false)

		_, err := f.svc.LikeToggle(context.Background(), "user-5", "post-5")

		assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
	})
}

func TestReactionToggle(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("no existing reaction creates one", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.actions.On("GetReaction", "user-1", "post-1").Return(nil, nil)
		f.actions.On("CreateReaction", mock.AnythingOfType("*model.Reaction")).Return(nil)
		f.actions.On("CountReactionsByKind", "post-1").Return(map[string]int64{"love": 1}, nil)
		f.expectTx(true)

		result, err := f.svc.ReactionToggle(context.Background(), "user-1", "post-1", "love")

		assert.NoError(t, err)
		assert.Equal(t, ReactionCreated, result.State)
		assert.Equal(t, "love", result.Kind)
		assert.Equal(t, int64(1), result.Reactions["love"])
	})

	t.Run("same kind removes the reaction", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		existing := &model.Reaction{UserID: "user-1", PostID: "post-1", Kind: "laugh"}

		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.actions.On("GetReaction", "user-1", "post-1").Return(existing, nil)
		f.actions.On("DeleteReaction", existing).Return(nil)
		f.actions.On("CountReactionsByKind", "post-1").Return(map[string]int64{}, nil)
		f.expectTx(true)

		result, err := f.svc.ReactionToggle(context.Background(), "user-1", "post-1", "laugh")

		assert.NoError(t, err)
		assert.Equal(t, ReactionRemoved, result.State)
		assert.Empty(t, result.Kind)
	})

	t.Run("different kind switches in place", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		existing := &model.Reaction{UserID: "user-1", PostID: "post-1", Kind: "laugh"}

		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.actions.On("GetReaction", "user-1", "post-1").Return(existing, nil)
		f.actions.On("UpdateReactionKind", existing, "angry").Return(nil)
		f.actions.On("CountReactionsByKind", "post-1").Return(map[string]int64{"angry": 1}, nil)
		f.expectTx(true)

		result, err := f.svc.ReactionToggle(context.Background(), "user-1", "post-1", "angry")

		assert.NoError(t, err)
		assert.Equal(t, ReactionSwitched, result.State)
		f.actions.AssertNotCalled(t, "CreateReaction", mock.Anything)
		f.actions.AssertNotCalled(t, "DeleteReaction", mock.Anything)
	})

	t.Run("invalid kind is rejected before any IO", func(t *testing.T) {
		f := newInteractionFixture(t, now)

		_, err := f.svc.ReactionToggle(context.Background(), "user-1", "post-1", "thumbsdown")

		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		f.users.AssertNotCalled(t, "GetByID", mock.Anything)
	})
}

func TestCommentCreate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("valid comment persists and bumps counters", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		actor.CommentCountToday = 4
		actor.LastCommentAt = now.Add(-time.Minute)

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.posts.On("CreateComment", mock.AnythingOfType("*model.Comment")).Return(nil)
		f.users.On("UpdateCommentCounters", "user-1", 5, now).Return(nil)
		f.posts.On("CountComments", "post-1").Return(int64(8), nil)
		f.expectTx(true)

		result, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1", "nice post!")

		assert.NoError(t, err)
		assert.Equal(t, "nice post!", result.Comment.Content)
		assert.False(t, result.Comment.IsSpam)
		assert.Equal(t, int64(8), result.CommentCount)
		f.users.AssertExpectations(t)
	})

	t.Run("empty comment is rejected before any IO", func(t *testing.T) {
		f := newInteractionFixture(t, now)

		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1", "   ")

		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		f.users.AssertNotCalled(t, "GetByID", mock.Anything)
	})

	t.Run("daily limit reached rejects without persisting", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		actor.CommentCountToday = 50
		actor.LastCommentAt = now.Add(-time.Hour)

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.expectTx(false)

		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1", "one more")

		assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
		f.posts.AssertNotCalled(t, "CreateComment", mock.Anything)
	})

	t.Run("count from yesterday rolls over at midnight", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		actor.CommentCountToday = 50
		actor.LastCommentAt = now.AddDate(0, 0, -1)

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.posts.On("CreateComment", mock.AnythingOfType("*model.Comment")).Return(nil)
		f.users.On("UpdateCommentCounters", "user-1", 1, now).Return(nil)
		f.posts.On("CountComments", "post-1").Return(int64(1), nil)
		f.expectTx(true)

		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1", "fresh day")

		assert.NoError(t, err)
		f.users.AssertExpectations(t)
	})

	t.Run("minimum gap between comments is enforced", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		actor.CommentCountToday = 2
		actor.LastCommentAt = now.Add(-5 * time.Second)

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.expectTx(false)

		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1", "again")

		assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	})

	t.Run("spam comment is rejected and not persisted", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.expectTx(false)

		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1",
			"buy now!!! visit http://deals.example.com")

		assert.Equal(t, apperr.KindMarkedSpam, apperr.KindOf(err))
		f.posts.AssertNotCalled(t, "CreateComment", mock.Anything)
	})

	t.Run("community filter runs before the spam classifier", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		actor := testActor("user-1")
		post := testPost("post-1")
		post.CommunityID = "community-1"

		f.users.On("GetByID", "user-1").Return(actor, nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.policy.On("EnsureMember", "community-1", "user-1").Return(nil)
		f.policy.On("PolicyForCommunity", "community-1").Return(antispam.FilterPolicy{
			CommentsEnabled: false,
		}, nil)
		f.expectTx(false)

		// 文本同时也应命中垃圾分类，但过滤链在前，错误必须是过滤类
		_, err := f.svc.CommentCreate(context.Background(), "user-1", "post-1",
			"buy now http://spam.example.com")

		assert.Equal(t, apperr.KindFilteredByCommunity, apperr.KindOf(err))
		f.posts.AssertNotCalled(t, "CreateComment", mock.Anything)
	})

	t.Run("non member cannot comment on community post", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		post := testPost("post-1")
		post.CommunityID = "community-1"

		f.users.On("GetByID", "user-2").Return(testActor("user-2"), nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.policy.On("EnsureMember", "community-1", "user-2").
			Return(apperr.New(apperr.KindNoPermission, "join the community first"))
		f.expectTx(false)

		_, err := f.svc.CommentCreate(context.Background(), "user-2", "post-1", "hello there")

		assert.Equal(t, apperr.KindNoPermission, apperr.KindOf(err))
		f.policy.AssertNotCalled(t, "PolicyForCommunity", mock.Anything)
	})
}

func TestRepostCreate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("repost creates record and arms post cooldown", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		post := testPost("post-1")

		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.actions.On("GetRepost", "user-1", "post-1").Return(nil, nil)
		f.actions.On("CreateRepost", mock.AnythingOfType("*model.Repost")).Return(nil)
		f.posts.On("UpdateCooldowns", post).Return(nil)
		f.expectTx(true)

		result, err := f.svc.RepostCreate(context.Background(), "user-1", "post-1")

		assert.NoError(t, err)
		assert.Equal(t, "post-1", result.Repost.OriginalPostID)
		assert.Equal(t, now.Add(5*time.Minute), post.RepostCooldownUntil)
	})

	t.Run("repost cooldown rejects with remaining seconds", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		post := testPost("post-1")
		post.RepostCooldownUntil = now.Add(90 * time.Second)

		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.expectTx(false)

		_, err := f.svc.RepostCreate(context.Background(), "user-1", "post-1")

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindCooldownActive, appErr.Kind)
		assert.Equal(t, 90, appErr.RetryAfter)
	})

	t.Run("duplicate repost is rejected", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		post := testPost("post-1")
		existing := &model.Repost{UserID: "user-1", OriginalPostID: "post-1"}

		f.users.On("GetByID", "user-1").Return(testActor("user-1"), nil)
		f.posts.On("GetByID", "post-1").Return(post, nil)
		f.actions.On("GetRepost", "user-1", "post-1").Return(existing, nil)
		f.expectTx(false)

		_, err := f.svc.RepostCreate(context.Background(), "user-1", "post-1")

		assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
		f.actions.AssertNotCalled(t, "CreateRepost", mock.Anything)
	})
}

func TestCommentDelete(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("author can delete own comment", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		comment := &model.Comment{PostID: "post-1", UserID: "user-1", Content: "mine"}

		f.posts.On("GetCommentByID", "comment-1").Return(comment, nil)
		f.posts.On("DeleteComment", comment).Return(nil)

		err := f.svc.CommentDelete(context.Background(), "user-1", userModel.RoleUser, "comment-1")

		assert.NoError(t, err)
	})

	t.Run("admin can delete any comment", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		comment := &model.Comment{PostID: "post-1", UserID: "user-1", Content: "theirs"}

		f.posts.On("GetCommentByID", "comment-1").Return(comment, nil)
		f.posts.On("DeleteComment", comment).Return(nil)

		err := f.svc.CommentDelete(context.Background(), "admin-1", userModel.RoleAdmin, "comment-1")

		assert.NoError(t, err)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		f := newInteractionFixture(t, now)
		comment := &model.Comment{PostID: "post-1", UserID: "user-1", Content: "theirs"}

		f.posts.On("GetCommentByID", "comment-1").Return(comment, nil)

		err := f.svc.CommentDelete(context.Background(), "user-2", userModel.RoleUser, "comment-1")

		assert.Equal(t, apperr.KindNoPermission, apperr.KindOf(err))
		f.posts.AssertNotCalled(t, "DeleteComment", mock.Anything)
	})
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("aggregates are recomputed from relation tables", func(t *testing.T) {
		f := newInteractionFixture(t, now)

		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.actions.On("CountLikes", "post-1").Return(int64(7), nil)
		f.posts.On("CountComments", "post-1").Return(int64(3), nil)
		f.actions.On("CountReactionsByKind", "post-1").Return(map[string]int64{"love": 2}, nil)
		f.actions.On("GetLike", "viewer-1", "post-1").Return(&model.Like{}, nil)

		stats, err := f.svc.Stats(context.Background(), "viewer-1", "post-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(7), stats.LikeCount)
		assert.Equal(t, int64(3), stats.CommentCount)
		assert.Equal(t, int64(2), stats.Reactions["love"])
		assert.True(t, stats.Liked)
	})

	t.Run("anonymous viewer gets counts without liked flag", func(t *testing.T) {
		f := newInteractionFixture(t, now)

		f.posts.On("GetByID", "post-1").Return(testPost("post-1"), nil)
		f.actions.On("CountLikes", "post-1").Return(int64(7), nil)
		f.posts.On("CountComments", "post-1").Return(int64(3), nil)
		f.actions.On("CountReactionsByKind", "post-1").Return(map[string]int64{}, nil)

		stats, err := f.svc.Stats(context.Background(), "", "post-1")

		assert.NoError(t, err)
		assert.False(t, stats.Liked)
		f.actions.AssertNotCalled(t, "GetLike", mock.Anything, mock.Anything)
	})
}
