package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tweetline/internal/models"
	"tweetline/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, req service.SignupRequest) (*models.User, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) AuthenticateForDeletion(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	args := m.Called(ctx, userID, oldPassword, newPassword)
	return args.Error(0)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email, baseURL string) (string, error) {
	args := m.Called(ctx, email, baseURL)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password string) error {
	args := m.Called(ctx, token, password)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, req service.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Search(ctx context.Context, callerID, name string) ([]models.UserSummary, error) {
	args := m.Called(ctx, callerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockUserService) tweets(args mock.Arguments) ([]*models.TweetView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TweetView), args.Error(1)
}

func (m *MockUserService) FollowingsFeed(ctx context.Context, userID string) ([]*models.TweetView, error) {
	return m.tweets(m.Called(ctx, userID))
}

func (m *MockUserService) MyTweets(ctx context.Context, userID string) ([]*models.TweetView, error) {
	return m.tweets(m.Called(ctx, userID))
}

func (m *MockUserService) UserTweets(ctx context.Context, userID string) ([]*models.TweetView, error) {
	return m.tweets(m.Called(ctx, userID))
}

type MockGraphService struct {
	mock.Mock
}

func (m *MockGraphService) Follow(ctx context.Context, actorID, targetID string) (bool, error) {
	args := m.Called(ctx, actorID, targetID)
	return args.Bool(0), args.Error(1)
}

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) CreateTweet(ctx context.Context, ownerID, content string, image []byte) (*models.Tweet, error) {
	args := m.Called(ctx, ownerID, content, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tweet), args.Error(1)
}

func (m *MockContentService) DeleteTweet(ctx context.Context, actorID, tweetID string) error {
	args := m.Called(ctx, actorID, tweetID)
	return args.Error(0)
}

func (m *MockContentService) ToggleLike(ctx context.Context, actorID, tweetID string) (bool, error) {
	args := m.Called(ctx, actorID, tweetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContentService) UpdateTweet(ctx context.Context, actorID, tweetID, content string) (*models.Tweet, error) {
	args := m.Called(ctx, actorID, tweetID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tweet), args.Error(1)
}

func (m *MockContentService) UpsertComment(ctx context.Context, actorID, tweetID, text string) (*models.Comment, bool, error) {
	args := m.Called(ctx, actorID, tweetID, text)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Comment), args.Bool(1), args.Error(2)
}

func (m *MockContentService) DeleteComment(ctx context.Context, actorID, tweetID, commentID string) (bool, error) {
	args := m.Called(ctx, actorID, tweetID, commentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContentService) AddReply(ctx context.Context, actorID, tweetID, commentID, text string) (*models.Reply, error) {
	args := m.Called(ctx, actorID, tweetID, commentID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reply), args.Error(1)
}

func (m *MockContentService) ListComments(ctx context.Context, tweetID string) ([]models.CommentView, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommentView), args.Error(1)
}

func (m *MockContentService) Retweet(ctx context.Context, tweetID string) (*models.TweetView, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TweetView), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockHealthRepository struct {
	mock.Mock
}

func (m *MockHealthRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
