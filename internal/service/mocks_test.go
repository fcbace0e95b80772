package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tweetline/internal/config"
	"tweetline/internal/identity"
	"tweetline/internal/mailer"
	"tweetline/internal/models"
	"tweetline/internal/repository"
	"tweetline/internal/repository/memory"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, namespace string, data []byte) (*models.Media, error) {
	args := m.Called(ctx, namespace, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Media), args.Error(1)
}

func (m *MockStorage) Destroy(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type fixture struct {
	rep     *repository.Repository
	storage *MockStorage
	mailer  *MockMailer
	svc     *Service
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{ResetTokenTTL: 10 * time.Minute, TokenDuration: time.Hour}
	f := &fixture{
		rep:     memory.New().Repository(),
		storage: new(MockStorage),
		mailer:  new(MockMailer),
		cfg:     cfg,
	}
	f.svc = NewService(f.rep, cfg, f.storage, f.mailer, identity.NewIssuer("test-secret", time.Hour))
	f.svc.Auth.(*authService).cost = 4

	t.Cleanup(func() {
		f.storage.AssertExpectations(t)
		f.mailer.AssertExpectations(t)
	})
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	user, _, err := f.svc.Auth.Signup(context.Background(), SignupRequest{
		Name:     "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) tweet(t *testing.T, ownerID, content string) *models.Tweet {
	t.Helper()
	tweet, err := f.svc.Content.CreateTweet(context.Background(), ownerID, content, nil)
	require.NoError(t, err)
	return tweet
}
