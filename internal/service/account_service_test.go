package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

func TestAccountService_DeleteAccountCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avatar := &models.Media{PublicID: "avatars/u.png", URL: "http://media/avatars/u.png"}
	f.storage.On("Upload", mock.Anything, "avatars", []byte("face")).Return(avatar, nil).Once()
	u, _, err := f.svc.Auth.Signup(ctx, SignupRequest{
		Name: "Doomed", Username: "doomed", Email: "doomed@example.com", Password: "secret123", Avatar: []byte("face"),
	})
	require.NoError(t, err)

	w := f.user(t, "watcher")
	o := f.user(t, "other")

	image := &models.Media{PublicID: "tweet/u.png", URL: "http://media/tweet/u.png"}
	f.storage.On("Upload", mock.Anything, "tweet", []byte("img")).Return(image, nil).Once()
	owned, err := f.svc.Content.CreateTweet(ctx, u.UserID, "bye", []byte("img"))
	require.NoError(t, err)
	plain := f.tweet(t, u.UserID, "plain")
	foreign := f.tweet(t, o.UserID, "stays")

	_, err = f.svc.Graph.Follow(ctx, w.UserID, u.UserID)
	require.NoError(t, err)
	_, err = f.svc.Graph.Follow(ctx, u.UserID, o.UserID)
	require.NoError(t, err)
	_, _, err = f.svc.Content.UpsertComment(ctx, u.UserID, foreign.TweetID, "mine")
	require.NoError(t, err)
	_, _, err = f.svc.Content.UpsertComment(ctx, w.UserID, foreign.TweetID, "watcher's")
	require.NoError(t, err)

	f.storage.On("Destroy", mock.Anything, "tweet/u.png").Return(nil).Once()
	f.storage.On("Destroy", mock.Anything, "avatars/u.png").Return(nil).Once()

	require.NoError(t, f.svc.Account.DeleteAccount(ctx, u.UserID))

	_, err = f.rep.User.GetIncludingDeleted(ctx, u.UserID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	for _, id := range []string{owned.TweetID, plain.TweetID} {
		_, err = f.rep.Tweet.GetByID(ctx, id)
		assert.True(t, apperror.Is(err, apperror.NotFound))
	}

	watcher, _ := f.rep.User.GetByID(ctx, w.UserID)
	assert.NotContains(t, watcher.Followings, u.UserID)
	other, _ := f.rep.User.GetByID(ctx, o.UserID)
	assert.NotContains(t, other.Followers, u.UserID)

	stays, err := f.rep.Tweet.GetByID(ctx, foreign.TweetID)
	require.NoError(t, err)
	require.Len(t, stays.Comments, 1)
	assert.Equal(t, w.UserID, stays.Comments[0].AuthorID)
}

func TestAccountService_DeleteAccountRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "doomed")

	image := &models.Media{PublicID: "tweet/r.png", URL: "http://media/tweet/r.png"}
	f.storage.On("Upload", mock.Anything, "tweet", []byte("img")).Return(image, nil).Once()
	_, err := f.svc.Content.CreateTweet(ctx, u.UserID, "pic", []byte("img"))
	require.NoError(t, err)

	f.storage.On("Destroy", mock.Anything, "tweet/r.png").Return(errors.New("media down")).Once()

	err = f.svc.Account.DeleteAccount(ctx, u.UserID)
	assert.True(t, apperror.Is(err, apperror.Upstream))

	// nothing past the failed step ran
	_, err = f.rep.User.GetByID(ctx, u.UserID)
	require.NoError(t, err)

	f.storage.On("Destroy", mock.Anything, "tweet/r.png").Return(nil).Once()
	require.NoError(t, f.svc.Account.DeleteAccount(ctx, u.UserID))

	// a second full pass over a deleted account is still a success
	require.NoError(t, f.svc.Account.DeleteAccount(ctx, u.UserID))
}

func TestAccountService_DeleteAccountAvatarRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avatar := &models.Media{PublicID: "avatars/a.png", URL: "http://media/avatars/a.png"}
	f.storage.On("Upload", mock.Anything, "avatars", []byte("face")).Return(avatar, nil).Once()
	u, token, err := f.svc.Auth.Signup(ctx, SignupRequest{
		Name: "Ava", Username: "ava", Email: "ava@example.com", Password: "secret123", Avatar: []byte("face"),
	})
	require.NoError(t, err)
	fan := f.user(t, "fan")
	_, err = f.svc.Graph.Follow(ctx, fan.UserID, u.UserID)
	require.NoError(t, err)

	f.storage.On("Destroy", mock.Anything, "avatars/a.png").Return(errors.New("media down")).Once()

	err = f.svc.Account.DeleteAccount(ctx, u.UserID)
	assert.True(t, apperror.Is(err, apperror.Upstream))

	// the account is already gone for everyone else
	_, err = f.rep.User.GetByID(ctx, u.UserID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	followings, err := f.rep.Follow.Followings(ctx, fan.UserID)
	require.NoError(t, err)
	assert.NotContains(t, followings, u.UserID)

	_, err = f.svc.Auth.Authenticate(ctx, token)
	assert.True(t, apperror.Is(err, apperror.Unauthenticated))

	// while the same credential can still finish the deletion
	userID, err := f.svc.Auth.AuthenticateForDeletion(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, userID)

	f.storage.On("Destroy", mock.Anything, "avatars/a.png").Return(nil).Once()
	require.NoError(t, f.svc.Account.DeleteAccount(ctx, userID))
	f.storage.AssertNumberOfCalls(t, "Destroy", 2)

	_, err = f.rep.User.GetIncludingDeleted(ctx, u.UserID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	_, err = f.svc.Auth.AuthenticateForDeletion(ctx, token)
	assert.True(t, apperror.Is(err, apperror.Unauthenticated))
}
