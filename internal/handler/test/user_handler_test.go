package test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
	"tweetline/internal/service"
)

func TestFollowHandler(t *testing.T) {
	tests := []struct {
		name            string
		following       bool
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{name: "Follow", following: true, expectedStatus: http.StatusOK, expectedMessage: "User Followed"},
		{name: "Unfollow", following: false, expectedStatus: http.StatusOK, expectedMessage: "User Unfollowed"},
		{
			name:            "Self follow",
			err:             apperror.New(apperror.InvalidOperation, "You cannot follow yourself"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "You cannot follow yourself",
		},
		{
			name:            "Unknown target",
			err:             apperror.New(apperror.NotFound, "User not found"),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newHandlers(t)
			m.graph.On("Follow", mock.Anything, "u1", "u2").Return(tt.following, tt.err)

			rr := httptest.NewRecorder()
			h.Follow(rr, request(http.MethodGet, "/api/v1/users/follow/u2", "u1", nil, map[string]string{"id": "u2"}))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedMessage, decodeResponse(t, rr).Message)
		})
	}
}

func TestFollowHandler_Unauthenticated(t *testing.T) {
	h, _ := newHandlers(t)

	rr := httptest.NewRecorder()
	h.Follow(rr, request(http.MethodGet, "/api/v1/users/follow/u2", "", nil, map[string]string{"id": "u2"}))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTweetListHandlers(t *testing.T) {
	feed := []*models.TweetView{{TweetID: "t2"}, {TweetID: "t1"}}

	t.Run("Followings feed", func(t *testing.T) {
		h, m := newHandlers(t)
		m.user.On("FollowingsFeed", mock.Anything, "u1").Return(feed, nil)

		rr := httptest.NewRecorder()
		h.FollowingsTweets(rr, request(http.MethodGet, "/api/v1/users/tweets", "u1", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeResponse(t, rr).Data.([]any)
		assert.Len(t, data, 2)
	})

	t.Run("My tweets", func(t *testing.T) {
		h, m := newHandlers(t)
		m.user.On("MyTweets", mock.Anything, "u1").Return(feed, nil)

		rr := httptest.NewRecorder()
		h.MyTweets(rr, request(http.MethodGet, "/api/v1/users/my/tweets", "u1", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Another user's tweets", func(t *testing.T) {
		h, m := newHandlers(t)
		m.user.On("UserTweets", mock.Anything, "u2").Return(nil, apperror.New(apperror.NotFound, "User not found"))

		rr := httptest.NewRecorder()
		h.UserTweets(rr, request(http.MethodGet, "/api/v1/users/user/tweets/u2", "u1", nil, map[string]string{"id": "u2"}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateProfileHandler(t *testing.T) {
	name := "Alice L."
	dob := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		expected       *service.UpdateProfileRequest
		expectedStatus int
	}{
		{
			name:           "Avatar omitted leaves it alone",
			body:           `{"name":"Alice L.","dob":"1990-01-02"}`,
			expected:       &service.UpdateProfileRequest{Name: &name, DOB: &dob},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Null avatar removes it",
			body:           `{"avatar":null}`,
			expected:       &service.UpdateProfileRequest{Avatar: service.AvatarChange{Set: true}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "String avatar replaces it",
			body:           `{"avatar":"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAA="}`,
			expected:       &service.UpdateProfileRequest{Avatar: service.AvatarChange{Set: true, Data: pngBytes}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Bad date",
			body:           `{"dob":"02/01/1990"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Bad email",
			body:           `{"email":"nope"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newHandlers(t)
			if tt.expected != nil {
				m.user.On("UpdateProfile", mock.Anything, "u1", *tt.expected).Return(&models.User{UserID: "u1"}, nil)
			}

			rr := httptest.NewRecorder()
			h.UpdateProfile(rr, request(http.MethodPut, "/api/v1/users/update/profile", "u1", tt.body, nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestDeleteAccountHandler(t *testing.T) {
	t.Run("Success clears the credential", func(t *testing.T) {
		h, m := newHandlers(t)
		m.account.On("DeleteAccount", mock.Anything, "u1").Return(nil)

		rr := httptest.NewRecorder()
		h.DeleteAccount(rr, request(http.MethodDelete, "/api/v1/users/delete/account", "u1", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		cookie := credentialCookie(rr)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
	})

	t.Run("Failed step keeps the credential", func(t *testing.T) {
		h, m := newHandlers(t)
		m.account.On("DeleteAccount", mock.Anything, "u1").Return(apperror.New(apperror.Upstream, "failed to destroy avatar"))

		rr := httptest.NewRecorder()
		h.DeleteAccount(rr, request(http.MethodDelete, "/api/v1/users/delete/account", "u1", nil, nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Nil(t, credentialCookie(rr))
	})
}

func TestProfileHandlers(t *testing.T) {
	profile := &models.Profile{User: &models.User{UserID: "u2", Username: "bob"}}

	t.Run("Me", func(t *testing.T) {
		h, m := newHandlers(t)
		m.user.On("Profile", mock.Anything, "u1").Return(&models.Profile{User: &models.User{UserID: "u1"}}, nil)

		rr := httptest.NewRecorder()
		h.MyProfile(rr, request(http.MethodGet, "/api/v1/users/profile/me", "u1", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("By id", func(t *testing.T) {
		h, m := newHandlers(t)
		m.user.On("Profile", mock.Anything, "u2").Return(profile, nil)

		rr := httptest.NewRecorder()
		h.UserProfile(rr, request(http.MethodGet, "/api/v1/users/profile/u2", "u1", nil, map[string]string{"id": "u2"}))

		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeResponse(t, rr).Data.(map[string]any)
		assert.Equal(t, "bob", data["username"])
		assert.NotContains(t, data, "password")
	})
}

func TestSearchUsersHandler(t *testing.T) {
	h, m := newHandlers(t)
	m.user.On("Search", mock.Anything, "u1", "ali").Return([]models.UserSummary{{UserID: "u3", Username: "alina"}}, nil)

	rr := httptest.NewRecorder()
	h.SearchUsers(rr, request(http.MethodGet, "/api/v1/users/users?name=ali", "u1", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeResponse(t, rr).Data, 1)
}
