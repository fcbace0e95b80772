package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

var userColumns = []string{
	"user_id", "name", "username", "email", "password_hash",
	"avatar_public_id", "avatar_url", "location", "dob",
	"reset_password_token", "reset_password_expires", "deleted_at", "created_at", "updated_at",
	"tweet_ids", "follower_ids", "following_ids",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "postgres"), time.Second), mock
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	now := time.Now()

	user := &models.User{
		UserID:       "u1",
		Name:         "Alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("Successful user creation", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs("u1", "Alice", "alice", "alice@example.com", "hash",
				sql.NullString{}, sql.NullString{}, "", sql.NullTime{}, now, now).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.User.Create(ctx, user)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate username is a conflict", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		err := repo.User.Create(ctx, user)

		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.Conflict))
		assert.Equal(t, "username already exists", apperror.Message(err))
	})

	t.Run("Duplicate email is a conflict", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.User.Create(ctx, user)

		assert.True(t, apperror.Is(err, apperror.Conflict))
		assert.Equal(t, "user already exists", apperror.Message(err))
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("User with edges and tweets", func(t *testing.T) {
		rows := sqlmock.NewRows(userColumns).AddRow(
			"u1", "Alice", "alice", "alice@example.com", "hash",
			"avatars/u1.png", "http://media/avatars/u1.png", "Paris", nil,
			nil, nil, nil, now, now,
			"{t1,t2}", "{u2}", "{}",
		)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.user_id = $1 AND u.deleted_at IS NULL`)).
			WithArgs("u1").
			WillReturnRows(rows)

		user, err := repo.User.GetByID(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, user.Tweets)
		assert.Equal(t, []string{"u2"}, user.Followers)
		assert.Empty(t, user.Followings)
		assert.NotNil(t, user.Followings)
		require.NotNil(t, user.Avatar)
		assert.Equal(t, "avatars/u1.png", user.Avatar.PublicID)
		assert.Nil(t, user.DOB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("User not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.user_id = $1`)).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.User.GetByID(ctx, "ghost")

		assert.Nil(t, user)
		assert.True(t, apperror.Is(err, apperror.NotFound))
		assert.Equal(t, "User not found", apperror.Message(err))
	})

	t.Run("Database failure is upstream", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.user_id = $1`)).
			WithArgs("u1").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.User.GetByID(ctx, "u1")

		assert.True(t, apperror.Is(err, apperror.Upstream))
		assert.Contains(t, err.Error(), "failed to load user by id")
	})
}

func TestUserRepository_GetSummaries(t *testing.T) {
	repo, mock := newMockRepository(t)

	t.Run("No ids means no query", func(t *testing.T) {
		summaries, err := repo.User.GetSummaries(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, summaries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Summaries of existing users", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"user_id", "name", "username", "avatar_public_id", "avatar_url"}).
			AddRow("u1", "Alice", "alice", nil, nil).
			AddRow("u2", "Bob", "bob", "avatars/b.png", "http://media/avatars/b.png")
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE user_id = ANY($1)`)).
			WithArgs(pq.Array([]string{"u1", "u2", "gone"})).
			WillReturnRows(rows)

		summaries, err := repo.User.GetSummaries(context.Background(), []string{"u1", "u2", "gone"})

		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Nil(t, summaries[0].Avatar)
		assert.Equal(t, "http://media/avatars/b.png", summaries[1].Avatar.URL)
	})
}

func TestUserRepository_Search(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`name ILIKE '%' || $2 || '%'`)).
		WithArgs("u1", `50\%`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "username", "avatar_public_id", "avatar_url"}))

	summaries, err := repo.User.Search(context.Background(), "50%", "u1")

	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	t.Run("Password updated and reset token cleared", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`reset_password_token = NULL`)).
			WithArgs("new-hash", sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.User.UpdatePassword(ctx, "u1", "new-hash"))
	})

	t.Run("Missing user", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
			WithArgs("new-hash", sqlmock.AnyArg(), "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.User.UpdatePassword(ctx, "ghost", "new-hash")

		assert.True(t, apperror.Is(err, apperror.NotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`u.reset_password_token = $1 AND u.reset_password_expires > $2`)).
		WithArgs("digest", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.User.GetByResetToken(context.Background(), "digest", now)

	assert.True(t, apperror.Is(err, apperror.NotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE user_id = $1`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.User.Delete(context.Background(), "ghost"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkDeleted(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	t.Run("Live user is hidden", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET deleted_at = $1, reset_password_token = NULL`)).
			WithArgs(sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.User.MarkDeleted(ctx, "u1"))
	})

	t.Run("Already marked is a no-op", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`WHERE user_id = $2 AND deleted_at IS NULL`)).
			WithArgs(sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.User.MarkDeleted(ctx, "u1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetIncludingDeleted(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	rows := sqlmock.NewRows(userColumns).AddRow(
		"u1", "Alice", "alice", "alice@example.com", "hash",
		"avatars/u1.png", "http://media/avatars/u1.png", "", nil,
		nil, nil, now, now, now,
		"{}", "{}", "{}",
	)
	mock.ExpectQuery(`WHERE u\.user_id = \$1$`).
		WithArgs("u1").
		WillReturnRows(rows)

	user, err := repo.User.GetIncludingDeleted(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, user.DeletedAt)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "avatars/u1.png", user.Avatar.PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
