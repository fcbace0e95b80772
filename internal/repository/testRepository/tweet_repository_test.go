package testRepository

import (
	"context"
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
	"tweetline/internal/repository"
)

var tweetColumns = []string{
	"tweet_id", "owner_id", "content", "image_public_id", "image_url",
	"created_at", "updated_at", "likes", "retweeted_by",
}

func setupMockDB(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { sqlxDB.Close() })

	return repository.NewRepository(sqlxDB, time.Second), mock
}

func TestTweetRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		tweet     *models.Tweet
		setupMock func(mock sqlmock.Sqlmock)
		wantKind  *apperror.Kind
	}{
		{
			name:  "Tweet without image",
			tweet: &models.Tweet{TweetID: "t1", OwnerID: "u1", Content: "hello", CreatedAt: now, UpdatedAt: now},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tweets`).
					WithArgs("t1", "u1", "hello", nil, nil, now, now).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "Tweet with image",
			tweet: &models.Tweet{
				TweetID: "t2", OwnerID: "u1", Content: "look",
				Image:     &models.Media{PublicID: "tweet/a.png", URL: "http://media/tweet/a.png"},
				CreatedAt: now, UpdatedAt: now,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tweets`).
					WithArgs("t2", "u1", "look", "tweet/a.png", "http://media/tweet/a.png", now, now).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:  "Owner no longer exists",
			tweet: &models.Tweet{TweetID: "t3", OwnerID: "gone", Content: "x", CreatedAt: now, UpdatedAt: now},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tweets`).
					WillReturnError(&pq.Error{Code: "23503"})
			},
			wantKind: kindPtr(apperror.NotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupMockDB(t)
			tt.setupMock(mock)

			err := repo.Tweet.Create(context.Background(), tt.tweet)

			if tt.wantKind != nil {
				require.Error(t, err)
				assert.Equal(t, *tt.wantKind, apperror.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTweetRepository_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("Tweet with likes, comments and replies", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.tweet_id = $1`)).
			WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(tweetColumns).
				AddRow("t1", "u1", "hello", nil, nil, now, now, "{u2,u3}", "{}"))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM comments`)).
			WithArgs(pq.Array([]string{"t1"})).
			WillReturnRows(sqlmock.NewRows([]string{"comment_id", "tweet_id", "author_id", "text", "created_at"}).
				AddRow("c1", "t1", "u2", "nice", now))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM replies`)).
			WithArgs(pq.Array([]string{"t1"})).
			WillReturnRows(sqlmock.NewRows([]string{"reply_id", "tweet_id", "author_id", "text", "created_at"}).
				AddRow("r1", "t1", "u3", "agreed", now).
				AddRow("r2", "t1", "u1", "thanks", now))

		tweet, err := repo.Tweet.GetByID(context.Background(), "t1")

		require.NoError(t, err)
		assert.Equal(t, []string{"u2", "u3"}, tweet.Likes)
		assert.NotNil(t, tweet.RetweetedBy)
		require.Len(t, tweet.Comments, 1)
		assert.Equal(t, "nice", tweet.Comments[0].Text)
		require.Len(t, tweet.Replies, 2)
		assert.Equal(t, "r2", tweet.Replies[1].ReplyID)
		assert.Nil(t, tweet.Image)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Tweet not found", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.tweet_id = $1`)).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(tweetColumns))

		tweet, err := repo.Tweet.GetByID(context.Background(), "missing")

		assert.Nil(t, tweet)
		assert.True(t, apperror.Is(err, apperror.NotFound))
		assert.Equal(t, "Tweet not found", apperror.Message(err))
	})
}

func TestTweetRepository_ListByOwners(t *testing.T) {
	now := time.Now()

	t.Run("Empty owner list skips the store", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		tweets, err := repo.Tweet.ListByOwners(context.Background(), []string{})

		require.NoError(t, err)
		assert.Empty(t, tweets)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Newest first", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		owners := []string{"u1", "u2"}

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.owner_id = ANY($1) ORDER BY t.created_at DESC`)).
			WithArgs(pq.Array(owners)).
			WillReturnRows(sqlmock.NewRows(tweetColumns).
				AddRow("t2", "u2", "later", nil, nil, now, now, "{}", "{}").
				AddRow("t1", "u1", "earlier", nil, nil, now.Add(-time.Minute), now, "{}", "{}"))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM comments`)).
			WillReturnRows(sqlmock.NewRows([]string{"comment_id", "tweet_id", "author_id", "text", "created_at"}))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM replies`)).
			WillReturnRows(sqlmock.NewRows([]string{"reply_id", "tweet_id", "author_id", "text", "created_at"}))

		tweets, err := repo.Tweet.ListByOwners(context.Background(), owners)

		require.NoError(t, err)
		require.Len(t, tweets, 2)
		assert.Equal(t, "t2", tweets[0].TweetID)
		assert.Empty(t, tweets[1].Comments)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTweetRepository_UpdateContent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantKind *apperror.Kind
	}{
		{name: "Content updated", affected: 1},
		{name: "Tweet vanished", affected: 0, wantKind: kindPtr(apperror.NotFound)},
		{name: "Store failure", execErr: errors.New("connection reset"), wantKind: kindPtr(apperror.Upstream)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupMockDB(t)

			exp := mock.ExpectExec(regexp.QuoteMeta(`UPDATE tweets SET content = $1`)).
				WithArgs("edited", sqlmock.AnyArg(), "t1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err := repo.Tweet.UpdateContent(context.Background(), "t1", "edited")

			if tt.wantKind != nil {
				assert.Equal(t, *tt.wantKind, apperror.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTweetRepository_ToggleLike(t *testing.T) {
	tests := []struct {
		name      string
		removed   int64
		wantLiked bool
	}{
		{name: "First toggle likes", removed: 0, wantLiked: true},
		{name: "Second toggle unlikes", removed: 1, wantLiked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
				WithArgs("like:t1:u1").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tweet_likes`)).
				WithArgs("t1", "u1").
				WillReturnResult(sqlmock.NewResult(0, tt.removed))
			if tt.removed == 0 {
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tweet_likes`)).
					WithArgs("t1", "u1").
					WillReturnResult(sqlmock.NewResult(1, 1))
			}
			mock.ExpectCommit()

			liked, err := repo.Tweet.ToggleLike(context.Background(), "t1", "u1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantLiked, liked)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Tweet removed mid-toggle", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM tweet_likes`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO tweet_likes`).WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		_, err := repo.Tweet.ToggleLike(context.Background(), "t1", "u1")

		assert.True(t, apperror.Is(err, apperror.NotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func kindPtr(k apperror.Kind) *apperror.Kind {
	return &k
}
