package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

type tweetRepository struct {
	base
}

type tweetRow struct {
	TweetID       string         `db:"tweet_id"`
	OwnerID       string         `db:"owner_id"`
	Content       string         `db:"content"`
	ImagePublicID sql.NullString `db:"image_public_id"`
	ImageURL      sql.NullString `db:"image_url"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Likes         pq.StringArray `db:"likes"`
	RetweetedBy   pq.StringArray `db:"retweeted_by"`
}

type commentRow struct {
	CommentID string    `db:"comment_id"`
	TweetID   string    `db:"tweet_id"`
	AuthorID  string    `db:"author_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

type replyRow struct {
	ReplyID   string    `db:"reply_id"`
	TweetID   string    `db:"tweet_id"`
	AuthorID  string    `db:"author_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

const selectTweet = `
	SELECT t.tweet_id, t.owner_id, t.content, t.image_public_id, t.image_url, t.created_at, t.updated_at,
		ARRAY(SELECT l.user_id FROM tweet_likes l WHERE l.tweet_id = t.tweet_id ORDER BY l.created_at) AS likes,
		ARRAY(SELECT rt.user_id FROM tweet_retweets rt WHERE rt.tweet_id = t.tweet_id ORDER BY rt.created_at) AS retweeted_by
	FROM tweets t`

func (row *tweetRow) toModel() *models.Tweet {
	tweet := &models.Tweet{
		TweetID:     row.TweetID,
		Content:     row.Content,
		OwnerID:     row.OwnerID,
		Likes:       []string(row.Likes),
		RetweetedBy: []string(row.RetweetedBy),
		Image:       media(row.ImagePublicID, row.ImageURL),
		Comments:    []models.Comment{},
		Replies:     []models.Reply{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if tweet.Likes == nil {
		tweet.Likes = []string{}
	}
	if tweet.RetweetedBy == nil {
		tweet.RetweetedBy = []string{}
	}
	return tweet
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO tweets (tweet_id, owner_id, content, image_public_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var publicID, url sql.NullString
	if tweet.Image != nil {
		publicID, url = nullString(tweet.Image.PublicID), nullString(tweet.Image.URL)
	}

	_, err := r.db.ExecContext(ctx, query,
		tweet.TweetID, tweet.OwnerID, tweet.Content, publicID, url, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return storeError(err, "failed to create tweet")
	}

	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, tweetID string) (*models.Tweet, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var row tweetRow
	if err := r.db.GetContext(ctx, &row, selectTweet+" WHERE t.tweet_id = $1", tweetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "Tweet not found")
		}
		return nil, storeError(err, "failed to load tweet")
	}

	tweets := []*models.Tweet{row.toModel()}
	if err := r.loadThreads(ctx, tweets); err != nil {
		return nil, err
	}

	return tweets[0], nil
}

func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Tweet, error) {
	return r.ListByOwners(ctx, []string{ownerID})
}

func (r *tweetRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Tweet, error) {
	if len(ownerIDs) == 0 {
		return []*models.Tweet{}, nil
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := selectTweet + " WHERE t.owner_id = ANY($1) ORDER BY t.created_at DESC, t.tweet_id DESC"

	var rows []tweetRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ownerIDs)); err != nil {
		return nil, storeError(err, "failed to list tweets")
	}

	tweets := make([]*models.Tweet, 0, len(rows))
	for i := range rows {
		tweets = append(tweets, rows[i].toModel())
	}

	if err := r.loadThreads(ctx, tweets); err != nil {
		return nil, err
	}

	return tweets, nil
}

// loadThreads attaches comments and replies, in creation order, to the given tweets.
func (r *tweetRepository) loadThreads(ctx context.Context, tweets []*models.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}

	byID := make(map[string]*models.Tweet, len(tweets))
	ids := make([]string, 0, len(tweets))
	for _, tweet := range tweets {
		byID[tweet.TweetID] = tweet
		ids = append(ids, tweet.TweetID)
	}

	var comments []commentRow
	err := r.db.SelectContext(ctx, &comments, `
		SELECT comment_id, tweet_id, author_id, text, created_at FROM comments
		WHERE tweet_id = ANY($1) ORDER BY created_at, comment_id
	`, pq.Array(ids))
	if err != nil {
		return storeError(err, "failed to load comments")
	}

	for _, c := range comments {
		tweet := byID[c.TweetID]
		tweet.Comments = append(tweet.Comments, models.Comment{
			CommentID: c.CommentID,
			AuthorID:  c.AuthorID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}

	var replies []replyRow
	err = r.db.SelectContext(ctx, &replies, `
		SELECT reply_id, tweet_id, author_id, text, created_at FROM replies
		WHERE tweet_id = ANY($1) ORDER BY created_at, reply_id
	`, pq.Array(ids))
	if err != nil {
		return storeError(err, "failed to load replies")
	}

	for _, rp := range replies {
		tweet := byID[rp.TweetID]
		tweet.Replies = append(tweet.Replies, models.Reply{
			ReplyID:   rp.ReplyID,
			AuthorID:  rp.AuthorID,
			Text:      rp.Text,
			CreatedAt: rp.CreatedAt,
		})
	}

	return nil
}

func (r *tweetRepository) UpdateContent(ctx context.Context, tweetID, content string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx,
		`UPDATE tweets SET content = $1, updated_at = $2 WHERE tweet_id = $3`,
		content, time.Now(), tweetID)
	if err != nil {
		return storeError(err, "failed to update tweet")
	}

	return requireRow(result, "Tweet not found")
}

func (r *tweetRepository) Delete(ctx context.Context, tweetID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE tweet_id = $1`, tweetID); err != nil {
		return storeError(err, "failed to delete tweet")
	}

	return nil
}

func (r *tweetRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE owner_id = $1`, ownerID); err != nil {
		return storeError(err, "failed to delete tweets of user")
	}

	return nil
}

func (r *tweetRepository) ToggleLike(ctx context.Context, tweetID, userID string) (bool, error) {
	liked, err := r.toggle(ctx, "like:"+tweetID+":"+userID,
		`DELETE FROM tweet_likes WHERE tweet_id = $1 AND user_id = $2`,
		`INSERT INTO tweet_likes (tweet_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		tweetID, userID,
	)
	if err != nil {
		return false, storeError(err, "failed to toggle like")
	}

	return liked, nil
}
