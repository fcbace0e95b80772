package repository

import (
	"context"
	"time"

	"github.com/jackc/pgerrcode"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
)

type commentRepository struct {
	base
}

type upsertRow struct {
	commentRow
	Inserted bool `db:"inserted"`
}

// tweetMissing reports a write that referenced a tweet which no longer exists.
func tweetMissing(err error) bool {
	pqErr, ok := pqCode(err)
	return ok && string(pqErr.Code) == pgerrcode.ForeignKeyViolation
}

func (r *commentRepository) Upsert(ctx context.Context, tweetID, authorID, text string) (*models.Comment, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	// xmax is zero only on rows created by this statement.
	query := `
		INSERT INTO comments (comment_id, tweet_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tweet_id, author_id) DO UPDATE SET text = EXCLUDED.text, updated_at = EXCLUDED.created_at
		RETURNING comment_id, tweet_id, author_id, text, created_at, (xmax = 0) AS inserted
	`

	var row upsertRow
	err := r.db.GetContext(ctx, &row, query, newID(), tweetID, authorID, text, time.Now())
	if err != nil {
		if tweetMissing(err) {
			return nil, false, apperror.New(apperror.NotFound, "Tweet not found")
		}
		return nil, false, storeError(err, "failed to save comment")
	}

	return &models.Comment{
		CommentID: row.CommentID,
		AuthorID:  row.AuthorID,
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
	}, row.Inserted, nil
}

func (r *commentRepository) deleteWhere(ctx context.Context, query string, args ...any) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storeError(err, "failed to delete comment")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storeError(err, "failed to check affected rows")
	}

	return n > 0, nil
}

func (r *commentRepository) DeleteByID(ctx context.Context, tweetID, commentID string) (bool, error) {
	return r.deleteWhere(ctx, `DELETE FROM comments WHERE tweet_id = $1 AND comment_id = $2`, tweetID, commentID)
}

func (r *commentRepository) DeleteByAuthor(ctx context.Context, tweetID, authorID string) (bool, error) {
	return r.deleteWhere(ctx, `DELETE FROM comments WHERE tweet_id = $1 AND author_id = $2`, tweetID, authorID)
}

func (r *commentRepository) DeleteAllByAuthor(ctx context.Context, authorID string) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE author_id = $1`, authorID)
	if err != nil {
		return 0, storeError(err, "failed to delete comments of user")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(err, "failed to check affected rows")
	}

	return n, nil
}

func (r *commentRepository) AddReply(ctx context.Context, tweetID string, reply *models.Reply) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if reply.ReplyID == "" {
		reply.ReplyID = newID()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	query := `INSERT INTO replies (reply_id, tweet_id, author_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, reply.ReplyID, tweetID, reply.AuthorID, reply.Text, reply.CreatedAt)
	if err != nil {
		if tweetMissing(err) {
			return apperror.New(apperror.NotFound, "Tweet not found")
		}
		return storeError(err, "failed to add reply")
	}

	return nil
}
