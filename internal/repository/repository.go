package repository

import (
	"context"
	"time"

	"tweetline/internal/models"
)

// UserRepository reads and writes live users. A user marked deleted is invisible to every
// method except GetIncludingDeleted and Delete until it is purged.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByID loads the full record: owned tweet ids, follower and following ids.
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetIncludingDeleted(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetSummaries(ctx context.Context, userIDs []string) ([]models.UserSummary, error)
	Search(ctx context.Context, name string, excludeID string) ([]models.UserSummary, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	// UpdatePassword also clears any pending reset token.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	// MarkDeleted hides the user while its account is being torn down. Marking a missing
	// or already marked user is a no-op.
	MarkDeleted(ctx context.Context, userID string) error
	// Delete purges the record. Deleting a missing user is a no-op.
	Delete(ctx context.Context, userID string) error
}

// FollowRepository keeps the follower/following pair of every edge together.
type FollowRepository interface {
	// Toggle flips the followerID -> followeeID edge and reports whether it now exists.
	Toggle(ctx context.Context, followerID, followeeID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]string, error)
	Followings(ctx context.Context, userID string) ([]string, error)
	// RemoveUser drops every edge touching userID, in either direction.
	RemoveUser(ctx context.Context, userID string) error
}

type TweetRepository interface {
	// Create persists the tweet and indexes it under its owner.
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, tweetID string) (*models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Tweet, error)
	ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Tweet, error)
	UpdateContent(ctx context.Context, tweetID, content string) error
	// Delete removes the tweet and its owner index entry. Deleting a missing tweet is a no-op.
	Delete(ctx context.Context, tweetID string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	// ToggleLike flips userID's like on the tweet and reports whether it is now liked.
	ToggleLike(ctx context.Context, tweetID, userID string) (bool, error)
}

// CommentRepository holds comments (one per author per tweet) and the flat reply list.
type CommentRepository interface {
	// Upsert writes authorID's comment on the tweet and reports whether it was newly added.
	Upsert(ctx context.Context, tweetID, authorID, text string) (*models.Comment, bool, error)
	DeleteByID(ctx context.Context, tweetID, commentID string) (bool, error)
	DeleteByAuthor(ctx context.Context, tweetID, authorID string) (bool, error)
	// DeleteAllByAuthor removes authorID's comments from every tweet in the store.
	DeleteAllByAuthor(ctx context.Context, authorID string) (int64, error)
	AddReply(ctx context.Context, tweetID string, reply *models.Reply) error
}

type HealthRepository interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	User    UserRepository
	Follow  FollowRepository
	Tweet   TweetRepository
	Comment CommentRepository
	Health  HealthRepository
}
