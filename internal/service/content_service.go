package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
	"tweetline/internal/repository"
	"tweetline/internal/storage"
)

const tweetNamespace = "tweet"

type ContentService interface {
	CreateTweet(ctx context.Context, ownerID, content string, image []byte) (*models.Tweet, error)
	DeleteTweet(ctx context.Context, actorID, tweetID string) error
	// ToggleLike flips actorID's like and reports whether the tweet is now liked.
	ToggleLike(ctx context.Context, actorID, tweetID string) (bool, error)
	UpdateTweet(ctx context.Context, actorID, tweetID, content string) (*models.Tweet, error)
	// UpsertComment reports true when the comment was added rather than rewritten.
	UpsertComment(ctx context.Context, actorID, tweetID, text string) (*models.Comment, bool, error)
	// DeleteComment reports whether the owner policy applied.
	DeleteComment(ctx context.Context, actorID, tweetID, commentID string) (bool, error)
	AddReply(ctx context.Context, actorID, tweetID, commentID, text string) (*models.Reply, error)
	ListComments(ctx context.Context, tweetID string) ([]models.CommentView, error)
	Retweet(ctx context.Context, tweetID string) (*models.TweetView, error)
}

type contentService struct {
	tweetRepo   repository.TweetRepository
	commentRepo repository.CommentRepository
	storage     storage.Storage
	presenter   presenter
}

func NewContentService(tweetRepo repository.TweetRepository, commentRepo repository.CommentRepository, storage storage.Storage, p presenter) ContentService {
	return &contentService{
		tweetRepo:   tweetRepo,
		commentRepo: commentRepo,
		storage:     storage,
		presenter:   p,
	}
}

func required(value, message string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.New(apperror.InvalidArgument, "%s", message)
	}
	return value, nil
}

func (s *contentService) owned(ctx context.Context, actorID, tweetID string) (*models.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if tweet.OwnerID != actorID {
		return nil, apperror.New(apperror.Forbidden, "You are not the owner of this tweet")
	}
	return tweet, nil
}

func (s *contentService) CreateTweet(ctx context.Context, ownerID, content string, image []byte) (*models.Tweet, error) {
	content, err := required(content, "Content is required")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tweet := &models.Tweet{
		TweetID:     uuid.New().String(),
		Content:     content,
		OwnerID:     ownerID,
		Likes:       []string{},
		RetweetedBy: []string{},
		Comments:    []models.Comment{},
		Replies:     []models.Reply{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if len(image) > 0 {
		media, err := s.storage.Upload(ctx, tweetNamespace, image)
		if err != nil {
			return nil, apperror.FromStore(err, "failed to upload image")
		}
		tweet.Image = media
	}

	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		if tweet.Image != nil {
			if destroyErr := s.storage.Destroy(ctx, tweet.Image.PublicID); destroyErr != nil {
				log.Printf("create tweet: failed to clean up image %s: %v", tweet.Image.PublicID, destroyErr)
			}
		}
		return nil, err
	}

	return tweet, nil
}

func (s *contentService) DeleteTweet(ctx context.Context, actorID, tweetID string) error {
	tweet, err := s.owned(ctx, actorID, tweetID)
	if err != nil {
		return err
	}

	// a failed destroy leaves an orphaned object but never blocks the delete
	if tweet.Image != nil {
		if err := s.storage.Destroy(ctx, tweet.Image.PublicID); err != nil {
			log.Printf("delete tweet %s: failed to destroy image %s: %v", tweetID, tweet.Image.PublicID, err)
		}
	}

	return s.tweetRepo.Delete(ctx, tweetID)
}

func (s *contentService) ToggleLike(ctx context.Context, actorID, tweetID string) (bool, error) {
	if _, err := s.tweetRepo.GetByID(ctx, tweetID); err != nil {
		return false, err
	}
	return s.tweetRepo.ToggleLike(ctx, tweetID, actorID)
}

func (s *contentService) UpdateTweet(ctx context.Context, actorID, tweetID, content string) (*models.Tweet, error) {
	content, err := required(content, "Content is required")
	if err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, actorID, tweetID); err != nil {
		return nil, err
	}

	if err := s.tweetRepo.UpdateContent(ctx, tweetID, content); err != nil {
		return nil, err
	}

	return s.tweetRepo.GetByID(ctx, tweetID)
}

func (s *contentService) UpsertComment(ctx context.Context, actorID, tweetID, text string) (*models.Comment, bool, error) {
	text, err := required(text, "Comment is required")
	if err != nil {
		return nil, false, err
	}

	if _, err := s.tweetRepo.GetByID(ctx, tweetID); err != nil {
		return nil, false, err
	}

	return s.commentRepo.Upsert(ctx, tweetID, actorID, text)
}

// DeleteComment lets the tweet owner remove any comment by id, and anyone else
// remove only their own comment. A comment that is already gone is not an error.
func (s *contentService) DeleteComment(ctx context.Context, actorID, tweetID, commentID string) (bool, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return false, err
	}

	if tweet.OwnerID == actorID {
		if commentID == "" {
			return true, apperror.New(apperror.InvalidArgument, "Comment Id is required")
		}
		_, err := s.commentRepo.DeleteByID(ctx, tweetID, commentID)
		return true, err
	}

	_, err = s.commentRepo.DeleteByAuthor(ctx, tweetID, actorID)
	return false, err
}

func (s *contentService) AddReply(ctx context.Context, actorID, tweetID, commentID, text string) (*models.Reply, error) {
	text, err := required(text, "Reply is required")
	if err != nil {
		return nil, err
	}

	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	// the comment only gates the call; replies live in one flat list per tweet
	if tweet.Comment(commentID) == nil {
		return nil, apperror.New(apperror.NotFound, "Comment not found")
	}

	reply := &models.Reply{
		ReplyID:   uuid.New().String(),
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.AddReply(ctx, tweetID, reply); err != nil {
		return nil, err
	}

	return reply, nil
}

func (s *contentService) ListComments(ctx context.Context, tweetID string) ([]models.CommentView, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return s.presenter.comments(ctx, tweet.Comments)
}

// Retweet reads the tweet back with its references resolved; it does not record a retweet.
func (s *contentService) Retweet(ctx context.Context, tweetID string) (*models.TweetView, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return s.presenter.tweet(ctx, tweet)
}
