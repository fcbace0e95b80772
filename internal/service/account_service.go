package service

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
	"tweetline/internal/repository"
	"tweetline/internal/storage"
)

const mediaDestroyConcurrency = 4

type AccountService interface {
	// DeleteAccount removes the user and everything that references them. Every step
	// is idempotent, so a failed call can be retried until it succeeds. The user record
	// is only marked deleted until the last step has run, then purged.
	DeleteAccount(ctx context.Context, userID string) error
}

type accountService struct {
	rep     *repository.Repository
	storage storage.Storage
}

func NewAccountService(rep *repository.Repository, storage storage.Storage) AccountService {
	return &accountService{rep: rep, storage: storage}
}

func (s *accountService) DeleteAccount(ctx context.Context, userID string) error {
	// a retry finds the marked record and its avatar; after the purge there is none
	user, err := s.rep.User.GetIncludingDeleted(ctx, userID)
	if err != nil && !apperror.Is(err, apperror.NotFound) {
		return err
	}

	tweets, err := s.rep.Tweet.ListByOwner(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.destroyTweetMedia(ctx, tweets); err != nil {
		return err
	}
	log.Printf("delete account %s: destroyed media of %d tweets", userID, len(tweets))

	if err := s.rep.Tweet.DeleteByOwner(ctx, userID); err != nil {
		return apperror.FromStore(err, "failed to delete tweets")
	}
	log.Printf("delete account %s: deleted tweets", userID)

	removed, err := s.rep.Comment.DeleteAllByAuthor(ctx, userID)
	if err != nil {
		return apperror.FromStore(err, "failed to delete comments")
	}
	log.Printf("delete account %s: removed %d comments", userID, removed)

	if err := s.rep.User.MarkDeleted(ctx, userID); err != nil {
		return apperror.FromStore(err, "failed to delete user")
	}
	log.Printf("delete account %s: marked user deleted", userID)

	if err := s.rep.Follow.RemoveUser(ctx, userID); err != nil {
		return apperror.FromStore(err, "failed to remove follow edges")
	}
	log.Printf("delete account %s: removed follow edges", userID)

	if user != nil && user.Avatar != nil {
		if err := s.storage.Destroy(ctx, user.Avatar.PublicID); err != nil {
			log.Printf("delete account %s: failed to destroy avatar %s: %v", userID, user.Avatar.PublicID, err)
			return apperror.FromStore(err, "failed to destroy avatar")
		}
		log.Printf("delete account %s: destroyed avatar", userID)
	}

	if err := s.rep.User.Delete(ctx, userID); err != nil {
		return apperror.FromStore(err, "failed to purge user")
	}
	log.Printf("delete account %s: purged user record", userID)

	return nil
}

func (s *accountService) destroyTweetMedia(ctx context.Context, tweets []*models.Tweet) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mediaDestroyConcurrency)

	for _, tweet := range tweets {
		if tweet.Image == nil {
			continue
		}
		publicID := tweet.Image.PublicID
		g.Go(func() error {
			if err := s.storage.Destroy(gctx, publicID); err != nil {
				log.Printf("delete account: failed to destroy tweet media %s: %v", publicID, err)
				return apperror.FromStore(err, "failed to destroy tweet media")
			}
			return nil
		})
	}

	return g.Wait()
}
