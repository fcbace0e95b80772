package service

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
	"tweetline/internal/repository"
	"tweetline/internal/storage"
)

// AvatarChange is the tri-state avatar field of a profile update. The zero value
// leaves the avatar alone; Set with nil Data removes it; Set with Data replaces it.
type AvatarChange struct {
	Set  bool
	Data []byte
}

type UpdateProfileRequest struct {
	Name     *string
	Email    *string
	Location *string
	DOB      *time.Time
	Avatar   AvatarChange
}

type UserService interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error)
	// Search finds users whose name contains name, case-insensitively, other than callerID.
	Search(ctx context.Context, callerID, name string) ([]models.UserSummary, error)
	FollowingsFeed(ctx context.Context, userID string) ([]*models.TweetView, error)
	MyTweets(ctx context.Context, userID string) ([]*models.TweetView, error)
	UserTweets(ctx context.Context, userID string) ([]*models.TweetView, error)
}

type userService struct {
	userRepo  repository.UserRepository
	tweetRepo repository.TweetRepository
	storage   storage.Storage
	presenter presenter
}

func NewUserService(userRepo repository.UserRepository, tweetRepo repository.TweetRepository, storage storage.Storage, p presenter) UserService {
	return &userService{
		userRepo:  userRepo,
		tweetRepo: tweetRepo,
		storage:   storage,
		presenter: p,
	}
}

func (s *userService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tweets, err := s.tweets(gctx, user.UserID)
		profile.Tweets = tweets
		return err
	})
	g.Go(func() error {
		followers, err := s.presenter.summaries(gctx, user.Followers)
		profile.Followers = followers
		return err
	})
	g.Go(func() error {
		followings, err := s.presenter.summaries(gctx, user.Followings)
		profile.Followings = followings
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.New(apperror.InvalidArgument, "Name cannot be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if email == "" {
			return nil, apperror.New(apperror.InvalidArgument, "Email cannot be empty")
		}
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil && !apperror.Is(err, apperror.NotFound) {
				return nil, err
			}
			if other != nil && other.UserID != user.UserID {
				return nil, apperror.New(apperror.Conflict, "Email is already in use")
			}
		}
		user.Email = email
	}
	if req.Location != nil {
		user.Location = strings.TrimSpace(*req.Location)
	}
	if req.DOB != nil {
		user.DOB = req.DOB
	}

	previous := user.Avatar
	var uploaded *models.Media
	if req.Avatar.Set {
		if len(req.Avatar.Data) > 0 {
			uploaded, err = s.storage.Upload(ctx, avatarNamespace, req.Avatar.Data)
			if err != nil {
				return nil, apperror.FromStore(err, "failed to upload avatar")
			}
		}
		user.Avatar = uploaded
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if uploaded != nil {
			s.destroy(ctx, uploaded.PublicID)
		}
		return nil, err
	}

	if req.Avatar.Set && previous != nil {
		s.destroy(ctx, previous.PublicID)
	}

	return user, nil
}

func (s *userService) destroy(ctx context.Context, publicID string) {
	if err := s.storage.Destroy(ctx, publicID); err != nil {
		log.Printf("failed to destroy media %s: %v", publicID, err)
	}
}

func (s *userService) Search(ctx context.Context, callerID, name string) ([]models.UserSummary, error) {
	return s.userRepo.Search(ctx, strings.TrimSpace(name), callerID)
}

func (s *userService) FollowingsFeed(ctx context.Context, userID string) ([]*models.TweetView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tweets, err := s.tweetRepo.ListByOwners(ctx, user.Followings)
	if err != nil {
		return nil, err
	}

	return s.presenter.tweets(ctx, tweets)
}

func (s *userService) MyTweets(ctx context.Context, userID string) ([]*models.TweetView, error) {
	return s.tweets(ctx, userID)
}

func (s *userService) UserTweets(ctx context.Context, userID string) ([]*models.TweetView, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.tweets(ctx, userID)
}

func (s *userService) tweets(ctx context.Context, ownerID string) ([]*models.TweetView, error) {
	tweets, err := s.tweetRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.presenter.tweets(ctx, tweets)
}
