package service

import (
	"context"

	"tweetline/internal/apperror"
	"tweetline/internal/repository"
)

type GraphService interface {
	// Follow toggles actorID's follow of targetID and reports whether actorID now follows it.
	Follow(ctx context.Context, actorID, targetID string) (bool, error)
}

type graphService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewGraphService(userRepo repository.UserRepository, followRepo repository.FollowRepository) GraphService {
	return &graphService{
		userRepo:   userRepo,
		followRepo: followRepo,
	}
}

func (s *graphService) Follow(ctx context.Context, actorID, targetID string) (bool, error) {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return false, err
	}

	if actorID == targetID {
		return false, apperror.New(apperror.InvalidOperation, "You cannot follow yourself")
	}

	return s.followRepo.Toggle(ctx, actorID, targetID)
}
