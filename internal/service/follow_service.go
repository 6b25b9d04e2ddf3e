package service

import (
	"context"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *FollowService {
	return &FollowService{userRepo: userRepo, followRepo: followRepo}
}

func (s *FollowService) requireUsers(ctx context.Context, ids ...uint) error {
	for _, id := range ids {
		ok, err := s.userRepo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("User", id)
		}
	}
	return nil
}

// Follow makes actor follow target. Following twice is a conflict, not a no-op.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewSelfFollowError()
	}
	if err := s.requireUsers(ctx, actorID, targetID); err != nil {
		return err
	}
	created, err := s.followRepo.Follow(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !created {
		return models.NewConflictError(models.CodeAlreadyFollowing, "You already follow this user")
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if err := s.requireUsers(ctx, actorID, targetID); err != nil {
		return err
	}
	return s.followRepo.Unfollow(ctx, actorID, targetID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Followers(ctx, userID)
}

func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Following(ctx, userID)
}
