package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user profiles relative to a viewer. A viewerID of 0
// means an anonymous requester.
type UserService interface {
	GetUser(ctx context.Context, viewerID, id uint) (*UserProfile, error)
	ListUsers(ctx context.Context, viewerID uint, page repository.Page) ([]UserProfile, int64, error)
}

type userService struct {
	repo    repository.UserRepository
	follows repository.FollowRepository
	cache   Cache
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, follows repository.FollowRepository, cache Cache) UserService {
	return &userService{repo: repo, follows: follows, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) GetUser(ctx context.Context, viewerID, id uint) (*UserProfile, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	followed, err := s.follows.FollowedAmong(ctx, viewerID, []uint{user.ID})
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	profile := newUserProfile(user, followed[user.ID])
	return &profile, nil
}

func (s *userService) findUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, viewerID uint, page repository.Page) ([]UserProfile, int64, error) {
	users, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := s.follows.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load subscriptions: %w", err)
	}

	profiles := make([]UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, newUserProfile(&users[i], followed[users[i].ID]))
	}
	return profiles, total, nil
}
