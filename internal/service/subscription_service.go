package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/metrics"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// SubscriptionService manages follows between users.
type SubscriptionService interface {
	// Subscribe makes userID follow authorID and returns the author profile
	// with at most recipesLimit recipes (non-positive uses the default).
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*AuthorProfile, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	// Subscriptions lists the authors userID follows.
	Subscriptions(ctx context.Context, userID uint, page repository.Page, recipesLimit int) ([]AuthorProfile, int64, error)
}

type subscriptionService struct {
	users        repository.UserRepository
	follows      repository.FollowRepository
	recipes      repository.RecipeRepository
	images       storage.ImageStore
	recipesLimit int
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	recipes repository.RecipeRepository,
	images storage.ImageStore,
	defaultRecipesLimit int,
) SubscriptionService {
	return &subscriptionService{
		users:        users,
		follows:      follows,
		recipes:      recipes,
		images:       images,
		recipesLimit: defaultRecipesLimit,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*AuthorProfile, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	// Checked before anything else so the outcome never depends on state.
	if userID == authorID {
		metrics.RecordToggle("subscription", "add", apperrors.ErrSelfSubscription)
		return nil, apperrors.ErrSelfSubscription
	}

	author, err := s.findAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	exists, err := s.follows.Exists(ctx, userID, authorID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		metrics.RecordToggle("subscription", "add", apperrors.ErrAlreadySubscribed)
		return nil, apperrors.ErrAlreadySubscribed
	}
	if err := s.follows.Add(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordToggle("subscription", "add", apperrors.ErrAlreadySubscribed)
			return nil, apperrors.ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	metrics.RecordToggle("subscription", "add", nil)

	profiles, err := s.authorProfiles(ctx, []model.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if userID == 0 {
		return apperrors.ErrUnauthenticated
	}
	if _, err := s.findAuthor(ctx, authorID); err != nil {
		return err
	}

	removed, err := s.follows.Remove(ctx, userID, authorID)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if !removed {
		metrics.RecordToggle("subscription", "remove", apperrors.ErrNotSubscribed)
		return apperrors.ErrNotSubscribed
	}
	metrics.RecordToggle("subscription", "remove", nil)
	return nil
}

func (s *subscriptionService) Subscriptions(ctx context.Context, userID uint, page repository.Page, recipesLimit int) ([]AuthorProfile, int64, error) {
	if userID == 0 {
		return nil, 0, apperrors.ErrUnauthenticated
	}
	authors, total, err := s.follows.ListAuthors(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	profiles, err := s.authorProfiles(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *subscriptionService) findAuthor(ctx context.Context, id uint) (*model.User, error) {
	author, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}
	return author, nil
}

// authorProfiles builds profiles of authors the requester follows.
func (s *subscriptionService) authorProfiles(ctx context.Context, authors []model.User, recipesLimit int) ([]AuthorProfile, error) {
	if recipesLimit <= 0 {
		recipesLimit = s.recipesLimit
	}

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}

	profiles := make([]AuthorProfile, 0, len(authors))
	for i := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, authors[i].ID, recipesLimit)
		if err != nil {
			return nil, fmt.Errorf("list author recipes: %w", err)
		}
		summaries := make([]RecipeSummary, 0, len(recipes))
		for _, r := range recipes {
			summaries = append(summaries, RecipeSummary{
				ID:          r.ID,
				Name:        r.Name,
				Image:       s.images.PublicURL(r.Image),
				CookingTime: r.CookingTime,
			})
		}
		profiles = append(profiles, AuthorProfile{
			UserProfile:  newUserProfile(&authors[i], true),
			Recipes:      summaries,
			RecipesCount: counts[authors[i].ID],
		})
	}
	return profiles, nil
}
