package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/metrics"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// RecipeToggleService adds and removes recipes from a per-user set such as
// favorites or the shopping cart.
type RecipeToggleService interface {
	// Add fails with the relation's "already added" error when the pair exists.
	Add(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error)
	// Remove fails with the relation's "not present" error when the pair is absent.
	Remove(ctx context.Context, userID, recipeID uint) error
}

type recipeToggle struct {
	relation   string
	repo       repository.RecipeRelationRepository
	recipes    repository.RecipeRepository
	images     storage.ImageStore
	errExists  error
	errMissing error
}

// NewFavoriteService toggles favorites.
func NewFavoriteService(repo repository.RecipeRelationRepository, recipes repository.RecipeRepository, images storage.ImageStore) RecipeToggleService {
	return &recipeToggle{
		relation:   "favorite",
		repo:       repo,
		recipes:    recipes,
		images:     images,
		errExists:  apperrors.ErrAlreadyFavorited,
		errMissing: apperrors.ErrNotFavorited,
	}
}

// NewShoppingCartService toggles shopping cart entries.
func NewShoppingCartService(repo repository.RecipeRelationRepository, recipes repository.RecipeRepository, images storage.ImageStore) RecipeToggleService {
	return &recipeToggle{
		relation:   "shopping_cart",
		repo:       repo,
		recipes:    recipes,
		images:     images,
		errExists:  apperrors.ErrAlreadyInCart,
		errMissing: apperrors.ErrNotInCart,
	}
}

func (s *recipeToggle) Add(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}

	exists, err := s.repo.Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", s.relation, err)
	}
	if exists {
		metrics.RecordToggle(s.relation, "add", s.errExists)
		return nil, s.errExists
	}

	// A concurrent add is resolved by the unique constraint.
	if err := s.repo.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordToggle(s.relation, "add", s.errExists)
			return nil, s.errExists
		}
		return nil, fmt.Errorf("add %s: %w", s.relation, err)
	}
	metrics.RecordToggle(s.relation, "add", nil)

	return &RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       s.images.PublicURL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}, nil
}

func (s *recipeToggle) Remove(ctx context.Context, userID, recipeID uint) error {
	if userID == 0 {
		return apperrors.ErrUnauthenticated
	}
	ok, err := s.recipes.Exists(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("find recipe: %w", err)
	}
	if !ok {
		return apperrors.ErrRecipeNotFound
	}

	removed, err := s.repo.Remove(ctx, userID, recipeID)
	if err != nil {
		return fmt.Errorf("remove %s: %w", s.relation, err)
	}
	if !removed {
		metrics.RecordToggle(s.relation, "remove", s.errMissing)
		return s.errMissing
	}
	metrics.RecordToggle(s.relation, "remove", nil)
	return nil
}
