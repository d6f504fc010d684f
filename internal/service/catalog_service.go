package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

const (
	catalogCacheTTL = 10 * time.Minute
	tagsCacheKey    = "tags:all"
)

// TagService exposes the read-only tag catalogue.
type TagService interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(ctx context.Context, id uint) (*model.Tag, error)
	// EnsureTag creates tag unless its slug exists.
	EnsureTag(ctx context.Context, tag *model.Tag) (bool, error)
}

type tagService struct {
	repo  repository.TagRepository
	cache Cache
}

// NewTagService creates a new tag service.
func NewTagService(repo repository.TagRepository, cache Cache) TagService {
	return &tagService{repo: repo, cache: cache}
}

func (s *tagService) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if s.cache.GetJSON(ctx, tagsCacheKey, &tags) {
		return tags, nil
	}

	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	s.cache.SetJSON(ctx, tagsCacheKey, tags, catalogCacheTTL)
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (*model.Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return tag, nil
}

func (s *tagService) EnsureTag(ctx context.Context, tag *model.Tag) (bool, error) {
	created, err := s.repo.CreateIfMissing(ctx, tag)
	if err != nil {
		return false, fmt.Errorf("ensure tag %s: %w", tag.Slug, err)
	}
	if created {
		_ = s.cache.Delete(ctx, tagsCacheKey)
	}
	return created, nil
}

// IngredientService exposes the read-only ingredient catalogue.
type IngredientService interface {
	// ListIngredients filters by a case-insensitive name prefix when name is set.
	ListIngredients(ctx context.Context, name string) ([]model.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*model.Ingredient, error)
	EnsureIngredient(ctx context.Context, ingredient *model.Ingredient) (bool, error)
}

type ingredientService struct {
	repo  repository.IngredientRepository
	cache Cache
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(repo repository.IngredientRepository, cache Cache) IngredientService {
	return &ingredientService{repo: repo, cache: cache}
}

func (s *ingredientService) cacheKey(id uint) string {
	return fmt.Sprintf("ingredient:%d", id)
}

func (s *ingredientService) ListIngredients(ctx context.Context, name string) ([]model.Ingredient, error) {
	ingredients, err := s.repo.List(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *ingredientService) GetIngredient(ctx context.Context, id uint) (*model.Ingredient, error) {
	var cached model.Ingredient
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	ingredient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("find ingredient: %w", err)
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), ingredient, catalogCacheTTL)
	return ingredient, nil
}

func (s *ingredientService) EnsureIngredient(ctx context.Context, ingredient *model.Ingredient) (bool, error) {
	created, err := s.repo.CreateIfMissing(ctx, ingredient)
	if err != nil {
		return false, fmt.Errorf("ensure ingredient %s: %w", ingredient.Name, err)
	}
	return created, nil
}
