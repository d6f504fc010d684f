package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/logging"
	"foodgram/internal/media"
	"foodgram/internal/metrics"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

const (
	maxRecipeNameLength = 200
	recipeImagePrefix   = "recipes/"
)

// ImageSource is an uploaded image, either a data URI or raw file bytes.
type ImageSource struct {
	DataURI string
	Raw     []byte
}

// Empty reports whether no image was supplied.
func (s *ImageSource) Empty() bool {
	return s == nil || (s.DataURI == "" && len(s.Raw) == 0)
}

// RecipeInput is the write representation of a recipe.
type RecipeInput struct {
	Name        string
	Text        string
	Image       *ImageSource
	CookingTime int
	Tags        []uint
	Ingredients []model.IngredientAmount
}

// RecipeQuery filters a recipe listing.
type RecipeQuery struct {
	AuthorID         uint
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService implements the recipe read and write paths. A userID of 0
// means an anonymous requester.
type RecipeService interface {
	ListRecipes(ctx context.Context, userID uint, q RecipeQuery, page repository.Page) ([]RecipeView, int64, error)
	GetRecipe(ctx context.Context, userID, id uint) (*RecipeView, error)
	CreateRecipe(ctx context.Context, userID uint, in RecipeInput) (*RecipeView, error)
	// UpdateRecipe replaces every field and association of the recipe. The
	// image is kept when in.Image is empty.
	UpdateRecipe(ctx context.Context, userID, id uint, in RecipeInput) (*RecipeView, error)
	DeleteRecipe(ctx context.Context, userID, id uint) error
}

type recipeService struct {
	recipes     repository.RecipeRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	favorites   repository.RecipeRelationRepository
	cart        repository.RecipeRelationRepository
	follows     repository.FollowRepository
	images      storage.ImageStore
	maxWidth    int
}

// RecipeDeps groups the collaborators of the recipe service.
type RecipeDeps struct {
	Recipes       repository.RecipeRepository
	Tags          repository.TagRepository
	Ingredients   repository.IngredientRepository
	Favorites     repository.RecipeRelationRepository
	Cart          repository.RecipeRelationRepository
	Follows       repository.FollowRepository
	Images        storage.ImageStore
	MaxImageWidth int
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(deps RecipeDeps) RecipeService {
	return &recipeService{
		recipes:     deps.Recipes,
		tags:        deps.Tags,
		ingredients: deps.Ingredients,
		favorites:   deps.Favorites,
		cart:        deps.Cart,
		follows:     deps.Follows,
		images:      deps.Images,
		maxWidth:    deps.MaxImageWidth,
	}
}

func (s *recipeService) ListRecipes(ctx context.Context, userID uint, q RecipeQuery, page repository.Page) ([]RecipeView, int64, error) {
	filter := repository.RecipeFilter{
		AuthorID: q.AuthorID,
		TagSlugs: q.Tags,
	}
	// Relation filters are meaningless for anonymous users.
	if userID != 0 {
		if q.IsFavorited {
			filter.FavoritedBy = userID
		}
		if q.IsInShoppingCart {
			filter.InCartOf = userID
		}
	}

	recipes, total, err := s.recipes.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.buildViews(ctx, userID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, userID, id uint) (*RecipeView, error) {
	recipe, err := s.findRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.buildViews(ctx, userID, []model.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *recipeService) findRecipe(ctx context.Context, id uint) (*model.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}
	return recipe, nil
}

// buildViews resolves the viewer relative flags of all recipes in batch.
func (s *recipeService) buildViews(ctx context.Context, userID uint, recipes []model.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.favorites.MarkedAmong(ctx, userID, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	inCart, err := s.cart.MarkedAmong(ctx, userID, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	followed, err := s.follows.FollowedAmong(ctx, userID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	for i := range recipes {
		r := &recipes[i]
		tags := r.Tags
		if tags == nil {
			tags = []model.Tag{}
		}
		lines := make([]IngredientLine, 0, len(r.Ingredients))
		for _, ri := range r.Ingredients {
			lines = append(lines, IngredientLine{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}
		views = append(views, RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           newUserProfile(&r.Author, followed[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.images.PublicURL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
		})
	}
	return views, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, userID uint, in RecipeInput) (*RecipeView, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	image, err := s.validate(ctx, in, true)
	if err != nil {
		return nil, err
	}

	key, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    userID,
		Name:        in.Name,
		Text:        in.Text,
		Image:       key,
		CookingTime: in.CookingTime,
	}
	err = s.recipes.WithTransaction(ctx, func(ctx context.Context, tx repository.RecipeRepository) error {
		if err := tx.Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return replaceAssociations(ctx, tx, recipe.ID, in)
	})
	if err != nil {
		s.deleteImage(ctx, key)
		return nil, err
	}

	metrics.RecordRecipeWrite("create")
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("user_id", userID).Msg("recipe created")
	return s.GetRecipe(ctx, userID, recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, userID, id uint, in RecipeInput) (*RecipeView, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	image, err := s.validate(ctx, in, false)
	if err != nil {
		return nil, err
	}

	var newKey string
	if image != nil {
		if newKey, err = s.storeImage(ctx, image); err != nil {
			return nil, err
		}
	}

	var oldKey string
	err = s.recipes.WithTransaction(ctx, func(ctx context.Context, tx repository.RecipeRepository) error {
		recipe, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.ErrRecipeNotFound
			}
			return fmt.Errorf("lock recipe: %w", err)
		}
		if recipe.AuthorID != userID {
			return apperrors.ErrNotAuthor
		}

		recipe.Name = in.Name
		recipe.Text = in.Text
		recipe.CookingTime = in.CookingTime
		if newKey != "" {
			oldKey, recipe.Image = recipe.Image, newKey
		}
		if err := tx.Update(ctx, recipe); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		return replaceAssociations(ctx, tx, id, in)
	})
	if err != nil {
		s.deleteImage(ctx, newKey)
		return nil, err
	}
	s.deleteImage(ctx, oldKey)

	metrics.RecordRecipeWrite("update")
	logging.Ctx(ctx).Info().Uint("recipe_id", id).Uint("user_id", userID).Msg("recipe updated")
	return s.GetRecipe(ctx, userID, id)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, userID, id uint) error {
	if userID == 0 {
		return apperrors.ErrUnauthenticated
	}
	recipe, err := s.findRecipe(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return apperrors.ErrNotAuthor
	}

	if err := s.recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	s.deleteImage(ctx, recipe.Image)

	metrics.RecordRecipeWrite("delete")
	logging.Ctx(ctx).Info().Uint("recipe_id", id).Uint("user_id", userID).Msg("recipe deleted")
	return nil
}

// authorize checks the recipe exists and belongs to userID.
func (s *recipeService) authorize(ctx context.Context, userID, id uint) error {
	recipe, err := s.findRecipe(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return apperrors.ErrNotAuthor
	}
	return nil
}

func replaceAssociations(ctx context.Context, tx repository.RecipeRepository, recipeID uint, in RecipeInput) error {
	if err := tx.ReplaceTags(ctx, recipeID, in.Tags); err != nil {
		return err
	}
	return tx.ReplaceIngredients(ctx, recipeID, in.Ingredients)
}

// validate checks every field of in and collects all violations. It returns
// the normalized image, or nil when none was supplied.
func (s *recipeService) validate(ctx context.Context, in RecipeInput, requireImage bool) ([]byte, error) {
	ve := apperrors.NewValidationError()

	switch n := utf8.RuneCountInString(in.Name); {
	case n == 0:
		ve.Add("name", "This field is required.")
	case n > maxRecipeNameLength:
		ve.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxRecipeNameLength))
	}
	if in.Text == "" {
		ve.Add("text", "This field is required.")
	}
	if in.CookingTime < 1 {
		ve.Add("cooking_time", "Cooking time must be at least 1 minute.")
	}

	if err := s.validateTags(ctx, in.Tags, ve); err != nil {
		return nil, err
	}
	if err := s.validateIngredients(ctx, in.Ingredients, ve); err != nil {
		return nil, err
	}

	var image []byte
	switch {
	case in.Image.Empty():
		if requireImage {
			ve.Add("image", "This field is required.")
		}
	default:
		raw := in.Image.Raw
		if in.Image.DataURI != "" {
			decoded, err := media.DecodeDataURI(in.Image.DataURI)
			if err != nil {
				ve.Add("image", "Upload a valid image as a base64 data URI.")
				break
			}
			raw = decoded
		}
		normalized, err := media.Normalize(raw, s.maxWidth)
		if err != nil {
			ve.Add("image", "Upload a valid image. The file is either not an image or corrupted.")
			break
		}
		image = normalized
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *recipeService) validateTags(ctx context.Context, ids []uint, ve *apperrors.ValidationError) error {
	if len(ids) == 0 {
		ve.Add("tags", "At least one tag is required.")
		return nil
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			ve.Add("tags", fmt.Sprintf("Tag %d is listed more than once.", id))
			return nil
		}
		seen[id] = true
	}

	found, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if len(found) != len(ids) {
		for _, t := range found {
			delete(seen, t.ID)
		}
		for _, id := range ids {
			if seen[id] {
				ve.Add("tags", fmt.Sprintf("Tag %d does not exist.", id))
			}
		}
	}
	return nil
}

func (s *recipeService) validateIngredients(ctx context.Context, items []model.IngredientAmount, ve *apperrors.ValidationError) error {
	if len(items) == 0 {
		ve.Add("ingredients", "At least one ingredient is required.")
		return nil
	}
	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if seen[item.IngredientID] {
			ve.Add("ingredients", fmt.Sprintf("Ingredient %d is listed more than once.", item.IngredientID))
			return nil
		}
		seen[item.IngredientID] = true
		ids = append(ids, item.IngredientID)

		if item.Amount < 1 || item.Amount > model.MaxIngredientAmount {
			ve.Add("ingredients", fmt.Sprintf("Amount of ingredient %d must be between 1 and %d.", item.IngredientID, model.MaxIngredientAmount))
		}
	}

	found, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	if len(found) != len(ids) {
		for _, ing := range found {
			delete(seen, ing.ID)
		}
		for _, id := range ids {
			if seen[id] {
				ve.Add("ingredients", fmt.Sprintf("Ingredient %d does not exist.", id))
			}
		}
	}
	return nil
}

func (s *recipeService) storeImage(ctx context.Context, image []byte) (string, error) {
	key := recipeImagePrefix + uuid.New().String() + media.Extension
	if err := s.images.Upload(ctx, key, image, media.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// deleteImage removes key best-effort; failures only leave an orphaned blob.
func (s *recipeService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete recipe image")
	}
}
