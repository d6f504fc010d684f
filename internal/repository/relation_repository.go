package repository

import (
	"context"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// RecipeRelationRepository persists a unique (user, recipe) relation such as
// favorites or shopping cart entries.
type RecipeRelationRepository interface {
	Exists(ctx context.Context, userID, recipeID uint) (bool, error)
	// Add inserts the pair. ErrDuplicate is returned when it already exists.
	Add(ctx context.Context, userID, recipeID uint) error
	// Remove deletes the pair and reports whether it existed.
	Remove(ctx context.Context, userID, recipeID uint) (bool, error)
	// MarkedAmong returns the subset of recipeIDs related to userID.
	MarkedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
}

// ShoppingCartRepository adds the shopping list aggregation to the cart relation.
type ShoppingCartRepository interface {
	RecipeRelationRepository
	// ShoppingList sums the ingredients of every recipe in the user's cart,
	// grouped by name and unit, ordered by name then unit.
	ShoppingList(ctx context.Context, userID uint) ([]model.ShoppingListItem, error)
}

type recipeRelation interface {
	model.Favorite | model.ShoppingCartEntry
}

type recipeRelationRepository[T recipeRelation] struct {
	db     *gorm.DB
	newRow func(userID, recipeID uint) *T
}

// NewFavoriteRepository creates the favorites repository.
func NewFavoriteRepository(db *gorm.DB) RecipeRelationRepository {
	return &recipeRelationRepository[model.Favorite]{
		db: db,
		newRow: func(userID, recipeID uint) *model.Favorite {
			return &model.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func newCartRelation(db *gorm.DB) *recipeRelationRepository[model.ShoppingCartEntry] {
	return &recipeRelationRepository[model.ShoppingCartEntry]{
		db: db,
		newRow: func(userID, recipeID uint) *model.ShoppingCartEntry {
			return &model.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (r *recipeRelationRepository[T]) Exists(ctx context.Context, userID, recipeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *recipeRelationRepository[T]) Add(ctx context.Context, userID, recipeID uint) error {
	return translate(r.db.WithContext(ctx).Create(r.newRow(userID, recipeID)).Error)
}

func (r *recipeRelationRepository[T]) Remove(ctx context.Context, userID, recipeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recipeRelationRepository[T]) MarkedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return marked, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		marked[id] = true
	}
	return marked, nil
}

type shoppingCartRepository struct {
	*recipeRelationRepository[model.ShoppingCartEntry]
}

// NewShoppingCartRepository creates the shopping cart repository.
func NewShoppingCartRepository(db *gorm.DB) ShoppingCartRepository {
	return &shoppingCartRepository{recipeRelationRepository: newCartRelation(db)}
}

func (r *shoppingCartRepository) ShoppingList(ctx context.Context, userID uint) ([]model.ShoppingListItem, error) {
	items := make([]model.ShoppingListItem, 0)
	err := r.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS amount").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Joins("JOIN shopping_cart_entries AS sc ON sc.recipe_id = ri.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name ASC, i.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
