package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/model"
)

func TestRecipeRepository_CreateAndFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, f.alice, "Bread",
		[]uint{f.tags[1].ID, f.tags[0].ID},
		[]model.IngredientAmount{{IngredientID: f.flour.ID, Amount: 500}, {IngredientID: f.salt.ID, Amount: 5}})

	got, err := f.recipes.FindByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Name)
	assert.Equal(t, "alice", got.Author.Username)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "breakfast", got.Tags[0].Slug)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "flour", got.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 500, got.Ingredients[0].Amount)
}

func TestRecipeRepository_ReplaceAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, f.alice, "Bread",
		[]uint{f.tags[0].ID},
		[]model.IngredientAmount{{IngredientID: f.flour.ID, Amount: 500}, {IngredientID: f.salt.ID, Amount: 5}})

	err := f.recipes.WithTransaction(ctx, func(ctx context.Context, tx RecipeRepository) error {
		recipe.Name = "Flatbread"
		if err := tx.Update(ctx, recipe); err != nil {
			return err
		}
		if err := tx.ReplaceTags(ctx, recipe.ID, []uint{f.tags[1].ID}); err != nil {
			return err
		}
		return tx.ReplaceIngredients(ctx, recipe.ID, []model.IngredientAmount{{IngredientID: f.salt.ID, Amount: 2}})
	})
	require.NoError(t, err)

	got, err := f.recipes.FindByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flatbread", got.Name)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "dinner", got.Tags[0].Slug)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, f.salt.ID, got.Ingredients[0].IngredientID)
	assert.Equal(t, 2, got.Ingredients[0].Amount)
}

func TestRecipeRepository_FailedReplaceRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, f.alice, "Bread",
		[]uint{f.tags[0].ID},
		[]model.IngredientAmount{{IngredientID: f.flour.ID, Amount: 500}})

	boom := errors.New("boom")
	err := f.recipes.WithTransaction(ctx, func(ctx context.Context, tx RecipeRepository) error {
		if err := tx.ReplaceIngredients(ctx, recipe.ID, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.recipes.FindByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Len(t, got.Ingredients, 1, "ingredients must survive a rolled back replace")
}

func TestRecipeRepository_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []model.IngredientAmount{{IngredientID: f.salt.ID, Amount: 1}}

	r1 := f.createRecipe(t, f.alice, "Porridge", []uint{f.tags[0].ID}, items)
	r2 := f.createRecipe(t, f.alice, "Stew", []uint{f.tags[1].ID}, items)
	r3 := f.createRecipe(t, f.bob, "Omelette", []uint{f.tags[0].ID, f.tags[1].ID}, items)

	require.NoError(t, NewFavoriteRepository(f.db).Add(ctx, f.bob.ID, r1.ID))
	require.NoError(t, NewShoppingCartRepository(f.db).Add(ctx, f.bob.ID, r2.ID))

	ids := func(recipes []model.Recipe) []uint {
		out := make([]uint, 0, len(recipes))
		for _, r := range recipes {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter RecipeFilter
		want   []uint
	}{
		{"no filter newest first", RecipeFilter{}, []uint{r3.ID, r2.ID, r1.ID}},
		{"by author", RecipeFilter{AuthorID: f.alice.ID}, []uint{r2.ID, r1.ID}},
		{"by tag", RecipeFilter{TagSlugs: []string{"breakfast"}}, []uint{r3.ID, r1.ID}},
		{"tags are ORed", RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}, []uint{r3.ID, r2.ID, r1.ID}},
		{"favorited", RecipeFilter{FavoritedBy: f.bob.ID}, []uint{r1.ID}},
		{"in cart", RecipeFilter{InCartOf: f.bob.ID}, []uint{r2.ID}},
		{"combined", RecipeFilter{AuthorID: f.bob.ID, FavoritedBy: f.bob.ID}, []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes, total, err := f.recipes.List(ctx, tt.filter, Page{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			assert.Equal(t, tt.want, ids(recipes))
		})
	}

	t.Run("pagination", func(t *testing.T) {
		recipes, total, err := f.recipes.List(ctx, RecipeFilter{}, Page{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []uint{r1.ID}, ids(recipes))
	})
}

func TestRecipeRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recipe := f.createRecipe(t, f.alice, "Bread", []uint{f.tags[0].ID},
		[]model.IngredientAmount{{IngredientID: f.salt.ID, Amount: 5}})
	favorites := NewFavoriteRepository(f.db)
	cart := NewShoppingCartRepository(f.db)
	require.NoError(t, favorites.Add(ctx, f.bob.ID, recipe.ID))
	require.NoError(t, cart.Add(ctx, f.bob.ID, recipe.ID))

	require.NoError(t, f.recipes.Delete(ctx, recipe.ID))

	for _, table := range []interface{}{&model.RecipeIngredient{}, &model.RecipeTag{}, &model.Favorite{}, &model.ShoppingCartEntry{}} {
		var n int64
		require.NoError(t, f.db.Model(table).Count(&n).Error)
		assert.Zero(t, n, "%T rows must be removed with the recipe", table)
	}

	assert.ErrorIs(t, f.recipes.Delete(ctx, recipe.ID), ErrNotFound)
}

func TestRecipeRepository_UserDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createRecipe(t, f.alice, "Bread", []uint{f.tags[0].ID},
		[]model.IngredientAmount{{IngredientID: f.salt.ID, Amount: 5}})
	require.NoError(t, NewFollowRepository(f.db).Add(ctx, f.bob.ID, f.alice.ID))

	require.NoError(t, f.db.Delete(&model.User{}, f.alice.ID).Error)

	var recipes, follows int64
	require.NoError(t, f.db.Model(&model.Recipe{}).Count(&recipes).Error)
	require.NoError(t, f.db.Model(&model.Follow{}).Count(&follows).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, follows)
}

func TestRecipeRepository_AuthorHelpers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []model.IngredientAmount{{IngredientID: f.salt.ID, Amount: 1}}

	f.createRecipe(t, f.alice, "One", []uint{f.tags[0].ID}, items)
	f.createRecipe(t, f.alice, "Two", []uint{f.tags[0].ID}, items)
	latest := f.createRecipe(t, f.alice, "Three", []uint{f.tags[0].ID}, items)

	recipes, err := f.recipes.ListByAuthor(ctx, f.alice.ID, 2)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, latest.ID, recipes[0].ID)

	counts, err := f.recipes.CountByAuthors(ctx, []uint{f.alice.ID, f.bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[f.alice.ID])
	assert.Zero(t, counts[f.bob.ID])
}
