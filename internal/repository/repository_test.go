package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/db"
	"foodgram/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

type fixture struct {
	db      *gorm.DB
	alice   *model.User
	bob     *model.User
	tags    []model.Tag
	salt    model.Ingredient
	flour   model.Ingredient
	recipes RecipeRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(gdb)
	alice := &model.User{Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "A", PasswordHash: "x"}
	bob := &model.User{Email: "bob@example.com", Username: "bob", FirstName: "Bob", LastName: "B", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	tags := []model.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#49B64E", Slug: "dinner"},
	}
	require.NoError(t, gdb.Create(&tags).Error)

	salt := model.Ingredient{Name: "salt", MeasurementUnit: "g"}
	flour := model.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, gdb.Create(&salt).Error)
	require.NoError(t, gdb.Create(&flour).Error)

	return &fixture{
		db:      gdb,
		alice:   alice,
		bob:     bob,
		tags:    tags,
		salt:    salt,
		flour:   flour,
		recipes: NewRecipeRepository(gdb),
	}
}

func (f *fixture) createRecipe(t *testing.T, author *model.User, name string, tagIDs []uint, items []model.IngredientAmount) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{AuthorID: author.ID, Name: name, Text: "mix", CookingTime: 10}
	err := f.recipes.WithTransaction(context.Background(), func(ctx context.Context, tx RecipeRepository) error {
		if err := tx.Create(ctx, recipe); err != nil {
			return err
		}
		if err := tx.ReplaceTags(ctx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return tx.ReplaceIngredients(ctx, recipe.ID, items)
	})
	require.NoError(t, err)
	return recipe
}
