package db

import (
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.Favorite{},
		&model.ShoppingCartEntry{},
		&model.Follow{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table, dependants first. It reports the first failure
// but keeps going so a partially created schema can still be cleared.
func Reset(db *gorm.DB) error {
	models := Models()
	var firstErr error
	if err := db.Migrator().DropTable(&model.RecipeTag{}); err != nil {
		firstErr = err
	}
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("drop tables: %w", firstErr)
	}
	return nil
}
