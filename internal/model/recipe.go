package model

import "time"

// MaxIngredientAmount bounds the quantity of one ingredient in a recipe.
const MaxIngredientAmount = 1000

// Recipe is a published dish.
type Recipe struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AuthorID    uint      `json:"author_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	Image       string    `json:"image" gorm:"size:500"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Author      User               `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags        []Tag              `json:"-" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredient binds an ingredient and its amount to a recipe. Rows are
// replaced together with the owning recipe's ingredient list.
type RecipeIngredient struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	RecipeID     uint `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint `json:"ingredient_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int  `json:"amount" gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`

	// Relations
	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

// RecipeTag is a row of the recipe_tags join table.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey"`
}

// TableName binds RecipeTag to the many2many table of Recipe.Tags.
func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// IngredientAmount is an (ingredient, amount) pair as supplied by a writer.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}
