package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// TagRepository defines tag persistence operations.
type TagRepository interface {
	List(ctx context.Context) ([]model.Tag, error)
	FindByID(ctx context.Context, id uint) (*model.Tag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Tag, error)
	// CreateIfMissing inserts tag unless its slug exists and reports whether it did.
	CreateIfMissing(ctx context.Context, tag *model.Tag) (bool, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Tag, error) {
	var tags []model.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) CreateIfMissing(ctx context.Context, tag *model.Tag) (bool, error) {
	res := r.db.WithContext(ctx).Where(model.Tag{Slug: tag.Slug}).FirstOrCreate(tag)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IngredientRepository defines ingredient persistence operations.
type IngredientRepository interface {
	// List returns ingredients whose name starts with namePrefix, case-insensitively.
	List(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	FindByID(ctx context.Context, id uint) (*model.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Ingredient, error)
	CreateIfMissing(ctx context.Context, ingredient *model.Ingredient) (bool, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository.
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) List(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if namePrefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", escapeLike(strings.ToLower(namePrefix))+"%")
	}
	var ingredients []model.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(ctx context.Context, id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) CreateIfMissing(ctx context.Context, ingredient *model.Ingredient) (bool, error) {
	res := r.db.WithContext(ctx).
		Where(model.Ingredient{Name: ingredient.Name, MeasurementUnit: ingredient.MeasurementUnit}).
		FirstOrCreate(ingredient)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
