package model

// Tag is a labelled category recipes can be filtered by.
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"size:200;not null"`
	Color string `json:"color" gorm:"size:16;not null"` // HEX, e.g. #E26C2D
	Slug  string `json:"slug" gorm:"uniqueIndex;size:200;not null"`
}

// Ingredient is a named substance with a measurement unit.
type Ingredient struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
}
