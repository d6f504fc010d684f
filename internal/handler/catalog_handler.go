package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodgram/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient catalogues.
type CatalogHandler struct {
	tags        service.TagService
	ingredients service.IngredientService
}

// NewCatalogHandler creates a catalogue handler.
func NewCatalogHandler(tags service.TagService, ingredients service.IngredientService) *CatalogHandler {
	return &CatalogHandler{tags: tags, ingredients: ingredients}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} model.Tag
// @Router /tags [get]
func (h *CatalogHandler) ListTags(c echo.Context) error {
	tags, err := h.tags.ListTags(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get tag by id
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} model.Tag
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id} [get]
func (h *CatalogHandler) GetTag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	tag, err := h.tags.GetTag(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, tag)
}

// ListIngredients godoc
// @Summary List ingredients
// @Tags ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} model.Ingredient
// @Router /ingredients [get]
func (h *CatalogHandler) ListIngredients(c echo.Context) error {
	ingredients, err := h.ingredients.ListIngredients(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, ingredients)
}

// GetIngredient godoc
// @Summary Get ingredient by id
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} model.Ingredient
// @Failure 404 {object} errors.ErrorResponse
// @Router /ingredients/{id} [get]
func (h *CatalogHandler) GetIngredient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ingredient, err := h.ingredients.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, ingredient)
}
