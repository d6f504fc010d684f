package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/service"
)

// RecipeHandler serves recipes, their per-user relations and the shopping list.
type RecipeHandler struct {
	recipes      service.RecipeService
	favorites    service.RecipeToggleService
	cart         service.RecipeToggleService
	shoppingList service.ShoppingListService
	pageSize     int
}

// RecipeHandlerDeps groups the services behind the recipe endpoints.
type RecipeHandlerDeps struct {
	Recipes      service.RecipeService
	Favorites    service.RecipeToggleService
	Cart         service.RecipeToggleService
	ShoppingList service.ShoppingListService
	PageSize     int
}

// NewRecipeHandler creates a recipe handler.
func NewRecipeHandler(deps RecipeHandlerDeps) *RecipeHandler {
	return &RecipeHandler{
		recipes:      deps.Recipes,
		favorites:    deps.Favorites,
		cart:         deps.Cart,
		shoppingList: deps.ShoppingList,
		pageSize:     deps.PageSize,
	}
}

// IngredientAmountRequest is one ingredient of a recipe write.
type IngredientAmountRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the JSON body of a recipe create or update. Image is a
// base64 data URI and may be omitted on update.
type RecipeRequest struct {
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time"`
	Tags        []uint                    `json:"tags"`
	Ingredients []IngredientAmountRequest `json:"ingredients"`
}

func (r RecipeRequest) input() service.RecipeInput {
	in := service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Tags:        r.Tags,
		Ingredients: make([]model.IngredientAmount, 0, len(r.Ingredients)),
	}
	if r.Image != "" {
		in.Image = &service.ImageSource{DataURI: r.Image}
	}
	for _, ing := range r.Ingredients {
		in.Ingredients = append(in.Ingredients, model.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount})
	}
	return in
}

// ListRecipes godoc
// @Summary List recipes, newest first
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs, any of" collectionFormat(multi)
// @Param is_favorited query int false "Only favorites of the current user (1)"
// @Param is_in_shopping_cart query int false "Only recipes in the current user's cart (1)"
// @Success 200 {object} Paginated[service.RecipeView]
// @Failure 400 {object} errors.ValidationErrorResponse
// @Router /recipes [get]
func (h *RecipeHandler) ListRecipes(c echo.Context) error {
	num, page, err := pageParams(c, h.pageSize)
	if err != nil {
		return err
	}

	ve := apperrors.NewValidationError()
	q := service.RecipeQuery{
		Tags:             c.QueryParams()["tags"],
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
	}
	if author, ok := queryInt(c, "author", ve); ok {
		q.AuthorID = uint(author)
	}
	if err := ve.OrNil(); err != nil {
		return fail(err)
	}

	recipes, total, err := h.recipes.ListRecipes(c.Request().Context(), viewer(c), q, page)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, paginate(c, recipes, total, num, page))
}

// GetRecipe godoc
// @Summary Get recipe by id
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} service.RecipeView
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [get]
func (h *RecipeHandler) GetRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	recipe, err := h.recipes.GetRecipe(c.Request().Context(), viewer(c), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Publish a recipe
// @Description Accepts JSON with a data URI image, or a multipart form with an image file, repeated tags and ingredients as a JSON array.
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body RecipeRequest true "Recipe"
// @Success 201 {object} service.RecipeView
// @Failure 400 {object} errors.ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipes [post]
func (h *RecipeHandler) CreateRecipe(c echo.Context) error {
	in, err := readRecipeInput(c)
	if err != nil {
		return err
	}

	recipe, err := h.recipes.CreateRecipe(c.Request().Context(), viewer(c), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Replaces every field, tag and ingredient. The image is kept when omitted.
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param request body RecipeRequest true "Recipe"
// @Success 200 {object} service.RecipeView
// @Failure 400 {object} errors.ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [patch]
func (h *RecipeHandler) UpdateRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := readRecipeInput(c)
	if err != nil {
		return err
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request().Context(), viewer(c), id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) DeleteRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.recipes.DeleteRecipe(c.Request().Context(), viewer(c), id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add a recipe to favorites
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 201 {object} service.RecipeSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/favorite [post]
func (h *RecipeHandler) AddFavorite(c echo.Context) error {
	return h.add(c, h.favorites)
}

// RemoveFavorite godoc
// @Summary Remove a recipe from favorites
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/favorite [delete]
func (h *RecipeHandler) RemoveFavorite(c echo.Context) error {
	return h.remove(c, h.favorites)
}

// AddToCart godoc
// @Summary Add a recipe to the shopping cart
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 201 {object} service.RecipeSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/shopping_cart [post]
func (h *RecipeHandler) AddToCart(c echo.Context) error {
	return h.add(c, h.cart)
}

// RemoveFromCart godoc
// @Summary Remove a recipe from the shopping cart
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/shopping_cart [delete]
func (h *RecipeHandler) RemoveFromCart(c echo.Context) error {
	return h.remove(c, h.cart)
}

// DownloadShoppingCart godoc
// @Summary Download the aggregated shopping list
// @Tags recipes
// @Produce application/pdf,text/plain
// @Security BearerAuth
// @Param format query string false "pdf (default) or txt"
// @Success 200 {file} file
// @Failure 400 {object} errors.ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipes/download_shopping_cart [get]
func (h *RecipeHandler) DownloadShoppingCart(c echo.Context) error {
	file, err := h.shoppingList.Download(c.Request().Context(), viewer(c), c.QueryParam("format"))
	if err != nil {
		return fail(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

func (h *RecipeHandler) add(c echo.Context, svc service.RecipeToggleService) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	summary, err := svc.Add(c.Request().Context(), viewer(c), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) remove(c echo.Context, svc service.RecipeToggleService) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := svc.Remove(c.Request().Context(), viewer(c), id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// readRecipeInput decodes a recipe write from JSON or a multipart form.
func readRecipeInput(c echo.Context) (service.RecipeInput, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return readRecipeForm(c)
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		return service.RecipeInput{}, invalidBody()
	}
	return req.input(), nil
}

func readRecipeForm(c echo.Context) (service.RecipeInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.RecipeInput{}, invalidBody()
	}

	ve := apperrors.NewValidationError()
	req := RecipeRequest{
		Name:  c.FormValue("name"),
		Text:  c.FormValue("text"),
		Image: c.FormValue("image"),
	}
	if raw := c.FormValue("cooking_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add("cooking_time", "A valid integer is required.")
		}
		req.CookingTime = n
	}
	for _, raw := range form.Value["tags"] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ve.Add("tags", fmt.Sprintf("Invalid tag id %q.", raw))
			continue
		}
		req.Tags = append(req.Tags, uint(id))
	}
	if raw := c.FormValue("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			ve.Add("ingredients", "Expected a JSON list of {\"id\", \"amount\"} objects.")
		}
	}
	if err := ve.OrNil(); err != nil {
		return service.RecipeInput{}, fail(err)
	}

	in := req.input()
	if files := form.File["image"]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return service.RecipeInput{}, invalidBody()
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return service.RecipeInput{}, invalidBody()
		}
		in.Image = &service.ImageSource{Raw: data}
	}
	return in, nil
}
