package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/service"
)

// UserHandler serves user profiles, passwords and subscriptions.
type UserHandler struct {
	users         service.UserService
	authService   service.AuthService
	subscriptions service.SubscriptionService
	pageSize      int
}

// NewUserHandler creates a user handler. pageSize is the default page length.
func NewUserHandler(users service.UserService, authService service.AuthService, subscriptions service.SubscriptionService, pageSize int) *UserHandler {
	return &UserHandler{
		users:         users,
		authService:   authService,
		subscriptions: subscriptions,
		pageSize:      pageSize,
	}
}

// SetPasswordRequest represents a password change.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Signup godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Registration data"
// @Success 201 {object} service.RegisteredUser
// @Failure 400 {object} errors.ValidationErrorResponse
// @Router /users [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var in service.SignupInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Paginated[service.UserProfile]
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	num, page, err := pageParams(c, h.pageSize)
	if err != nil {
		return err
	}

	users, total, err := h.users.ListUsers(c.Request().Context(), viewer(c), page)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, paginate(c, users, total, num, page))
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.UserProfile
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.Request().Context(), viewer(c), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UserProfile
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	id := viewer(c)
	if id == 0 {
		return fail(apperrors.ErrUnauthenticated)
	}

	user, err := h.users.GetUser(c.Request().Context(), id, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// SetPassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body SetPasswordRequest true "Current and new password"
// @Success 204
// @Failure 400 {object} errors.ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/set_password [post]
func (h *UserHandler) SetPassword(c echo.Context) error {
	var req SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := h.authService.SetPassword(c.Request().Context(), viewer(c), req.CurrentPassword, req.NewPassword); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary Authors the current user follows
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Recipes shown per author"
// @Success 200 {object} Paginated[service.AuthorProfile]
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/subscriptions [get]
func (h *UserHandler) Subscriptions(c echo.Context) error {
	num, page, err := pageParams(c, h.pageSize)
	if err != nil {
		return err
	}
	recipesLimit, err := recipesLimitParam(c)
	if err != nil {
		return err
	}

	authors, total, err := h.subscriptions.Subscriptions(c.Request().Context(), viewer(c), page, recipesLimit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, paginate(c, authors, total, num, page))
}

// Subscribe godoc
// @Summary Follow an author
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Recipes shown for the author"
// @Success 201 {object} service.AuthorProfile
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/subscribe [post]
func (h *UserHandler) Subscribe(c echo.Context) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	recipesLimit, err := recipesLimitParam(c)
	if err != nil {
		return err
	}

	profile, err := h.subscriptions.Subscribe(c.Request().Context(), viewer(c), authorID, recipesLimit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, profile)
}

// Unsubscribe godoc
// @Summary Stop following an author
// @Tags users
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/subscribe [delete]
func (h *UserHandler) Unsubscribe(c echo.Context) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.subscriptions.Unsubscribe(c.Request().Context(), viewer(c), authorID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// recipesLimitParam reads recipes_limit; 0 selects the configured default.
func recipesLimitParam(c echo.Context) (int, error) {
	ve := apperrors.NewValidationError()
	n, _ := queryInt(c, "recipes_limit", ve)
	if err := ve.OrNil(); err != nil {
		return 0, fail(err)
	}
	return n, nil
}
