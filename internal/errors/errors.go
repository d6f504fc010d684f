package errors

import (
	"errors"
	"net/http"
	"sort"
)

var (
	// ErrUnauthenticated is returned when an operation requires a user.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrNotAuthor is returned when a non-author tries to modify a recipe.
	ErrNotAuthor = errors.New("only the author can modify this recipe")

	// ErrRecipeNotFound is returned when a recipe is not found.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrTagNotFound is returned when a tag is not found.
	ErrTagNotFound = errors.New("tag not found")
	// ErrIngredientNotFound is returned when an ingredient is not found.
	ErrIngredientNotFound = errors.New("ingredient not found")

	ErrAlreadyFavorited  = errors.New("recipe is already in favorites")
	ErrNotFavorited      = errors.New("recipe is not in favorites")
	ErrAlreadyInCart     = errors.New("recipe is already in the shopping cart")
	ErrNotInCart         = errors.New("recipe is not in the shopping cart")
	ErrAlreadySubscribed = errors.New("already subscribed to this author")
	ErrNotSubscribed     = errors.New("not subscribed to this author")
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")

	// ErrUserAlreadyExists is returned when a sign-up loses a race on email or username.
	ErrUserAlreadyExists = errors.New("user with this email or username already exists")

	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// ValidationError collects every field violation found in one pass.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns e when it holds violations and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msg := "validation failed:"
	for _, name := range names {
		msg += " " + name
	}
	return msg
}

// FieldError builds a ValidationError holding a single violation.
func FieldError(field, message string) *ValidationError {
	e := NewValidationError()
	e.Add(field, message)
	return e
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ValidationErrorResponse lists violations per field.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// Body returns the payload to render for e.
func (e *HTTPError) Body() interface{} {
	if e.Fields != nil {
		return ValidationErrorResponse{Error: e.Message, Code: e.Code, Fields: e.Fields}
	}
	return ErrorResponse{Error: e.Message, Code: e.Code}
}

var conflictCodes = map[error]string{
	ErrAlreadyFavorited:  "ALREADY_FAVORITED",
	ErrNotFavorited:      "NOT_FAVORITED",
	ErrAlreadyInCart:     "ALREADY_IN_CART",
	ErrNotInCart:         "NOT_IN_CART",
	ErrAlreadySubscribed: "ALREADY_SUBSCRIBED",
	ErrNotSubscribed:     "NOT_SUBSCRIBED",
	ErrSelfSubscription:  "SELF_SUBSCRIPTION",
	ErrUserAlreadyExists: "USER_EXISTS",
}

var notFoundCodes = map[error]string{
	ErrRecipeNotFound:     "RECIPE_NOT_FOUND",
	ErrUserNotFound:       "USER_NOT_FOUND",
	ErrTagNotFound:        "TAG_NOT_FOUND",
	ErrIngredientNotFound: "INGREDIENT_NOT_FOUND",
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "validation failed",
			Code:       "VALIDATION_ERROR",
			Fields:     vErr.Fields,
		}
	}

	for target, code := range conflictCodes {
		if errors.Is(err, target) {
			return NewHTTPError(http.StatusBadRequest, target.Error(), code)
		}
	}
	for target, code := range notFoundCodes {
		if errors.Is(err, target) {
			return NewHTTPError(http.StatusNotFound, target.Error(), code)
		}
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_REFRESH_TOKEN")
	case errors.Is(err, ErrNotAuthor):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
