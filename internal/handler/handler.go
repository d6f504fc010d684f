package handler

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"foodgram/internal/auth"
	apperrors "foodgram/internal/errors"
	"foodgram/internal/logging"
	"foodgram/internal/repository"
)

// MaxPageSize caps the limit query parameter of paginated endpoints.
const MaxPageSize = 100

// Paginated is a page of results with links to its neighbours.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// fail converts a service error into an echo error carrying the API error body.
func fail(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.Body())
	if httpErr.StatusCode >= http.StatusInternalServerError {
		he.SetInternal(err)
	}
	return he
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_BODY",
	})
}

func notFound() error {
	return echo.NewHTTPError(http.StatusNotFound, apperrors.ErrorResponse{
		Error: "not found",
		Code:  "NOT_FOUND",
	})
}

// bindAndValidate decodes the request body into req and runs tag validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(req); err != nil {
		return fail(err)
	}
	return nil
}

// viewer returns the authenticated user id or 0 for anonymous requests.
func viewer(c echo.Context) uint {
	id, _ := auth.CurrentUserID(c)
	return id
}

// pathID parses a numeric path parameter. Anything else does not match a
// resource.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound()
	}
	return uint(id), nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string, ve *apperrors.ValidationError) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		ve.Add(name, "A valid non-negative integer is required.")
		return 0, false
	}
	return n, true
}

func queryBool(c echo.Context, name string) bool {
	switch strings.ToLower(c.QueryParam(name)) {
	case "1", "true":
		return true
	}
	return false
}

// pageParams reads page (1-based) and limit from the query.
func pageParams(c echo.Context, defaultSize int) (int, repository.Page, error) {
	ve := apperrors.NewValidationError()
	num, limit := 1, defaultSize

	if n, ok := queryInt(c, "page", ve); ok {
		if n < 1 {
			ve.Add("page", "Page numbers start at 1.")
		}
		num = n
	}
	if n, ok := queryInt(c, "limit", ve); ok {
		switch {
		case n < 1:
			ve.Add("limit", "Ensure this value is greater than or equal to 1.")
		case n > MaxPageSize:
			limit = MaxPageSize
		default:
			limit = n
		}
	}
	// num*limit bounds the offset and the end of the page.
	if num > math.MaxInt/limit {
		ve.Add("page", "Page number is out of range.")
	}
	if err := ve.OrNil(); err != nil {
		return 0, repository.Page{}, fail(err)
	}
	return num, repository.Page{Limit: limit, Offset: (num - 1) * limit}, nil
}

func paginate[T any](c echo.Context, results []T, total int64, num int, page repository.Page) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	p := Paginated[T]{Count: total, Results: results}
	if int64(page.Offset+page.Limit) < total {
		p.Next = pageURL(c, num+1)
	}
	if num > 1 {
		p.Previous = pageURL(c, num-1)
	}
	return p
}

func pageURL(c echo.Context, num int) *string {
	req := c.Request()
	q := req.URL.Query()
	if num == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(num))
	}
	u := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path, RawQuery: q.Encode()}
	s := u.String()
	return &s
}

// ErrorHandler renders every error in the API error format. Domain errors
// are mapped through MapErrorToHTTP; server errors are logged.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = fail(err).(*echo.HTTPError)
		}
		if msg, ok := he.Message.(string); ok {
			he = &echo.HTTPError{
				Code:     he.Code,
				Message:  apperrors.ErrorResponse{Error: msg, Code: statusCode(he.Code)},
				Internal: he.Internal,
			}
		}
		if he.Code >= http.StatusInternalServerError {
			cause := he.Internal
			if cause == nil {
				cause = err
			}
			logging.Ctx(c.Request().Context()).Error().Err(cause).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}
		e.DefaultHTTPErrorHandler(he, c)
	}
}

func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
