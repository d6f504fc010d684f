package handler

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/repository"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantNum  int
		wantPage repository.Page
		wantErr  bool
	}{
		{"defaults", "", 1, repository.Page{Limit: 6, Offset: 0}, false},
		{"third page", "?page=3&limit=10", 3, repository.Page{Limit: 10, Offset: 20}, false},
		{"limit capped", "?limit=1000", 1, repository.Page{Limit: MaxPageSize}, false},
		{"page zero", "?page=0", 0, repository.Page{}, true},
		{"not a number", "?limit=abc", 0, repository.Page{}, true},
		{"page overflows offset", "?page=100000000000000000&limit=100", 0, repository.Page{}, true},
		{"largest page", "?page=" + strconv.Itoa(math.MaxInt) + "&limit=1", math.MaxInt, repository.Page{Limit: 1, Offset: math.MaxInt - 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext("/api/recipes" + tt.query)
			num, page, err := pageParams(c, 6)
			if tt.wantErr {
				require.Error(t, err)
				var he *echo.HTTPError
				require.True(t, errors.As(err, &he))
				assert.Equal(t, http.StatusBadRequest, he.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNum, num)
			assert.Equal(t, tt.wantPage, page)
		})
	}
}

func TestPaginate_Links(t *testing.T) {
	c, _ := newContext("/api/recipes?page=2&limit=2&tags=dinner")
	p := paginate(c, []int{3, 4}, 5, 2, repository.Page{Limit: 2, Offset: 2})

	require.NotNil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "http://example.com/api/recipes?limit=2&page=3&tags=dinner", *p.Next)
	assert.Equal(t, "http://example.com/api/recipes?limit=2&tags=dinner", *p.Previous)

	empty := paginate[int](c, nil, 0, 1, repository.Page{Limit: 2})
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	handle := ErrorHandler(e)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"domain not found", apperrors.ErrRecipeNotFound, http.StatusNotFound, `"code":"RECIPE_NOT_FOUND"`},
		{"forbidden", apperrors.ErrNotAuthor, http.StatusForbidden, `"code":"FORBIDDEN"`},
		{"validation", apperrors.FieldError("name", "required"), http.StatusBadRequest, `"fields":{"name":["required"]}`},
		{"echo route miss", echo.ErrNotFound, http.StatusNotFound, `"code":"NOT_FOUND"`},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, `"code":"INTERNAL_ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext("/")
			handle(tt.err, c)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestPathID(t *testing.T) {
	c, _ := newContext("/")
	c.SetParamNames("id")

	c.SetParamValues("12")
	id, err := pathID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, bad := range []string{"0", "-1", "abc"} {
		c.SetParamValues(bad)
		_, err := pathID(c, "id")
		assert.Error(t, err, bad)
	}
}
