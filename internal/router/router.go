package router

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"foodgram/internal/auth"
	"foodgram/internal/config"
	"foodgram/internal/handler"
	"foodgram/internal/logging"
	"foodgram/internal/metrics"
	"foodgram/internal/service"
)

// Access says who may call a route.
type Access int

const (
	// Public routes ignore credentials entirely.
	Public Access = iota
	// Optional routes resolve the user when a token is sent and serve
	// anonymous requests otherwise.
	Optional
	// Authenticated routes reject anonymous requests with 401.
	Authenticated
)

// Route is one entry of the API route table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler echo.HandlerFunc
}

// Handlers bundles the HTTP handlers served under /api.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Catalog *handler.CatalogHandler
	Recipes *handler.RecipeHandler
}

// Routes returns the API route table, relative to /api.
func Routes(h Handlers) []Route {
	return []Route{
		{http.MethodPost, "/auth/token/login", Public, h.Auth.Login},
		{http.MethodPost, "/auth/token/refresh", Public, h.Auth.Refresh},
		{http.MethodPost, "/auth/token/logout", Authenticated, h.Auth.Logout},

		{http.MethodPost, "/users", Public, h.Users.Signup},
		{http.MethodGet, "/users", Optional, h.Users.ListUsers},
		{http.MethodGet, "/users/me", Authenticated, h.Users.Me},
		{http.MethodPost, "/users/set_password", Authenticated, h.Users.SetPassword},
		{http.MethodGet, "/users/subscriptions", Authenticated, h.Users.Subscriptions},
		{http.MethodGet, "/users/:id", Optional, h.Users.GetUser},
		{http.MethodPost, "/users/:id/subscribe", Authenticated, h.Users.Subscribe},
		{http.MethodDelete, "/users/:id/subscribe", Authenticated, h.Users.Unsubscribe},

		{http.MethodGet, "/tags", Public, h.Catalog.ListTags},
		{http.MethodGet, "/tags/:id", Public, h.Catalog.GetTag},
		{http.MethodGet, "/ingredients", Public, h.Catalog.ListIngredients},
		{http.MethodGet, "/ingredients/:id", Public, h.Catalog.GetIngredient},

		{http.MethodGet, "/recipes", Optional, h.Recipes.ListRecipes},
		{http.MethodPost, "/recipes", Authenticated, h.Recipes.CreateRecipe},
		{http.MethodGet, "/recipes/download_shopping_cart", Authenticated, h.Recipes.DownloadShoppingCart},
		{http.MethodGet, "/recipes/:id", Optional, h.Recipes.GetRecipe},
		{http.MethodPatch, "/recipes/:id", Authenticated, h.Recipes.UpdateRecipe},
		{http.MethodDelete, "/recipes/:id", Authenticated, h.Recipes.DeleteRecipe},
		{http.MethodPost, "/recipes/:id/favorite", Authenticated, h.Recipes.AddFavorite},
		{http.MethodDelete, "/recipes/:id/favorite", Authenticated, h.Recipes.RemoveFavorite},
		{http.MethodPost, "/recipes/:id/shopping_cart", Authenticated, h.Recipes.AddToCart},
		{http.MethodDelete, "/recipes/:id/shopping_cart", Authenticated, h.Recipes.RemoveFromCart},
	}
}

// Options configures the middleware stack.
type Options struct {
	// RateLimit is the sustained requests per second per client; 0 disables it.
	RateLimit float64
	// BodyLimit bounds request bodies, e.g. "10M".
	BodyLimit string
	// MediaRoot and MediaURL serve locally stored images when MediaRoot is set.
	MediaRoot string
	MediaURL  string
}

// OptionsFromConfig derives router options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{RateLimit: cfg.RateLimit, BodyLimit: "10M"}
	if cfg.StorageDriver == config.StorageLocal {
		opts.MediaRoot = cfg.MediaRoot
		opts.MediaURL = cfg.MediaURL
	}
	return opts
}

// Register wires middleware and routes.
func Register(e *echo.Echo, opts Options, authMiddleware *auth.Middleware, h Handlers) {
	e.HTTPErrorHandler = handler.ErrorHandler(e)
	e.Validator = &CustomValidator{validator: service.NewValidator()}

	e.Use(middleware.RequestID())
	e.Use(logging.ContextRequestID())
	e.Use(logging.RequestLogger(auth.CurrentUserID))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS())
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit * 2)
		if burst < 1 {
			burst = 1
		}
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(opts.RateLimit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			},
		)))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if opts.MediaRoot != "" {
		e.Static(mediaPrefix(opts.MediaURL), opts.MediaRoot)
	}

	api := e.Group("/api")
	for _, r := range Routes(h) {
		api.Add(r.Method, r.Path, r.Handler, accessMiddleware(r.Access, authMiddleware)...)
	}
}

// mediaPrefix returns the path part of the media base URL without a
// trailing slash.
func mediaPrefix(mediaURL string) string {
	prefix := mediaURL
	if u, err := url.Parse(mediaURL); err == nil {
		prefix = u.Path
	}
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return "/media"
	}
	return prefix
}

func accessMiddleware(access Access, m *auth.Middleware) []echo.MiddlewareFunc {
	switch access {
	case Optional:
		return []echo.MiddlewareFunc{m.Authenticate()}
	case Authenticated:
		return []echo.MiddlewareFunc{m.Authenticate(), auth.RequireUser()}
	default:
		return nil
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface and reports every failing
// field at once.
func (cv *CustomValidator) Validate(i interface{}) error {
	return service.ValidateStruct(cv.validator, i)
}
