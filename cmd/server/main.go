package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"foodgram/docs"
	"foodgram/internal/auth"
	"foodgram/internal/cache"
	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/document"
	"foodgram/internal/handler"
	"foodgram/internal/logging"
	"foodgram/internal/repository"
	"foodgram/internal/router"
	"foodgram/internal/service"
	"foodgram/internal/storage"
)

// @title Foodgram API
// @version 1.0
// @description Recipe sharing API: recipes, tags, ingredients, favorites, shopping cart, subscriptions and shopping list download.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" or "Token" followed by a space and the access token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("database init")
	}

	if cfg.ResetDB {
		logging.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logging.Warn().Err(err).Msg("failed to drop tables (may not exist)")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal().Err(err).Msg("migrate")
	}

	ctx := context.Background()
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, running without cache")
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("image storage init")
	}
	renderer, err := document.NewRenderer(cfg.PDFFont)
	if err != nil {
		logging.Fatal().Err(err).Msg("pdf renderer init")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	followRepo := repository.NewFollowRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	ingredientRepo := repository.NewIngredientRepository(gormDB)
	recipeRepo := repository.NewRecipeRepository(gormDB)
	favoriteRepo := repository.NewFavoriteRepository(gormDB)
	cartRepo := repository.NewShoppingCartRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, followRepo, cacheClient)
	subscriptionService := service.NewSubscriptionService(userRepo, followRepo, recipeRepo, images, cfg.RecipesLimit)
	tagService := service.NewTagService(tagRepo, cacheClient)
	ingredientService := service.NewIngredientService(ingredientRepo, cacheClient)
	recipeService := service.NewRecipeService(service.RecipeDeps{
		Recipes:       recipeRepo,
		Tags:          tagRepo,
		Ingredients:   ingredientRepo,
		Favorites:     favoriteRepo,
		Cart:          cartRepo,
		Follows:       followRepo,
		Images:        images,
		MaxImageWidth: cfg.MaxImageWidth,
	})

	// Initialize handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Users:   handler.NewUserHandler(userService, authService, subscriptionService, cfg.PageSize),
		Catalog: handler.NewCatalogHandler(tagService, ingredientService),
		Recipes: handler.NewRecipeHandler(handler.RecipeHandlerDeps{
			Recipes:      recipeService,
			Favorites:    service.NewFavoriteService(favoriteRepo, recipeRepo, images),
			Cart:         service.NewShoppingCartService(cartRepo, recipeRepo, images),
			ShoppingList: service.NewShoppingListService(cartRepo, renderer),
			PageSize:     cfg.PageSize,
		}),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.OptionsFromConfig(cfg), auth.NewMiddleware(jwtService, tokenStore), handlers)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logging.Info().Str("url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort)).Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		logging.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown")
	}
	if err := cacheClient.Close(); err != nil {
		logging.Warn().Err(err).Msg("close redis")
	}
	logging.Info().Msg("server stopped")
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
}

// swaggerURL builds the documentation URL; host may already carry a scheme.
func swaggerURL(host, port string) string {
	if host == "" {
		return "http://localhost:" + port + "/swagger/index.html"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/swagger/index.html"
}
