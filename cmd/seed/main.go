package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"foodgram/internal/cache"
	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/logging"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/service"
)

// IngredientData is one entry of an ingredients catalogue file.
type IngredientData struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// TagData is one entry of a tags catalogue file.
type TagData struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func main() {
	ingredientsSrc := flag.String("ingredients", "data/ingredients.json", "ingredients JSON file or http(s) URL")
	tagsSrc := flag.String("tags", "", "tags JSON file or http(s) URL (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// New tags invalidate the cached tag list of running servers.
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	ingredients := service.NewIngredientService(repository.NewIngredientRepository(gormDB), cacheClient)
	tags := service.NewTagService(repository.NewTagRepository(gormDB), cacheClient)

	if *ingredientsSrc != "" {
		var items []IngredientData
		if err := load(ctx, *ingredientsSrc, &items); err != nil {
			logging.Fatal().Err(err).Str("source", *ingredientsSrc).Msg("load ingredients")
		}
		created, skipped, err := seedIngredients(ctx, ingredients, items)
		if err != nil {
			logging.Fatal().Err(err).Msg("seed ingredients")
		}
		logging.Info().Int("created", created).Int("existing", skipped).Msg("ingredients seeded")
	}

	if *tagsSrc != "" {
		var items []TagData
		if err := load(ctx, *tagsSrc, &items); err != nil {
			logging.Fatal().Err(err).Str("source", *tagsSrc).Msg("load tags")
		}
		created, skipped, err := seedTags(ctx, tags, items)
		if err != nil {
			logging.Fatal().Err(err).Msg("seed tags")
		}
		logging.Info().Int("created", created).Int("existing", skipped).Msg("tags seeded")
	}
}

// load decodes JSON from a local file or an http(s) URL into dst.
func load(ctx context.Context, src string, dst interface{}) error {
	var body io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", src, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("fetch %s: status code %d", src, resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open %s: %w", src, err)
		}
		body = f
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

// seedIngredients creates missing ingredients and leaves existing ones untouched.
func seedIngredients(ctx context.Context, svc service.IngredientService, items []IngredientData) (created, existing int, err error) {
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		unit := strings.TrimSpace(item.MeasurementUnit)
		if name == "" || unit == "" {
			logging.Warn().Str("name", item.Name).Msg("skipping ingredient without name or unit")
			continue
		}
		ok, err := svc.EnsureIngredient(ctx, &model.Ingredient{Name: name, MeasurementUnit: unit})
		if err != nil {
			return created, existing, err
		}
		if ok {
			created++
		} else {
			existing++
		}
	}
	return created, existing, nil
}

// seedTags creates tags whose slug is not taken yet.
func seedTags(ctx context.Context, svc service.TagService, items []TagData) (created, existing int, err error) {
	for _, item := range items {
		if item.Slug == "" || item.Name == "" {
			logging.Warn().Str("slug", item.Slug).Msg("skipping tag without name or slug")
			continue
		}
		ok, err := svc.EnsureTag(ctx, &model.Tag{Name: item.Name, Color: item.Color, Slug: item.Slug})
		if err != nil {
			return created, existing, err
		}
		if ok {
			created++
		} else {
			existing++
		}
	}
	return created, existing, nil
}
