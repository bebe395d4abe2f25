package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews-api/internal/catalog"
	"github.com/Clark-Hu/movie-reviews-api/internal/config"
	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/logging"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
	"github.com/Clark-Hu/movie-reviews-api/internal/store"
)

type reviewEntry struct {
	ReviewerName *string  `json:"reviewerName"`
	Rating       *float64 `json:"rating"`
	Comments     *string  `json:"comments"`
}

type movieEntry struct {
	Name        string        `json:"name"`
	ReleaseDate string        `json:"releaseDate"`
	Reviews     []reviewEntry `json:"reviews"`
}

type seedResult struct {
	Movies  int
	Reviews int
}

func main() {
	var (
		data    = flag.String("data", "cmd/seed/testdata/movies.json", "path to the seed fixture")
		dbURL   = flag.String("db", "", "database URL (defaults to DB_URL)")
		migrate = flag.Bool("migrate", true, "apply migrations before seeding")
	)
	flag.Parse()

	if err := run(*data, *dbURL, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(dataPath, dbURL string, migrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}

	logger, err := logging.New("movies-seed", cfg.Environment, cfg.LogLevel, "console")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	entries, err := readFixture(dataPath)
	if err != nil {
		return err
	}

	st, err := store.New(ctx, cfg.DBURL, store.OptionsFromConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	svc := catalog.New(catalog.NewUnitOfWork(repository.New(st)), catalog.Options{Logger: logger})
	res, err := seed(ctx, svc, entries)
	if err != nil {
		return err
	}
	logger.Info("seed complete",
		zap.String("data", dataPath),
		zap.Int("movies", res.Movies),
		zap.Int("reviews", res.Reviews))
	return nil
}

func readFixture(path string) ([]movieEntry, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed data: %w", err)
	}
	var entries []movieEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return entries, nil
}

// seed creates every movie and then its reviews through the catalog, so each
// review refreshes the movie's average rating.
func seed(ctx context.Context, svc *catalog.Service, entries []movieEntry) (seedResult, error) {
	var res seedResult
	for _, entry := range entries {
		params := repository.MovieCreateParams{Name: entry.Name}
		if entry.ReleaseDate != "" {
			releaseDate, err := time.Parse(domain.DateLayout, entry.ReleaseDate)
			if err != nil {
				return res, fmt.Errorf("movie %q: %w", entry.Name, err)
			}
			params.ReleaseDate = &releaseDate
		}
		movie, err := svc.CreateMovie(ctx, params)
		if err != nil {
			return res, fmt.Errorf("create movie %q: %w", entry.Name, err)
		}
		res.Movies++

		for _, r := range entry.Reviews {
			_, err := svc.CreateReview(ctx, repository.ReviewCreateParams{
				MovieID:      movie.ID,
				ReviewerName: r.ReviewerName,
				Rating:       r.Rating,
				Comments:     r.Comments,
			})
			if err != nil {
				return res, fmt.Errorf("create review for %q: %w", entry.Name, err)
			}
			res.Reviews++
		}
	}
	return res, nil
}
