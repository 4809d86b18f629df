// cmd/seed/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kidbea/forecast-go/internal/ingest"
	"github.com/kidbea/forecast-go/internal/refdata"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
	"github.com/kidbea/forecast-go/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Usage:    "Path to the input file",
		Required: true,
	}
}

func openDB(c *cli.Context) (*sqlx.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlx.NewDb(db, "pgx"), nil
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "seed",
		Usage: "Load product variants, sales history and reference data",
		Commands: []*cli.Command{
			{
				Name:  "variants",
				Usage: "Upsert product variants from a CSV export",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag()},
				Action: func(c *cli.Context) error {
					return seedVariants(c.Context, c)
				},
			},
			{
				Name:  "sales",
				Usage: "Upsert daily sales history from a CSV export",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag()},
				Action: func(c *cli.Context) error {
					return seedSales(c.Context, c)
				},
			},
			{
				Name:  "festivals",
				Usage: "Install a festival calendar JSON into the local reference data directory",
				Flags: []cli.Flag{
					newFileFlag(),
					&cli.StringFlag{
						Name:  "data-dir",
						Usage: "Reference data directory",
						Value: "./data/static",
					},
				},
				Action: seedFestivals,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func seedVariants(ctx context.Context, c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open variants file: %w", err)
	}
	defer f.Close()

	variants, err := ingest.ParseVariants(f)
	if err != nil {
		return err
	}

	skuRepo := repository.NewSKURepository(db)
	stored := 0
	for i := range variants {
		if err := skuRepo.UpsertVariant(ctx, &variants[i]); err != nil {
			logger.Log.Error().Err(err).Str("sku_code", variants[i].SKUCode).Msg("variant upsert failed")
			continue
		}
		stored++
	}

	logger.Log.Info().Int("stored", stored).Int("parsed", len(variants)).Msg("variants seeded")
	return nil
}

func seedSales(ctx context.Context, c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open sales file: %w", err)
	}
	defer f.Close()

	sales, err := ingest.ParseSales(f)
	if err != nil {
		return err
	}

	salesRepo := repository.NewSalesRepository(postgres.Wrap(db))
	stored, err := salesRepo.UpsertDailyBatch(ctx, sales)
	if err != nil {
		return err
	}

	logger.Log.Info().Int("stored", stored).Int("parsed", len(sales)).Msg("sales history seeded")
	return nil
}

// seedFestivals validates the calendar JSON and copies it where the refdata
// source looks for local files.
func seedFestivals(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("read festivals file: %w", err)
	}

	var calendar refdata.FestivalCalendar
	if err := json.Unmarshal(data, &calendar); err != nil {
		return fmt.Errorf("invalid festival calendar: %w", err)
	}
	if len(calendar.Festivals) == 0 {
		return fmt.Errorf("festival calendar contains no festivals")
	}

	dataDir := c.String("data-dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	target := filepath.Join(dataDir, "indian_festivals.json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write festival calendar: %w", err)
	}

	logger.Log.Info().Str("path", target).Int("festivals", len(calendar.Festivals)).Msg("festival calendar installed")
	return nil
}
