package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/drive"
	"github.com/kidbea/forecast-go/internal/repository"
)

// Service pulls sales exports from Drive and loads them into the database.
type Service struct {
	driveService *drive.Service
	sales        repository.SalesRepository
	skus         repository.SKURepository
}

func NewService(driveService *drive.Service, sales repository.SalesRepository, skus repository.SKURepository) *Service {
	return &Service{
		driveService: driveService,
		sales:        sales,
		skus:         skus,
	}
}

// IngestSalesFile downloads one Drive file, parses it as a daily sales
// export, and upserts the rows. Returns the number of rows stored.
func (s *Service) IngestSalesFile(ctx context.Context, fileID string) (int, error) {
	pr, pw := io.Pipe()
	go func() {
		err := s.driveService.DownloadFile(ctx, fileID, pw)
		pw.CloseWithError(err)
	}()

	sales, err := ParseSales(pr)
	if err != nil {
		return 0, fmt.Errorf("parse sales export %s: %w", fileID, err)
	}
	if len(sales) == 0 {
		log.Warn().Str("file_id", fileID).Msg("sales export contained no usable rows")
		return 0, nil
	}

	stored, err := s.sales.UpsertDailyBatch(ctx, sales)
	if err != nil {
		return 0, fmt.Errorf("store sales export %s: %w", fileID, err)
	}

	log.Info().Str("file_id", fileID).Int("rows", stored).Msg("sales export ingested")
	return stored, nil
}

// IngestVariants parses a product variant export from r and upserts each row.
func (s *Service) IngestVariants(ctx context.Context, r io.Reader) (int, error) {
	variants, err := ParseVariants(r)
	if err != nil {
		return 0, fmt.Errorf("parse variants: %w", err)
	}

	stored := 0
	for i := range variants {
		if err := s.skus.UpsertVariant(ctx, &variants[i]); err != nil {
			log.Error().Err(err).Str("sku_code", variants[i].SKUCode).Msg("variant upsert failed")
			continue
		}
		stored++
	}
	return stored, nil
}

// IngestSales parses a sales export from r and upserts the rows, for loads
// that do not go through Drive.
func (s *Service) IngestSales(ctx context.Context, r io.Reader) (int, error) {
	sales, err := ParseSales(r)
	if err != nil {
		return 0, fmt.Errorf("parse sales: %w", err)
	}
	if len(sales) == 0 {
		return 0, nil
	}
	return s.sales.UpsertDailyBatch(ctx, sales)
}
