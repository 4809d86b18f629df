// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidbea/forecast-go/internal/accuracy"
	"github.com/kidbea/forecast-go/internal/api"
	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/config"
	"github.com/kidbea/forecast-go/internal/features"
	"github.com/kidbea/forecast-go/internal/forecast"
	"github.com/kidbea/forecast-go/internal/refdata"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
	"github.com/kidbea/forecast-go/internal/service"
	"github.com/kidbea/forecast-go/internal/storage"
	"github.com/kidbea/forecast-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache store unavailable, using in-memory store")
		store = cache.NewMemoryStore()
	}
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, caching disabled")
		forecastCache = cache.NewNoopForecastCache()
	}

	refdataOpts := []refdata.Option{}
	if cfg.RefData.Endpoint != "" {
		objects, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.RefData.Endpoint,
			AccessKey: cfg.RefData.AccessKey,
			SecretKey: cfg.RefData.SecretKey,
			Bucket:    cfg.RefData.Bucket,
			Region:    cfg.RefData.Region,
			UseSSL:    cfg.RefData.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, using local reference data")
		} else {
			refdataOpts = append(refdataOpts, refdata.WithObjectStorage(objects))
		}
	}
	provider := refdata.NewSource(store, cfg.RefData.LocalDir, cfg.RefData.Version, refdataOpts...)

	skuRepo := repository.NewSKURepository(db.DB)
	salesRepo := repository.NewSalesRepository(db)
	signalRepo := repository.NewSignalRepository(db.DB)
	forecastRepo := repository.NewForecastRepository(db)
	alertRepo := repository.NewAlertRepository(db.DB)
	accuracyRepo := repository.NewAccuracyRepository(db.DB)

	assembler := features.NewAssembler(salesRepo, signalRepo, provider, cfg.Weather.DefaultLocation)
	engine := forecast.NewEngine(skuRepo, assembler, forecast.NewMultiplicativeComposer(), forecastCache)
	tracker := accuracy.NewTracker(forecastRepo, salesRepo, accuracyRepo)

	services := &api.Services{
		ForecastService: service.NewForecastService(engine, tracker, skuRepo, forecastRepo),
		AlertService:    service.NewAlertService(alertRepo, skuRepo),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
