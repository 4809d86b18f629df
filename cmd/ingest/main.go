// cmd/ingest/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/kidbea/forecast-go/internal/config"
	"github.com/kidbea/forecast-go/internal/drive"
	"github.com/kidbea/forecast-go/internal/ingest"
	"github.com/kidbea/forecast-go/internal/repository"
	"github.com/kidbea/forecast-go/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	driveService, err := drive.NewService(ctx, os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	salesRepo := repository.NewSalesRepository(db)
	skuRepo := repository.NewSKURepository(db.DB)
	ingestService := ingest.NewService(driveService, salesRepo, skuRepo)

	r := mux.NewRouter()
	handler := ingest.NewHandler(driveService, ingestService)
	handler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
