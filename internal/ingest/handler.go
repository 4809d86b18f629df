package ingest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kidbea/forecast-go/internal/drive"
)

type Handler struct {
	driveService *drive.Service
	service      *Service
}

func NewHandler(driveService *drive.Service, service *Service) *Handler {
	return &Handler{
		driveService: driveService,
		service:      service,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/ingest/drive/{fileID}", h.IngestFile).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folder")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.driveService.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.driveService.ListSalesExports(r.Context(), folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileID"]
	if fileID == "" {
		http.Error(w, "fileID is required", http.StatusBadRequest)
		return
	}

	rows, err := h.service.IngestSalesFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "rows": rows})
}
