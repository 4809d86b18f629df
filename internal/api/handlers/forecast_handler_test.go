package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/service"
)

type stubForecastService struct {
	result       domain.ForecastResult
	err          error
	refreshed    int
	lastSKU      string
	lastHorizon  int
	historyRows  []domain.DemandForecast
	accuracyResp domain.AccuracyReport
}

func (s *stubForecastService) GetForecast(_ context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error) {
	s.lastSKU = skuCode
	s.lastHorizon = horizonDays
	return s.result, s.err
}

func (s *stubForecastService) RefreshForecast(_ context.Context, skuCode string, horizonDays int) (domain.ForecastResult, error) {
	s.refreshed++
	s.lastSKU = skuCode
	s.lastHorizon = horizonDays
	return s.result, s.err
}

func (s *stubForecastService) GetForecastHistory(context.Context, string, time.Time, time.Time) ([]domain.DemandForecast, error) {
	return s.historyRows, s.err
}

func (s *stubForecastService) GetAccuracyReport(context.Context, int) (domain.AccuracyReport, error) {
	return s.accuracyResp, s.err
}

func setupRouter(h *ForecastHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/forecast/:sku", h.GetForecast)
	router.POST("/forecast/:sku/refresh", h.RefreshForecast)
	router.GET("/accuracy/report", h.GetAccuracyReport)
	return router
}

func TestGetForecast(t *testing.T) {
	svc := &stubForecastService{
		result: domain.ForecastResult{SKUCode: "TOY-001", ModelType: "multiplicative_v1"},
	}
	router := setupRouter(NewForecastHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/forecast/TOY-001?days=14", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TOY-001", svc.lastSKU)
	assert.Equal(t, 14, svc.lastHorizon)

	var body domain.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TOY-001", body.SKUCode)
}

func TestGetForecastUnknownSKU(t *testing.T) {
	svc := &stubForecastService{err: service.ErrSKUNotFound}
	router := setupRouter(NewForecastHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/forecast/NOPE", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetForecastHorizonClamped(t *testing.T) {
	svc := &stubForecastService{}
	router := setupRouter(NewForecastHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/forecast/TOY-001?days=500", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxHorizonDays, svc.lastHorizon)
}

func TestRefreshForecast(t *testing.T) {
	svc := &stubForecastService{}
	router := setupRouter(NewForecastHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/forecast/TOY-001/refresh", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.refreshed)
}

func TestGetAccuracyReport(t *testing.T) {
	svc := &stubForecastService{
		accuracyResp: domain.AccuracyReport{
			Overall:     domain.AccuracyMetrics{Records: 3, MAPE: 12.5},
			ByModelType: map[string]domain.AccuracyMetrics{"multiplicative_v1": {Records: 3}},
		},
	}
	router := setupRouter(NewForecastHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accuracy/report?since=7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body domain.AccuracyReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Overall.Records)
}
