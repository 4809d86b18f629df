package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidbea/forecast-go/internal/service"
)

const (
	defaultHorizonDays = 30
	maxHorizonDays     = 90
)

type ForecastHandler struct {
	service service.ForecastService
}

func NewForecastHandler(service service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) parseHorizon(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultHorizonDays)))
	if err != nil || days <= 0 {
		return defaultHorizonDays
	}
	if days > maxHorizonDays {
		return maxHorizonDays
	}
	return days
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	skuCode := strings.TrimSpace(c.Param("sku"))
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	result, err := h.service.GetForecast(c.Request.Context(), skuCode, h.parseHorizon(c))
	if err != nil {
		if errors.Is(err, service.ErrSKUNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sku not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) RefreshForecast(c *gin.Context) {
	skuCode := strings.TrimSpace(c.Param("sku"))
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	result, err := h.service.RefreshForecast(c.Request.Context(), skuCode, h.parseHorizon(c))
	if err != nil {
		if errors.Is(err, service.ErrSKUNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sku not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) GetHistory(c *gin.Context) {
	skuCode := strings.TrimSpace(c.Param("sku"))
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -defaultHorizonDays)
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
		to = parsed
	}

	rows, err := h.service.GetForecastHistory(c.Request.Context(), skuCode, from, to)
	if err != nil {
		if errors.Is(err, service.ErrSKUNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sku not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": rows, "total": len(rows)})
}

func (h *ForecastHandler) GetAccuracyReport(c *gin.Context) {
	sinceDays, _ := strconv.Atoi(c.DefaultQuery("since", "30"))
	if sinceDays <= 0 {
		sinceDays = 30
	}

	report, err := h.service.GetAccuracyReport(c.Request.Context(), sinceDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build accuracy report", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
