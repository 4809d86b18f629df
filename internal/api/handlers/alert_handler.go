package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/kidbea/forecast-go/internal/service"
)

type AlertHandler struct {
	service service.AlertService
}

func NewAlertHandler(service service.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 {
		limit = 100
	}

	alerts, err := h.service.ListAlerts(c.Request.Context(), status, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Severity filtering happens here; the repository orders by severity
	// already.
	if severity := strings.TrimSpace(c.Query("severity")); severity != "" {
		filtered := make([]domain.InventoryAlert, 0, len(alerts))
		for _, alert := range alerts {
			if alert.Severity == severity {
				filtered = append(filtered, alert)
			}
		}
		alerts = filtered
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": len(alerts)})
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	skuCode := strings.TrimSpace(c.Param("sku"))
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	if err := h.service.Acknowledge(c.Request.Context(), skuCode); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku_code": skuCode, "status": domain.AlertStatusAcknowledged})
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	skuCode := strings.TrimSpace(c.Param("sku"))
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	if err := h.service.Resolve(c.Request.Context(), skuCode); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku_code": skuCode, "status": domain.AlertStatusResolved})
}

func (h *AlertHandler) GetRecommendations(c *gin.Context) {
	plan, err := h.service.GetReorderPlan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build reorder plan", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, plan)
}
