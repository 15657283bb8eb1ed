// Package httpapi serves the price cache over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"stockcache/internal/stock/calendar"
	"stockcache/internal/stock/model"
	"stockcache/internal/stock/refresh"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request-id"
	DefaultDays     = 20
)

// PriceService is the refresh coordinator as seen by the transport layer.
type PriceService interface {
	Prices(ctx context.Context, symbol string, days int) (*refresh.Result, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

type Handler struct {
	prices      PriceService
	health      HealthChecker
	cal         *calendar.Calendar
	defaultDays int
	logger      *zap.Logger
}

func NewHandler(prices PriceService, health HealthChecker, cal *calendar.Calendar, defaultDays int, logger *zap.Logger) *Handler {
	if defaultDays < 0 {
		defaultDays = DefaultDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{prices: prices, health: health, cal: cal, defaultDays: defaultDays, logger: logger}
}

// RegisterRoutes binds the handler to router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/price", h.GetPrice)
	router.GET("/healthz", h.Healthz)
}

type priceQuery struct {
	Symbol    string `form:"symbol" binding:"required"`
	Days      string `form:"days"`
	RequestID string `form:"requestId"`
}

// GetPrice handles GET /price?symbol=IBM&days=5&requestId=abc.
func (h *Handler) GetPrice(c *gin.Context) {
	requestID := RequestID(c)

	var q priceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "symbol is required", RequestID: requestID})
		return
	}

	days := h.defaultDays
	if q.Days != "" {
		n, err := strconv.Atoi(q.Days)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorBody{Error: "days must be an integer", RequestID: requestID})
			return
		}
		days = n
	}

	res, err := h.prices.Prices(c.Request.Context(), q.Symbol, days)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("price request failed", zap.String("request_id", requestID),
				zap.String("symbol", q.Symbol), zap.Int("days", days), zap.Error(err))
		}
		c.JSON(status, ErrorBody{Error: PublicMessage(err, status), RequestID: requestID})
		return
	}

	c.JSON(http.StatusOK, NewPriceDocument(res, h.DocumentInfo(requestID)))
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.health != nil && !h.health.IsHealthy(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DocumentInfo stamps the current exchange date and timezone.
func (h *Handler) DocumentInfo(requestID string) DocumentInfo {
	info := DocumentInfo{RequestID: requestID}
	if h.cal != nil {
		info.RequestDate = h.cal.Today().Format(model.DateLayout)
		info.TimeZone = h.cal.Location.String()
	}
	return info
}

// RequestID returns the id assigned by the RequestIDs middleware, or a fresh one.
func RequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return uuid.NewString()
}
