package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/providers"
)

// ============================================================================
// Fare Estimation Endpoints
// ============================================================================

// EstimateRequest represents a single fare estimate request
type EstimateRequest struct {
	Address  string          `json:"address" binding:"required" jsonschema:"required,minLength=3"`
	Service  string          `json:"service" binding:"required" jsonschema:"required"`
	Items    []fare.CartItem `json:"items,omitempty" binding:"max=200"`
	WeightKg float64         `json:"weightKg,omitempty" binding:"min=0" jsonschema:"minimum=0"`
}

// BatchEstimateRequest asks for one quote per service for the same address
type BatchEstimateRequest struct {
	Address  string          `json:"address" binding:"required" jsonschema:"required,minLength=3"`
	Services []string        `json:"services,omitempty" binding:"max=10"`
	Items    []fare.CartItem `json:"items,omitempty" binding:"max=200"`
	WeightKg float64         `json:"weightKg,omitempty" binding:"min=0" jsonschema:"minimum=0"`
}

// BatchEstimateResponse carries per-service results in request order
type BatchEstimateResponse struct {
	Address string                  `json:"address"`
	Results []estimator.BatchResult `json:"results"`
}

// Global instances (initialized by the application)
var (
	engine       *estimator.Engine
	registry     *providers.Registry
	cacheSweeper *cache.Sweeper
	now          = time.Now
)

// InitEstimator wires the handlers to the engine.
// This should be called during application startup
func InitEstimator(e *estimator.Engine, reg *providers.Registry, sweeper *cache.Sweeper) {
	engine = e
	registry = reg
	cacheSweeper = sweeper
}

// statusFor maps the only errors the engine returns to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, estimator.ErrAddressTooShort):
		return http.StatusBadRequest
	case errors.Is(err, fare.ErrServiceUnsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Estimate returns one fare quote
// @Summary Estimate a delivery fare
// @Description Returns a fare quote for one service. Provider and zone failures degrade the quote instead of failing the request.
// @Tags estimate
// @Accept json
// @Produce json
// @Param request body EstimateRequest true "Estimate request"
// @Success 200 {object} estimator.FareQuote
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 422 {object} map[string]string "Service not supported"
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /v1/estimate [post]
func Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	quote, err := engine.Estimate(c.Request.Context(), estimator.Request{
		Address:  req.Address,
		Service:  req.Service,
		Items:    req.Items,
		WeightKg: req.WeightKg,
		Now:      now(),
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// EstimateBatch returns quotes for several services at once
// @Summary Estimate fares for several services
// @Description Quotes every requested service (all services when none are given). A failure for one service is reported in its result only.
// @Tags estimate
// @Accept json
// @Produce json
// @Param request body BatchEstimateRequest true "Batch estimate request"
// @Success 200 {object} BatchEstimateResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /v1/estimate/batch [post]
func EstimateBatch(c *gin.Context) {
	var req BatchEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	results, err := engine.EstimateBatch(c.Request.Context(), estimator.BatchRequest{
		Address:  req.Address,
		Services: req.Services,
		Items:    req.Items,
		WeightKg: req.WeightKg,
		Now:      now(),
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, BatchEstimateResponse{
		Address: req.Address,
		Results: results,
	})
}
