package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheResponse reports the effect of a cache operation
type CacheResponse struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// SweepCache removes expired quote and geocode entries
// @Summary Sweep the quote cache
// @Tags internal
// @Produce json
// @Security InternalAPIKey
// @Success 200 {object} CacheResponse
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /internal/cache/sweep [post]
func SweepCache(c *gin.Context) {
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	var removed int
	if cacheSweeper != nil {
		removed = cacheSweeper.RunOnce()
	} else {
		removed = engine.Cache().Sweep()
	}

	c.JSON(http.StatusOK, CacheResponse{
		Removed:   removed,
		Remaining: engine.Cache().Len(),
	})
}

// FlushCache drops every cached entry
// @Summary Flush the quote cache
// @Tags internal
// @Produce json
// @Security InternalAPIKey
// @Success 200 {object} CacheResponse
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /internal/cache [delete]
func FlushCache(c *gin.Context) {
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	store := engine.Cache()
	removed := store.Len()
	store.Flush()
	engine.Metrics().RecordSweep(0, store.Len())

	c.JSON(http.StatusOK, CacheResponse{
		Removed:   removed,
		Remaining: store.Len(),
	})
}
