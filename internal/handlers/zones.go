package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ongkir/fare-service/internal/zones"
)

// DeliverableRequest is the query for the deliverability check
type DeliverableRequest struct {
	Address string `form:"address" binding:"required"`
}

// DeliverableResponse reports whether an address is served
type DeliverableResponse struct {
	Address     string `json:"address"`
	Deliverable bool   `json:"deliverable"`
	Zone        string `json:"zone,omitempty"`
	Score       int    `json:"score"`
}

// ListZonesResponse lists the zone table
type ListZonesResponse struct {
	Zones  []zones.DeliveryZone `json:"zones"`
	Remote string               `json:"remote"`
	Total  int                  `json:"total"`
}

// Deliverable checks an address against the zone table without network calls
// @Summary Check deliverability
// @Description Reports whether the address matches a served, non-remote zone
// @Tags zones
// @Produce json
// @Param address query string true "Free-text address"
// @Success 200 {object} DeliverableResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /v1/deliverable [get]
func Deliverable(c *gin.Context) {
	var req DeliverableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	resp := DeliverableResponse{
		Address:     req.Address,
		Deliverable: engine.IsDeliverable(req.Address),
	}
	if m := engine.Resolve(req.Address); m.Matched {
		resp.Zone = m.Zone.Name
		resp.Score = m.Score
	}

	c.JSON(http.StatusOK, resp)
}

// ListZones returns the zone table in resolution order
// @Summary List delivery zones
// @Tags zones
// @Produce json
// @Success 200 {object} ListZonesResponse
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /v1/zones [get]
func ListZones(c *gin.Context) {
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	table := engine.Zones()
	resp := ListZonesResponse{
		Zones: table,
		Total: len(table),
	}
	if len(table) > 0 {
		resp.Remote = table[len(table)-1].Name
	}

	c.JSON(http.StatusOK, resp)
}

// GetConstants returns the values the order form displays
// @Summary Get pricing constants
// @Description Origin, per-service distance ceilings, peak window and currency locale
// @Tags estimate
// @Produce json
// @Success 200 {object} estimator.Constants
// @Failure 503 {object} map[string]string "Estimator not initialized"
// @Router /v1/constants [get]
func GetConstants(c *gin.Context) {
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	c.JSON(http.StatusOK, engine.Constants())
}
