package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ongkir/fare-service/internal/geo"
	apphttp "github.com/ongkir/fare-service/internal/http"
)

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// OSRM queries an OSRM route service
type OSRM struct {
	baseURL string
	profile string
	client  *apphttp.Client
}

// NewOSRM creates an OSRM source
func NewOSRM(baseURL, profile string, timeout time.Duration) *OSRM {
	if profile == "" {
		profile = "driving"
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		client:  apphttp.NewClient(apphttp.WithTimeout(timeout)),
	}
}

// Name implements Source
func (o *OSRM) Name() string { return "osrm" }

// RoadKm implements Source
func (o *OSRM) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	// OSRM takes lng,lat pairs.
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		o.baseURL, o.profile, from.Lng, from.Lat, to.Lng, to.Lat)

	var resp osrmResponse
	if err := o.client.GetJSON(ctx, url, &resp); err != nil {
		return 0, err
	}
	if resp.Code != "Ok" {
		return 0, fmt.Errorf("osrm code %q: %s", resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return 0, fmt.Errorf("osrm returned no routes")
	}
	return resp.Routes[0].Distance / 1000, nil
}
