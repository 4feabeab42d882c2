package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/ongkir/fare-service/internal/geo"
)

// Google uses the Directions API as the alternate routing path.
type Google struct {
	client *maps.Client
}

// NewGoogle creates a Directions source with the given API key.
func NewGoogle(apiKey string, opts ...maps.ClientOption) (*Google, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Google{client: client}, nil
}

// Name implements Source
func (g *Google) Name() string { return "google" }

// RoadKm implements Source
func (g *Google) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Region:      "id",
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000, nil
}
