package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/geocoder"
	"github.com/ongkir/fare-service/internal/routing"
)

var distanceRoute bool

// zoneCmd resolves an address against the zone table
var zoneCmd = &cobra.Command{
	Use:   "zone <address>",
	Short: "Show which delivery zone an address resolves to",
	Example: `  fare-service zone "Jl. Margonda Raya No. 100, Depok"
  fare-service zone "Cibubur 16454"`,
	Args: cobra.ExactArgs(1),
	RunE: runZone,
}

// distanceCmd reports the distance estimates for an address
var distanceCmd = &cobra.Command{
	Use:   "distance <address>",
	Short: "Show straight-line and estimated road distance from the origin",
	Long: `Show the straight-line distance from the configured origin and the road
distance estimated for each vehicle profile. The destination is geocoded when the
geocoder is enabled, otherwise the matched zone centroid is used. With --route the
configured routing providers are asked for the actual road distance.`,
	Args: cobra.ExactArgs(1),
	RunE: runDistance,
}

func init() {
	rootCmd.AddCommand(zoneCmd)
	rootCmd.AddCommand(distanceCmd)

	distanceCmd.Flags().BoolVar(&distanceRoute, "route", false, "Query the routing providers")
}

func runZone(cmd *cobra.Command, args []string) error {
	components, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	engine := components.Engine
	m := engine.Resolve(args[0])

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	if !m.Matched {
		fmt.Fprintf(w, "Zone:\t(none, priced as %s)\n", m.Zone.Name)
	} else {
		fmt.Fprintf(w, "Zone:\t%s\n", m.Zone.Name)
	}
	fmt.Fprintf(w, "Score:\t%d\n", m.Score)
	fmt.Fprintf(w, "Class:\t%s\n", m.Zone.DistanceClass)
	fmt.Fprintf(w, "Centroid:\t%s\n", m.Zone.Centroid)
	fmt.Fprintf(w, "Deliverable:\t%t\n", engine.IsDeliverable(args[0]))
	return nil
}

func runDistance(cmd *cobra.Command, args []string) error {
	c, err := requireConfig(cmd)
	if err != nil {
		return err
	}
	components, err := buildEngine(cmd)
	if err != nil {
		return err
	}

	origin := c.Estimator.Origin
	m := components.Engine.Resolve(args[0])
	dest, source := m.Zone.Centroid, "zone centroid ("+m.Zone.Name+")"
	if c.Geocoder.Enabled {
		g := geocoder.New(c.Geocoder.Config, geocoder.WithCache(components.Cache))
		coord, err := g.Resolve(cmd.Context(), args[0])
		if err != nil {
			logger.Warn().Err(err).Msg("Geocoding failed; using zone centroid")
		} else {
			dest, source = coord, "geocoded"
		}
	}

	straight := geo.StraightLineKm(origin, dest)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Origin:\t%s\n", origin)
	fmt.Fprintf(w, "Destination:\t%s\t%s\n", dest, source)
	fmt.Fprintf(w, "Straight line:\t%.2f km\n", geo.Round2(straight))
	for _, p := range []geo.VehicleProfile{geo.ProfileMotorcycle, geo.ProfileGeneric} {
		fmt.Fprintf(w, "Road estimate (%s):\t%.2f km\t×%.2f\n", p, geo.EstimatedRoadKm(p, straight), geo.AdjustmentMultiplier(p, straight))
	}

	if distanceRoute {
		router, err := routing.FromConfig(c.Routing)
		if err != nil {
			return err
		}
		km, err := router.RoadKm(cmd.Context(), origin, dest)
		if err != nil {
			fmt.Fprintf(w, "Routed:\tunavailable (%v)\n", err)
		} else {
			fmt.Fprintf(w, "Routed:\t%.2f km\t%v\n", km, router.Sources())
		}
	}
	return nil
}
