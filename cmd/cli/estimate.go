package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/fare"
)

var (
	estimateService string
	estimateAll     bool
	estimateWeight  float64
	estimateItems   []string
	estimateAt      string
	estimateOutput  string
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate <address>",
	Short: "Quote a delivery fare for an address",
	Long: `Quote a delivery fare through the same live, zone and emergency stages the
server uses. Provider and geocoder settings come from the config file; with none
configured the quote is priced from the zone table alone.

Items are given as size:quantity where size is one of xs, s, m, l, xl, jumbo.`,
	Example: `  fare-service estimate "Jl. Margonda Raya No. 100, Depok" --service gosend-instant
  fare-service estimate "Kemang, Jakarta Selatan" --all --item m:2 --item l:1
  fare-service estimate "Bekasi Barat" --service paxel --at 2026-03-02T17:30:00+07:00 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVar(&estimateService, "service", fare.GosendInstant, "Service ID")
	estimateCmd.Flags().BoolVar(&estimateAll, "all", false, "Quote every service")
	estimateCmd.Flags().Float64Var(&estimateWeight, "weight", 0, "Parcel weight in kg (overrides --item)")
	estimateCmd.Flags().StringArrayVar(&estimateItems, "item", nil, "Cart item as size:quantity (repeatable)")
	estimateCmd.Flags().StringVar(&estimateAt, "at", "", "Pricing time in RFC 3339 (default now)")
	estimateCmd.Flags().StringVar(&estimateOutput, "output", "table", "Output format: table or json")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	items, err := parseItems(estimateItems)
	if err != nil {
		return err
	}

	var at time.Time
	if estimateAt != "" {
		at, err = time.Parse(time.RFC3339, estimateAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	components, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	engine := components.Engine

	var results []estimator.BatchResult
	if estimateAll {
		results, err = engine.EstimateBatch(cmd.Context(), estimator.BatchRequest{
			Address:  args[0],
			Items:    items,
			WeightKg: estimateWeight,
			Now:      at,
		})
		if err != nil {
			return err
		}
	} else {
		q, err := engine.Estimate(cmd.Context(), estimator.Request{
			Address:  args[0],
			Service:  estimateService,
			Items:    items,
			WeightKg: estimateWeight,
			Now:      at,
		})
		if err != nil {
			return err
		}
		results = []estimator.BatchResult{{Service: q.Service, Quote: &q}}
	}

	if estimateOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printQuotes(results)
	return nil
}

// parseItems reads size:quantity pairs; a bare size counts once.
func parseItems(raw []string) ([]fare.CartItem, error) {
	items := make([]fare.CartItem, 0, len(raw))
	for _, r := range raw {
		size, qty, found := strings.Cut(r, ":")
		n := 1
		if found {
			var err error
			n, err = strconv.Atoi(qty)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid item %q: quantity must be a non-negative integer", r)
			}
		}
		items = append(items, fare.CartItem{SizeClass: size, Quantity: n})
	}
	return items, nil
}

func printQuotes(results []estimator.BatchResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCOST\tZONE\tDISTANCE\tWEIGHT\tWINDOW\tSTAGE\tCONFIDENCE\tNOTE")
	for _, r := range results {
		if r.Quote == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t-\t%s\n", r.Service, r.Error)
			continue
		}
		q := r.Quote
		cost := q.FormattedCost
		if !q.Available {
			cost = "unavailable"
		}
		note := ""
		if q.ValidationError != nil {
			note = *q.ValidationError
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f km\t%.2f kg\t%s\t%s\t%.2f\t%s\n",
			q.Service, cost, q.ZoneName, q.DistanceKm, q.WeightKg, q.EstimatedWindow, q.Stage, q.Confidence, note)
	}
	w.Flush()
}
