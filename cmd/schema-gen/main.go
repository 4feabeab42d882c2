// Schema Generator
//
// Generates JSON Schema files for the fare API request and response types so
// order-form clients can validate payloads against the Go definitions.
//
// Usage:
//
//	go run ./cmd/schema-gen [-out ./schemas]
//
// Output:
//
//	schemas/estimate.json
//	schemas/zones.json
//	schemas/operations.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/handlers"
	"github.com/ongkir/fare-service/internal/zones"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, group := range schemaGroups() {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(*outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

func schemaGroups() []SchemaGroup {
	return []SchemaGroup{
		{
			Name: "estimate",
			Types: []any{
				// Request types
				handlers.EstimateRequest{},
				handlers.BatchEstimateRequest{},
				fare.CartItem{},
				// Response types
				estimator.FareQuote{},
				estimator.BatchResult{},
				handlers.BatchEstimateResponse{},
				estimator.Constants{},
			},
			Output: "estimate.json",
		},
		{
			Name: "zones",
			Types: []any{
				handlers.DeliverableResponse{},
				handlers.ListZonesResponse{},
				zones.DeliveryZone{},
			},
			Output: "zones.json",
		},
		{
			Name: "operations",
			Types: []any{
				handlers.HealthResponse{},
				handlers.CacheResponse{},
			},
			Output: "operations.json",
		},
	}
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
	}

	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		// Add all definitions from this type's schema
		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://schemas.ongkir.dev/fare-service/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
