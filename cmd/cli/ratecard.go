package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ongkir/fare-service/internal/database"
	"github.com/ongkir/fare-service/internal/zones"
)

var (
	ratecardSheet  string
	ratecardBase   string
	ratecardTo     string
	ratecardOutput string
	ratecardDryRun bool
)

// ratecardCmd groups rate card commands
var ratecardCmd = &cobra.Command{
	Use:   "ratecard",
	Short: "Import per-zone service rates",
}

var ratecardImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Apply an XLSX rate card to the zone table",
	Long: `Read zone/service rates from an XLSX rate card and apply them to a zone table.
The sheet needs zone, service and base rate columns (Indonesian headers zona,
layanan and tarif are accepted); a minimum fare column is optional. Rows naming
unknown zones are reported and skipped.

The base table is --base when given, otherwise the configured zone source. The
result is written as YAML (--to yaml) or saved to the Postgres zone store
(--to postgres).`,
	Example: `  fare-service ratecard import ./tarif-2026.xlsx --output ./config/zones.yaml
  fare-service ratecard import ./tarif-2026.xlsx --sheet "Maret" --to postgres
  fare-service ratecard import ./tarif-2026.xlsx --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runRatecardImport,
}

func init() {
	rootCmd.AddCommand(ratecardCmd)
	ratecardCmd.AddCommand(ratecardImportCmd)

	ratecardImportCmd.Flags().StringVar(&ratecardSheet, "sheet", "", "Worksheet name (default: first sheet)")
	ratecardImportCmd.Flags().StringVar(&ratecardBase, "base", "", "Zone table YAML to apply the rates to")
	ratecardImportCmd.Flags().StringVar(&ratecardTo, "to", "yaml", "Destination: yaml or postgres")
	ratecardImportCmd.Flags().StringVar(&ratecardOutput, "output", "", "YAML output file (default: stdout)")
	ratecardImportCmd.Flags().BoolVar(&ratecardDryRun, "dry-run", false, "Report the parsed rows without writing")
}

func runRatecardImport(cmd *cobra.Command, args []string) error {
	if ratecardTo != "yaml" && ratecardTo != "postgres" {
		return fmt.Errorf("invalid --to %q: must be yaml or postgres", ratecardTo)
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read rate card: %w", err)
	}

	opts := zones.DefaultRateCardOptions()
	opts.Sheet = ratecardSheet
	result, err := zones.ParseRateCard(content, opts)
	if err != nil {
		return err
	}

	table, err := loadTable(cmd, ratecardBase)
	if err != nil {
		return err
	}
	updated, skipped := zones.ApplyRateCard(table, result.Rows)
	if _, err := zones.NewResolver(updated); err != nil {
		return fmt.Errorf("rate card produces an invalid zone table: %w", err)
	}

	problems := append(append([]zones.RateCardError(nil), result.Errors...), skipped...)
	logger.Info().
		Int("total_rows", result.TotalRows).
		Int("applied", len(result.Rows)-len(skipped)).
		Int("problems", len(problems)).
		Msg("Rate card parsed")

	if len(problems) > 0 || ratecardDryRun {
		w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Rows:\t%d\nApplied:\t%d\nProblems:\t%d\n", result.TotalRows, len(result.Rows)-len(skipped), len(problems))
		for _, p := range problems {
			if p.RowNumber > 0 {
				fmt.Fprintf(w, "  row %d\t%s\n", p.RowNumber, p.Message)
			} else {
				fmt.Fprintf(w, "  -\t%s\n", p.Message)
			}
		}
		w.Flush()
	}
	if ratecardDryRun {
		return nil
	}

	if ratecardTo == "yaml" {
		return writeTable(cmd.OutOrStdout(), ratecardOutput, updated)
	}

	c, err := requireConfig(cmd)
	if err != nil {
		return err
	}
	if err := initDatabase(cmd.Context(), c, true); err != nil {
		return err
	}
	store := zones.NewStore(database.Pool())
	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	if err := store.Save(cmd.Context(), updated); err != nil {
		return err
	}
	logger.Info().Int("zones", len(updated)).Msg("Zone table saved to Postgres")
	return nil
}
