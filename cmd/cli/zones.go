package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ongkir/fare-service/internal/app"
	"github.com/ongkir/fare-service/internal/zones"
)

var (
	zonesFile   string
	zonesOutput string
)

// zonesCmd groups the zone table maintenance commands
var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Inspect and export the delivery zone table",
}

var zonesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a zone table and list keywords claimed by several zones",
	Long: `Validate the configured zone table, or the YAML file given with --file, and
list every keyword that more than one zone claims. The first listed zone wins such
ties, so overlaps are reported rather than rejected.`,
	Example: `  fare-service zones check
  fare-service zones check --file ./config/zones.yaml`,
	RunE: runZonesCheck,
}

var zonesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured zone table as YAML",
	Example: `  fare-service zones export > zones.yaml
  fare-service zones export --output ./config/zones.yaml`,
	RunE: runZonesExport,
}

func init() {
	rootCmd.AddCommand(zonesCmd)
	zonesCmd.AddCommand(zonesCheckCmd)
	zonesCmd.AddCommand(zonesExportCmd)

	zonesCheckCmd.Flags().StringVar(&zonesFile, "file", "", "Zone table YAML file (default: configured source)")
	zonesExportCmd.Flags().StringVar(&zonesOutput, "output", "", "Output file (default: stdout)")
}

// loadTable reads --file when given, otherwise the configured source.
func loadTable(cmd *cobra.Command, file string) ([]zones.DeliveryZone, error) {
	if file != "" {
		return zones.LoadFile(file)
	}
	c, err := requireConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := initDatabase(cmd.Context(), c, false); err != nil {
		return nil, err
	}
	return app.LoadZones(cmd.Context(), c)
}

func runZonesCheck(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd, zonesFile)
	if err != nil {
		return err
	}
	resolver, err := zones.NewResolver(table)
	if err != nil {
		return fmt.Errorf("zone table is invalid: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Zone table OK: %d zones, remote zone %q\n", len(table), resolver.Remote().Name)

	dups := resolver.Duplicates()
	if len(dups) == 0 {
		fmt.Fprintln(out, "No overlapping keywords")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tZONES (first wins)")
	for _, d := range dups {
		fmt.Fprintf(w, "%s\t%v\n", d.Keyword, d.Zones)
	}
	return w.Flush()
}

func runZonesExport(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd, "")
	if err != nil {
		return err
	}
	return writeTable(cmd.OutOrStdout(), zonesOutput, table)
}

// writeTable encodes table to path, or to stdout when path is empty.
func writeTable(stdout io.Writer, path string, table []zones.DeliveryZone) error {
	if path == "" {
		return zones.Encode(stdout, table)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := zones.Encode(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
