package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/ingest"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatCSV  = "csv"
)

// fileAnalysis is the offline counterpart of an API analysis response.
type fileAnalysis struct {
	File    string                `json:"file" yaml:"file"`
	Count   int                   `json:"count" yaml:"count"`
	Summary domain.Summary        `json:"summary" yaml:"summary"`
	Results []domain.ScoredSample `json:"results" yaml:"results"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Normalize and score a survey file without the service",
	Long: `Analyze reads a CSV or Excel survey sheet, normalizes every row, and scores
it with the Heavy Metal Pollution Index. Output is JSON or YAML (summary plus
per-sample results) or the CSV report served by GET /api/v1/report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		workers, _ := cmd.Flags().GetInt("workers")
		return analyzeFile(cmd.Context(), args[0], format, workers, cmd.OutOrStdout())
	},
}

func init() {
	analyzeCmd.Flags().String("format", formatJSON, "output format: json, yaml, csv")
	analyzeCmd.Flags().Int("workers", 4, "concurrent row normalizers")

	rootCmd.AddCommand(analyzeCmd)
}

func analyzeFile(ctx context.Context, path, format string, workers int, w io.Writer) error {
	switch format {
	case formatJSON, formatYAML, formatCSV:
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, or csv)", format)
	}
	if !ingest.Supported(path) {
		return fmt.Errorf("%s: %w", path, ingest.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := ingest.ReadRows(path, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	samples, err := domain.NormalizeAll(ctx, rows, workers)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", path, err)
	}
	scored, summary := domain.Score(samples)

	if format == formatCSV {
		return domain.WriteReport(w, scored)
	}
	return encode(w, format, fileAnalysis{
		File:    filepath.Base(path),
		Count:   len(scored),
		Summary: summary,
		Results: scored,
	})
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
