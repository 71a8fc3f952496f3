package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// mockHeader mixes the header conventions seen in exported survey sheets:
// unit-qualified, bare, and lowercase names, with both micro sign variants.
var mockHeader = []string{
	"S. No.", "Locations", "Longitude (degrees in decimal)", "Latitude",
	"pH", "EC μS/cm at 25 °C", "TDS mg/L",
	"As μg/L", "Cd µg/L", "Cr", "cu", "Fe μg/L", "Mn", "ni", "Pb μg/L", "Zn",
}

var mockLocations = []string{
	"Kanpur", "Unnao", "Lucknow", "Agra", "Varanasi", "Prayagraj",
	"Kannauj", "Mathura", "Rae Bareli", "Fatehpur, Doab",
}

// mockMetalRanges bounds each generated concentration in µg/L, in header
// order from As to Zn. Upper bounds sit above the permissible limits so
// every risk tier shows up.
var mockMetalRanges = [][2]float64{
	{0, 60}, {0, 15}, {0, 120}, {0, 2500}, {0, 900}, {0, 400}, {0, 60}, {0, 45}, {0, 7000},
}

// blankRate is the share of metal cells left empty.
const blankRate = 0.1

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Write a deterministic synthetic survey CSV",
	Long: `Mock generates a groundwater survey sheet with mixed header conventions
and occasional blank cells. The same --seed always produces the same file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		seed, _ := cmd.Flags().GetUint64("seed")
		out, _ := cmd.Flags().GetString("out")
		if rows < 0 {
			return fmt.Errorf("--rows must be >= 0, got %d", rows)
		}

		if out == "" || out == "-" {
			return writeMock(cmd.OutOrStdout(), rows, seed)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := writeMock(f, rows, seed); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", rows, out)
		return nil
	},
}

func init() {
	mockCmd.Flags().Int("rows", 50, "number of sample rows")
	mockCmd.Flags().Uint64("seed", 1, "random seed")
	mockCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(mockCmd)
}

func writeMock(w io.Writer, rows int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write(mockHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range rows {
		rec := make([]string, 0, len(mockHeader))
		rec = append(rec,
			"G"+strconv.Itoa(i+1),
			mockLocations[rng.IntN(len(mockLocations))],
			formatMock(77+rng.Float64()*6, 4),
			formatMock(24+rng.Float64()*6, 4),
			formatMock(6.5+rng.Float64()*2, 2),
			formatMock(200+rng.Float64()*2800, 0),
			formatMock(100+rng.Float64()*1900, 0),
		)
		for _, r := range mockMetalRanges {
			if rng.Float64() < blankRate {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, formatMock(r[0]+rng.Float64()*(r[1]-r[0]), 2))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatMock(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
