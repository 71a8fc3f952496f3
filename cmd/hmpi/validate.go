package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var validateCmd = &cobra.Command{
	Use:   "validate REPORT.csv",
	Short: "Re-score an HMPI report and flag rows that disagree",
	Long: `Validate reads a rendered HMPI_Analysis_Report.csv, feeds every row back
through normalization and scoring, and checks that the Calculated HMPI and
Status columns match. Exits non-zero when any phase fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		defer f.Close()
		return validateReport(cmd.Context(), f, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateReport(ctx context.Context, r io.Reader, w io.Writer) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	header := &phase{name: "Report header"}
	rows := &phase{name: "Row scoring"}
	phases := []*phase{header, rows}

	if len(records) == 0 {
		header.errorf("report is empty")
	} else if !slices.Equal(records[0], domain.ReportHeader) {
		header.errorf("header = %v, want %v", records[0], domain.ReportHeader)
	}

	checked := 0
	if header.passed() {
		checked = validateRows(ctx, records[0], records[1:], rows)
	}

	fmt.Fprintln(w, "=== HMPI Report Validation ===")
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-20s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nRows checked: %d\n", checked)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return errValidationFailed
}

// validateRows re-scores each record and returns how many were checked.
// Line numbers in messages count the header as line 1.
func validateRows(ctx context.Context, header []string, records [][]string, p *phase) int {
	hmpiCol := slices.Index(header, "Calculated HMPI")
	statusCol := slices.Index(header, "Status")

	for i, rec := range records {
		if ctx.Err() != nil {
			p.errorf("interrupted: %v", ctx.Err())
			return i
		}
		line := i + 2
		if len(rec) != len(header) {
			p.errorf("line %d: %d fields, want %d", line, len(rec), len(header))
			continue
		}

		row := make(domain.RawRow, len(header))
		for j, key := range header {
			row[key] = rec[j]
		}
		sample, err := domain.Normalize(row)
		if err != nil {
			p.errorf("line %d: %v", line, err)
			continue
		}
		want := domain.ScoreSample(sample)

		got, err := strconv.ParseFloat(rec[hmpiCol], 64)
		if err != nil {
			p.errorf("line %d (%s): Calculated HMPI %q is not a number", line, sample.SampleID, rec[hmpiCol])
		} else if got != want.CalculatedHMPI {
			p.errorf("line %d (%s): Calculated HMPI = %s, recomputed %v", line, sample.SampleID, rec[hmpiCol], want.CalculatedHMPI)
		}
		if domain.Status(rec[statusCol]) != want.Status {
			p.errorf("line %d (%s): Status = %q, recomputed %q", line, sample.SampleID, rec[statusCol], want.Status)
		}
	}
	return len(records)
}
