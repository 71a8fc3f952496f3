package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReportFilename and ReportContentType describe the CSV download.
const (
	ReportFilename    = "HMPI_Analysis_Report.csv"
	ReportContentType = "text/csv"
)

// ReportHeader is the fixed column layout of the analysis report. The
// sample columns double as normalizer aliases, so a report can be fed back
// through Normalize.
var ReportHeader = []string{
	"Sample ID", "Location", "Latitude", "Longitude", "pH", "TDS",
	"As", "Cd", "Cr", "Cu", "Fe", "Mn", "Ni", "Pb", "Zn",
	"Calculated HMPI", "Status",
}

// WriteReport renders scored samples as CSV. Zero readings are written as
// "0" rather than left blank.
func WriteReport(w io.Writer, scored []ScoredSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for i := range scored {
		if err := cw.Write(reportRow(scored[i])); err != nil {
			return fmt.Errorf("write report row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderReport returns the CSV report as a string.
func RenderReport(scored []ScoredSample) (string, error) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, scored); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func reportRow(s ScoredSample) []string {
	row := make([]string, 0, len(ReportHeader))
	row = append(row,
		s.SampleID,
		s.Location,
		formatNumber(s.Latitude),
		formatNumber(s.Longitude),
		formatNumber(s.PH),
		formatNumber(s.TDS),
	)
	for _, m := range Metals {
		c, _ := s.Concentration(m)
		row = append(row, formatNumber(c))
	}
	return append(row, formatNumber(s.CalculatedHMPI), string(s.Status))
}

// formatNumber uses the shortest decimal that parses back to the same value.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
