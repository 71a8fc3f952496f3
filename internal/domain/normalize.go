package domain

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Header aliases per canonical field, in priority order: the unit-qualified
// header first, then the bare field name, then its lowercase form. Sheets
// mix conventions within a single file, so the order must stay fixed.
var (
	sampleIDAliases  = []string{"S. No.", "Sample ID", "sampleId"}
	locationAliases  = []string{"Locations", "Location", "location"}
	longitudeAliases = []string{"Longitude (degrees in decimal)", "Longitude", "longitude"}
	latitudeAliases  = []string{"Latitude (degrees in decimal)", "Latitude", "latitude"}
	phAliases        = []string{"pH", "ph"}
	ecAliases        = []string{"EC μS/cm at 25 °C", "EC µS/cm at 25 °C", "EC", "ec"}
	tdsAliases       = []string{"TDS mg/L", "TDS", "tds"}
	hmiAliases       = []string{"Heavy Metal μg/L", "Heavy Metal µg/L", "Heavy Metal", "heavyMetalIndex"}
)

// metalAliases holds "<M> μg/L", "<M>", "<m>" for every tracked metal. The
// micro sign (U+00B5) variant sits right after the Greek mu (U+03BC) form
// because both appear in exported sheets.
var metalAliases = func() map[Metal][]string {
	out := make(map[Metal][]string, len(Metals))
	for _, m := range Metals {
		name := string(m)
		out[m] = []string{name + " μg/L", name + " µg/L", name, strings.ToLower(name)}
	}
	return out
}()

// Normalize maps one raw row onto the canonical Sample. It never fails for a
// non-nil row: unresolved labels are "" and unresolved numbers are 0.
func Normalize(row RawRow) (Sample, error) {
	if row == nil {
		return Sample{}, &InvalidInputError{Index: -1, Reason: "raw row is nil"}
	}

	s := Sample{
		SampleID:        resolveLabel(row, sampleIDAliases),
		Location:        resolveLabel(row, locationAliases),
		Longitude:       resolveNumber(row, longitudeAliases),
		Latitude:        resolveNumber(row, latitudeAliases),
		PH:              resolveNumber(row, phAliases),
		EC:              resolveNumber(row, ecAliases),
		TDS:             resolveNumber(row, tdsAliases),
		HeavyMetalIndex: resolveNumber(row, hmiAliases),
	}
	for _, m := range Metals {
		*s.metalField(m) = resolveNumber(row, metalAliases[m])
	}
	return s, nil
}

// NormalizeAll normalizes rows concurrently across at most workers
// goroutines. The output preserves input order. A nil row aborts the batch
// with an *InvalidInputError carrying its index.
func NormalizeAll(ctx context.Context, rows []RawRow, workers int) ([]Sample, error) {
	out := make([]Sample, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(rows) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				s, err := Normalize(rows[i])
				if err != nil {
					var invalid *InvalidInputError
					if errors.As(err, &invalid) {
						return &InvalidInputError{Index: i, Reason: invalid.Reason}
					}
					return err
				}
				out[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup returns the value of the first alias present with a non-nil value.
func lookup(row RawRow, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func resolveNumber(row RawRow, aliases []string) float64 {
	v, ok := lookup(row, aliases)
	if !ok {
		return 0
	}
	return toFloat(v)
}

func resolveLabel(row RawRow, aliases []string) string {
	v, ok := lookup(row, aliases)
	if !ok {
		return ""
	}
	return toLabel(v)
}
