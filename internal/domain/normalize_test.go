package domain

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testECHeader = "EC μS/cm at 25 °C"
	testSampleID = "G1"
)

func TestNormalize(t *testing.T) {
	t.Run("unit-qualified headers", func(t *testing.T) {
		row := RawRow{
			"S. No.":                         testSampleID,
			"Locations":                      "Kanpur Dehat",
			"Longitude (degrees in decimal)": "80.12",
			"Latitude (degrees in decimal)":  "26.45",
			"pH":                             "7.4",
			testECHeader:                     "512",
			"TDS mg/L":                       "310",
			"As μg/L":                        "12",
			"Cd μg/L":                        "1.5",
			"Cr μg/L":                        "20",
			"Cu μg/L":                        "45",
			"Fe μg/L":                        "250",
			"Mn μg/L":                        "90",
			"Ni μg/L":                        "8",
			"Pb μg/L":                        "6",
			"Zn μg/L":                        "400",
			"Heavy Metal μg/L":               "33.3",
		}

		s, err := Normalize(row)
		require.NoError(t, err)

		assert.Equal(t, testSampleID, s.SampleID)
		assert.Equal(t, "Kanpur Dehat", s.Location)
		assert.Equal(t, 80.12, s.Longitude)
		assert.Equal(t, 26.45, s.Latitude)
		assert.Equal(t, 7.4, s.PH)
		assert.Equal(t, 512.0, s.EC)
		assert.Equal(t, 310.0, s.TDS)
		assert.Equal(t, 12.0, s.As)
		assert.Equal(t, 1.5, s.Cd)
		assert.Equal(t, 20.0, s.Cr)
		assert.Equal(t, 45.0, s.Cu)
		assert.Equal(t, 250.0, s.Fe)
		assert.Equal(t, 90.0, s.Mn)
		assert.Equal(t, 8.0, s.Ni)
		assert.Equal(t, 6.0, s.Pb)
		assert.Equal(t, 400.0, s.Zn)
		assert.Equal(t, 33.3, s.HeavyMetalIndex)
	})

	t.Run("bare and lowercase headers", func(t *testing.T) {
		row := RawRow{
			"Sample ID": "G7",
			"location":  "Unnao",
			"longitude": 80.5,
			"Latitude":  26.5,
			"ph":        "6.9",
			"ec":        "700",
			"tds":       "420",
			"as":        "3",
			"Pb":        "11",
		}

		s, err := Normalize(row)
		require.NoError(t, err)

		assert.Equal(t, "G7", s.SampleID)
		assert.Equal(t, "Unnao", s.Location)
		assert.Equal(t, 80.5, s.Longitude)
		assert.Equal(t, 26.5, s.Latitude)
		assert.Equal(t, 6.9, s.PH)
		assert.Equal(t, 700.0, s.EC)
		assert.Equal(t, 420.0, s.TDS)
		assert.Equal(t, 3.0, s.As)
		assert.Equal(t, 11.0, s.Pb)
	})

	t.Run("micro sign headers", func(t *testing.T) {
		s, err := Normalize(RawRow{"EC µS/cm at 25 °C": "80", "Zn µg/L": "5"})
		require.NoError(t, err)
		assert.Equal(t, 80.0, s.EC)
		assert.Equal(t, 5.0, s.Zn)
	})

	t.Run("nil row", func(t *testing.T) {
		_, err := Normalize(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("empty row defaults everything", func(t *testing.T) {
		s, err := Normalize(RawRow{})
		require.NoError(t, err)
		assert.Equal(t, Sample{}, s)
	})
}

func TestNormalize_AliasPriority(t *testing.T) {
	tests := []struct {
		name     string
		row      RawRow
		expected float64
	}{
		{"first alias wins", RawRow{testECHeader: 500.0, "EC": 999.0}, 500},
		{"first alias wins as text", RawRow{testECHeader: "500", "EC": "999", "ec": "1"}, 500},
		{"bare name before lowercase", RawRow{"EC": "999", "ec": "1"}, 999},
		{"lowercase as last resort", RawRow{"ec": "1"}, 1},
		{"nil value falls through", RawRow{testECHeader: nil, "EC": "42"}, 42},
		{"empty text is present and reads as zero", RawRow{testECHeader: "", "EC": "42"}, 0},
		{"unparseable first alias reads as zero", RawRow{testECHeader: "n/a", "EC": "42"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Normalize(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.EC)
		})
	}
}

func TestNormalize_LabelAliasPriority(t *testing.T) {
	s, err := Normalize(RawRow{"S. No.": 3.0, "Sample ID": "G9", "Locations": "A", "Location": "B"})
	require.NoError(t, err)
	assert.Equal(t, "3", s.SampleID)
	assert.Equal(t, "A", s.Location)
}

func TestNormalize_MissingMetalsScoreSafe(t *testing.T) {
	s, err := Normalize(RawRow{"Sample ID": "G2", "pH": "7.1"})
	require.NoError(t, err)

	for _, m := range Metals {
		c, ok := s.Concentration(m)
		assert.True(t, ok, "metal %s should be present", m)
		assert.Zero(t, c, "metal %s should default to 0", m)
	}

	scored := ScoreSample(s)
	assert.Equal(t, 0.0, scored.CalculatedHMPI)
	assert.Equal(t, StatusSafe, scored.Status)
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected float64
	}{
		{"nil", nil, 0},
		{"plain text", "12.5", 12.5},
		{"leading whitespace", "  7", 7},
		{"trailing unit", "12.5 ppb", 12.5},
		{"leading dot", ".5", 0.5},
		{"exponent", "1.2e3", 1200},
		{"dangling exponent", "3e", 3},
		{"negative", "-80.25", -80.25},
		{"garbage", "abc", 0},
		{"empty", "", 0},
		{"infinity text", "Infinity", 0},
		{"overflow", "1e400", 0},
		{"hex is not a number", "0x10", 0},
		{"float64", 4.25, 4.25},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"int", 4, 4},
		{"int64", int64(9), 9},
		{"json number", json.Number("3.5"), 3.5},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toFloat(tt.in))
		})
	}
}

func TestToLabel(t *testing.T) {
	assert.Equal(t, "", toLabel(nil))
	assert.Equal(t, "G1", toLabel("G1"))
	assert.Equal(t, "12", toLabel(12.0))
	assert.Equal(t, "1.5", toLabel(1.5))
	assert.Equal(t, "7", toLabel(json.Number("7")))
	assert.Equal(t, "42", toLabel(42))
}

func TestNormalizeAll(t *testing.T) {
	rows := make([]RawRow, 25)
	for i := range rows {
		rows[i] = RawRow{"Sample ID": i, "As": float64(i)}
	}

	t.Run("preserves order", func(t *testing.T) {
		samples, err := NormalizeAll(context.Background(), rows, 4)
		require.NoError(t, err)
		require.Len(t, samples, len(rows))
		for i, s := range samples {
			assert.Equal(t, float64(i), s.As)
		}
	})

	t.Run("single worker fallback", func(t *testing.T) {
		samples, err := NormalizeAll(context.Background(), rows, 0)
		require.NoError(t, err)
		assert.Len(t, samples, len(rows))
	})

	t.Run("empty batch", func(t *testing.T) {
		samples, err := NormalizeAll(context.Background(), nil, 4)
		require.NoError(t, err)
		assert.Empty(t, samples)
	})

	t.Run("nil row reports its index", func(t *testing.T) {
		bad := append([]RawRow{}, rows...)
		bad[17] = nil

		_, err := NormalizeAll(context.Background(), bad, 3)
		require.Error(t, err)

		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 17, invalid.Index)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NormalizeAll(ctx, rows, 2)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
