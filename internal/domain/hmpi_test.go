package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arsenicOnly returns a sample whose index is As/9: qi*wi for arsenic is
// As*10/10, and all nine metals count toward the divisor.
func arsenicOnly(as float64) Sample {
	return Sample{SampleID: "G1", As: as}
}

func TestStandard(t *testing.T) {
	expected := map[Metal]float64{
		Arsenic: 10, Cadmium: 3, Chromium: 50, Copper: 2000, Iron: 300,
		Manganese: 400, Nickel: 70, Lead: 10, Zinc: 3000,
	}
	for _, m := range Metals {
		limit, ok := Standard(m)
		require.True(t, ok, m)
		assert.Equal(t, expected[m], limit, m)
	}

	_, ok := Standard(Metal("Hg"))
	assert.False(t, ok)
}

func TestCalculateHMPI(t *testing.T) {
	t.Run("single metal divides by nine", func(t *testing.T) {
		hmpi := CalculateHMPI(arsenicOnly(20))
		assert.InDelta(t, 20.0/9.0, hmpi, 1e-12)

		scored := ScoreSample(arsenicOnly(20))
		assert.Equal(t, 2.22, scored.CalculatedHMPI)
		assert.Equal(t, StatusSafe, scored.Status)
	})

	t.Run("every metal at its standard", func(t *testing.T) {
		var s Sample
		for _, m := range Metals {
			limit, _ := Standard(m)
			*s.metalField(m) = limit
		}

		var expected float64
		for _, m := range Metals {
			limit, _ := Standard(m)
			expected += 100 / limit
		}
		expected /= 9

		assert.InDelta(t, expected, CalculateHMPI(s), 1e-12)
		assert.Equal(t, 6.38, ScoreSample(s).CalculatedHMPI)
	})

	t.Run("absent metals are skipped", func(t *testing.T) {
		nan := math.NaN()
		s := Sample{As: 20, Cd: nan, Cr: nan, Cu: nan, Fe: nan, Mn: nan, Ni: nan, Pb: nan, Zn: nan}
		assert.InDelta(t, 20.0, CalculateHMPI(s), 1e-12)
	})

	t.Run("no present metals", func(t *testing.T) {
		nan := math.NaN()
		s := Sample{As: nan, Cd: nan, Cr: nan, Cu: nan, Fe: nan, Mn: nan, Ni: nan, Pb: nan, Zn: nan}
		assert.Equal(t, 0.0, CalculateHMPI(s))
	})

	t.Run("zero sample", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateHMPI(Sample{}))
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		hmpi     float64
		expected Status
	}{
		{0, StatusSafe},
		{49.99, StatusSafe},
		{50, StatusSafe},
		{50.01, StatusModerate},
		{99.99, StatusModerate},
		{100, StatusModerate},
		{100.01, StatusHigh},
		{1e6, StatusHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.hmpi), "hmpi=%v", tt.hmpi)
	}
}

func TestScoreSample_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		as       float64
		hmpi     float64
		expected Status
	}{
		{"exactly 50.00", 450, 50.00, StatusSafe},
		{"exactly 50.01", 450.09, 50.01, StatusModerate},
		{"exactly 100.00", 900, 100.00, StatusModerate},
		{"exactly 100.01", 900.09, 100.01, StatusHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := ScoreSample(arsenicOnly(tt.as))
			assert.Equal(t, tt.hmpi, scored.CalculatedHMPI)
			assert.Equal(t, tt.expected, scored.Status)
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{2.2222222, 2.22},
		{0.125, 0.13},   // exact tie rounds away from zero
		{-0.125, -0.13}, // and symmetrically below zero
		{1.005, 1},      // binary value sits just below the tie
		{2.675, 2.67},
		{50.004999, 50},
		{99.995, 100}, // binary value sits just above the tie
		{12345.678, 12345.68},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, round2(tt.in), "round2(%v)", tt.in)
	}

	assert.True(t, math.IsInf(round2(math.Inf(1)), 1))
}

func TestScore(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		scored, summary := Score(nil)
		assert.Empty(t, scored)
		assert.Equal(t, Summary{}, summary)
		assert.False(t, math.IsNaN(summary.AverageHMPI))
	})

	t.Run("mixed batch", func(t *testing.T) {
		samples := []Sample{
			arsenicOnly(20),   // 2.22 Safe
			arsenicOnly(450),  // 50.00 Safe
			arsenicOnly(720),  // 80.00 Moderate
			arsenicOnly(1800), // 200.00 High
		}

		scored, summary := Score(samples)
		require.Len(t, scored, 4)

		assert.Equal(t, []Status{StatusSafe, StatusSafe, StatusModerate, StatusHigh},
			[]Status{scored[0].Status, scored[1].Status, scored[2].Status, scored[3].Status})

		expected := Summary{
			TotalSamples: 4,
			SafeSamples:  2,
			ModerateRisk: 1,
			HighRisk:     1,
			AverageHMPI:  (2.22 + 50 + 80 + 200) / 4,
		}
		assert.Equal(t, expected.TotalSamples, summary.TotalSamples)
		assert.Equal(t, expected.SafeSamples, summary.SafeSamples)
		assert.Equal(t, expected.ModerateRisk, summary.ModerateRisk)
		assert.Equal(t, expected.HighRisk, summary.HighRisk)
		assert.InDelta(t, expected.AverageHMPI, summary.AverageHMPI, 1e-9)
	})

	t.Run("keeps canonical fields", func(t *testing.T) {
		in := Sample{SampleID: "G4", Location: "Site", Latitude: 26.1, Longitude: 80.3, PH: 7, Pb: 12}
		scored, _ := Score([]Sample{in})
		if diff := cmp.Diff(in, scored[0].Sample); diff != "" {
			t.Fatalf("sample mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestScore_Idempotent(t *testing.T) {
	samples := []Sample{arsenicOnly(33.3), {Cd: 17, Pb: 41, Fe: 900}, {}}

	first, firstSummary := Score(samples)

	again := make([]Sample, len(first))
	for i, s := range first {
		again[i] = s.Sample
	}
	second, secondSummary := Score(again)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rescoring changed results (-first +second):\n%s", diff)
	}
	assert.Equal(t, firstSummary, secondSummary)
}

func TestScore_HugeReadingsStayFinite(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   Status
	}{
		{"single overflowing metal", Sample{SampleID: "G1", Cd: 1e307}, StatusHigh},
		{"every metal at the float limit", Sample{
			As: math.MaxFloat64, Cd: math.MaxFloat64, Cr: math.MaxFloat64,
			Cu: math.MaxFloat64, Fe: math.MaxFloat64, Mn: math.MaxFloat64,
			Ni: math.MaxFloat64, Pb: math.MaxFloat64, Zn: math.MaxFloat64,
		}, StatusHigh},
		{"opposite overflows cancel", Sample{Cd: 1e308, Pb: -1e308}, StatusSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored, summary := Score([]Sample{tt.sample, arsenicOnly(20)})

			got := scored[0].CalculatedHMPI
			assert.False(t, math.IsInf(got, 0) || math.IsNaN(got), "calculatedHMPI = %v", got)
			assert.Equal(t, tt.want, scored[0].Status)
			assert.False(t, math.IsInf(summary.AverageHMPI, 0) || math.IsNaN(summary.AverageHMPI))

			_, err := json.Marshal(scored)
			require.NoError(t, err)
			_, err = json.Marshal(summary)
			require.NoError(t, err)
		})
	}
}

func TestSummarize_AverageSaturates(t *testing.T) {
	summary := Summarize([]ScoredSample{
		{CalculatedHMPI: math.MaxFloat64, Status: StatusHigh},
		{CalculatedHMPI: math.MaxFloat64, Status: StatusHigh},
	})

	assert.Equal(t, 2, summary.HighRisk)
	assert.InEpsilon(t, math.MaxFloat64, summary.AverageHMPI, 1e-12)
}
