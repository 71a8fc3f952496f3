package domain

import (
	"math"
	"math/big"
)

// Classification thresholds. Both comparisons are strict: an index of
// exactly 50.00 is Safe and exactly 100.00 is Moderate Risk.
const (
	moderateThreshold = 50.0
	highThreshold     = 100.0
)

type standard struct {
	metal Metal
	limit float64 // µg/L
}

// standards are the drinking-water limits for each tracked metal. The table
// is built once and only read afterwards.
var standards = [...]standard{
	{Arsenic, 10},
	{Cadmium, 3},
	{Chromium, 50},
	{Copper, 2000},
	{Iron, 300},
	{Manganese, 400},
	{Nickel, 70},
	{Lead, 10},
	{Zinc, 3000},
}

// Standard returns the regulatory limit for m in µg/L.
func Standard(m Metal) (float64, bool) {
	for _, s := range standards {
		if s.metal == m {
			return s.limit, true
		}
	}
	return 0, false
}

// CalculateHMPI returns the unrounded index for one sample: the sum of
// qi*wi over present metals divided by the number of present metals. The
// weights are not normalized; the divisor is the metal count. The result is
// finite for finite concentrations; overflow saturates at ±math.MaxFloat64.
func CalculateHMPI(s Sample) float64 {
	var hmpi float64
	validMetals := 0
	for _, std := range standards {
		c, ok := s.Concentration(std.metal)
		if !ok {
			continue
		}
		qi := (c / std.limit) * 100
		wi := 1 / std.limit
		hmpi = saturate(hmpi + saturate(qi*wi))
		validMetals++
	}
	if validMetals == 0 {
		return 0
	}
	return hmpi / float64(validMetals)
}

// Classify maps a rounded index onto its risk tier.
func Classify(hmpi float64) Status {
	switch {
	case hmpi > highThreshold:
		return StatusHigh
	case hmpi > moderateThreshold:
		return StatusModerate
	default:
		return StatusSafe
	}
}

// ScoreSample computes the rounded index and tier for one sample.
func ScoreSample(s Sample) ScoredSample {
	hmpi := round2(CalculateHMPI(s))
	return ScoredSample{
		Sample:         s,
		CalculatedHMPI: hmpi,
		Status:         Classify(hmpi),
	}
}

// Score scores every sample and aggregates the batch. Empty input yields an
// empty result and a zero Summary.
func Score(samples []Sample) ([]ScoredSample, Summary) {
	scored := make([]ScoredSample, len(samples))
	for i, s := range samples {
		scored[i] = ScoreSample(s)
	}
	return scored, Summarize(scored)
}

// Summarize tallies statuses and averages calculatedHMPI over a scored batch.
func Summarize(scored []ScoredSample) Summary {
	sum := Summary{TotalSamples: len(scored)}
	if len(scored) == 0 {
		return sum
	}

	var total float64
	for _, s := range scored {
		switch s.Status {
		case StatusSafe:
			sum.SafeSamples++
		case StatusModerate:
			sum.ModerateRisk++
		case StatusHigh:
			sum.HighRisk++
		}
		total += s.CalculatedHMPI
	}
	n := float64(len(scored))
	sum.AverageHMPI = total / n
	if math.IsInf(sum.AverageHMPI, 0) || math.IsNaN(sum.AverageHMPI) {
		var mean float64
		for _, s := range scored {
			mean = saturate(mean + s.CalculatedHMPI/n)
		}
		sum.AverageHMPI = mean
	}
	return sum
}

// saturate clamps an overflowed value to the largest finite float64 of the
// same sign.
func saturate(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// round2 rounds to two decimals on the exact binary value of v, breaking
// exact ties away from zero.
func round2(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	// Values this large have no fractional part left to round.
	if math.Abs(v) >= 1<<52 {
		return v
	}
	neg := v < 0
	x := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(100))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)
	r := float64(n.Int64()) / 100
	if neg {
		return -r
	}
	return r
}
