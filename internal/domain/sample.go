package domain

import "math"

// RawRow is one data row as produced by a spreadsheet or delimited-text
// reader: arbitrary header keys mapped to text, numbers, or nil.
type RawRow map[string]any

// Metal identifies one of the nine tracked heavy metals.
type Metal string

const (
	Arsenic   Metal = "As"
	Cadmium   Metal = "Cd"
	Chromium  Metal = "Cr"
	Copper    Metal = "Cu"
	Iron      Metal = "Fe"
	Manganese Metal = "Mn"
	Nickel    Metal = "Ni"
	Lead      Metal = "Pb"
	Zinc      Metal = "Zn"
)

// Metals lists the tracked metals in report column order.
var Metals = [...]Metal{Arsenic, Cadmium, Chromium, Copper, Iron, Manganese, Nickel, Lead, Zinc}

// Sample is the canonical groundwater measurement after normalization.
// Every numeric field is finite; missing or unparseable input is 0.
type Sample struct {
	SampleID  string  `json:"sampleId" yaml:"sampleId"`
	Location  string  `json:"location" yaml:"location"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	PH        float64 `json:"pH" yaml:"pH"`
	EC        float64 `json:"EC" yaml:"EC"`   // µS/cm
	TDS       float64 `json:"TDS" yaml:"TDS"` // mg/L

	// Metal concentrations in µg/L.
	As float64 `json:"As" yaml:"As"`
	Cd float64 `json:"Cd" yaml:"Cd"`
	Cr float64 `json:"Cr" yaml:"Cr"`
	Cu float64 `json:"Cu" yaml:"Cu"`
	Fe float64 `json:"Fe" yaml:"Fe"`
	Mn float64 `json:"Mn" yaml:"Mn"`
	Ni float64 `json:"Ni" yaml:"Ni"`
	Pb float64 `json:"Pb" yaml:"Pb"`
	Zn float64 `json:"Zn" yaml:"Zn"`

	HeavyMetalIndex float64 `json:"heavyMetalIndex" yaml:"heavyMetalIndex"`
}

// Concentration returns the sample's value for m and whether it is present.
// NaN marks an absent reading.
func (s Sample) Concentration(m Metal) (float64, bool) {
	var v float64
	switch m {
	case Arsenic:
		v = s.As
	case Cadmium:
		v = s.Cd
	case Chromium:
		v = s.Cr
	case Copper:
		v = s.Cu
	case Iron:
		v = s.Fe
	case Manganese:
		v = s.Mn
	case Nickel:
		v = s.Ni
	case Lead:
		v = s.Pb
	case Zinc:
		v = s.Zn
	default:
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// metalField returns a pointer to the sample field holding m.
func (s *Sample) metalField(m Metal) *float64 {
	switch m {
	case Arsenic:
		return &s.As
	case Cadmium:
		return &s.Cd
	case Chromium:
		return &s.Cr
	case Copper:
		return &s.Cu
	case Iron:
		return &s.Fe
	case Manganese:
		return &s.Mn
	case Nickel:
		return &s.Ni
	case Lead:
		return &s.Pb
	case Zinc:
		return &s.Zn
	}
	return nil
}

// Status is the risk tier derived from a sample's HMPI.
type Status string

const (
	StatusSafe     Status = "Safe"
	StatusModerate Status = "Moderate Risk"
	StatusHigh     Status = "High Risk"
)

// ScoredSample is a Sample with its computed index and risk tier.
type ScoredSample struct {
	Sample         `yaml:",inline"`
	CalculatedHMPI float64 `json:"calculatedHMPI" yaml:"calculatedHMPI"`
	Status         Status  `json:"status" yaml:"status"`
}

// Summary aggregates a scored batch.
type Summary struct {
	TotalSamples int     `json:"totalSamples" yaml:"totalSamples"`
	SafeSamples  int     `json:"safeSamples" yaml:"safeSamples"`
	ModerateRisk int     `json:"moderateRisk" yaml:"moderateRisk"`
	HighRisk     int     `json:"highRisk" yaml:"highRisk"`
	AverageHMPI  float64 `json:"averageHMPI" yaml:"averageHMPI"`
}
