// Package domain models groundwater-quality samples and the Heavy Metal
// Pollution Index (HMPI) computed from them.
//
// # Data Source
//
// Samples arrive as spreadsheet or CSV rows authored by field teams. Each
// row is handed to this package as a [RawRow]: header text mapped to the
// cell value. Header naming is not consistent across files, or even within
// one file, so every canonical field has an ordered alias list.
//
// # Header Conventions
//
// Aliases are tried in order and the first one present with a non-nil value
// wins:
//
//	"EC μS/cm at 25 °C"  →  "EC"  →  "ec"
//	"As μg/L"            →  "As"  →  "as"
//	"S. No."             →  "Sample ID"  →  "sampleId"
//
// The unit-qualified header comes first, then the bare field name, then
// the lowercase field name.
//
// Units:
//
//	Metals (As, Cd, Cr, Cu, Fe, Mn, Ni, Pb, Zn): µg/L
//	TDS: mg/L
//	EC: µS/cm at 25 °C
//	Longitude/Latitude: decimal degrees
//
// Values are taken as already expressed in these units; nothing is
// converted or bounds-checked.
//
// Missing values:
//
//	A missing column, an empty cell, or unparseable text becomes 0. A sample
//	without an arsenic reading therefore counts as zero arsenic when scored.
//	Text is parsed by its leading numeric prefix: "12.5 ppb" reads as 12.5.
//
// # HMPI
//
// For each metal with standard limit s and concentration c:
//
//	qi = (c / s) * 100
//	wi = 1 / s
//	HMPI = Σ(qi * wi) / n
//
// where n is the number of metals present (always nine for normalized
// samples). The weights are not normalized to sum to one. The result is
// rounded to two decimals.
//
// Standards (µg/L): As 10, Cd 3, Cr 50, Cu 2000, Fe 300, Mn 400, Ni 70,
// Pb 10, Zn 3000.
//
// Risk classification:
//
//	HMPI > 100        High Risk
//	50 < HMPI ≤ 100   Moderate Risk
//	HMPI ≤ 50         Safe
package domain
