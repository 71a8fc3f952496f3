package store

import "github.com/couchcryptid/groundwater-hmpi-service/internal/domain"

// SampleColumns is the column order shared by the SQL-backed stores.
var SampleColumns = []string{
	"sample_id", "location", "longitude", "latitude", "ph", "ec", "tds",
	"as_ugl", "cd_ugl", "cr_ugl", "cu_ugl", "fe_ugl", "mn_ugl", "ni_ugl", "pb_ugl", "zn_ugl",
	"heavy_metal_index",
}

// SampleValues returns s's fields in SampleColumns order.
func SampleValues(s domain.Sample) []any {
	return []any{
		s.SampleID, s.Location, s.Longitude, s.Latitude, s.PH, s.EC, s.TDS,
		s.As, s.Cd, s.Cr, s.Cu, s.Fe, s.Mn, s.Ni, s.Pb, s.Zn,
		s.HeavyMetalIndex,
	}
}

// SampleDest returns scan destinations into s in SampleColumns order.
func SampleDest(s *domain.Sample) []any {
	return []any{
		&s.SampleID, &s.Location, &s.Longitude, &s.Latitude, &s.PH, &s.EC, &s.TDS,
		&s.As, &s.Cd, &s.Cr, &s.Cu, &s.Fe, &s.Mn, &s.Ni, &s.Pb, &s.Zn,
		&s.HeavyMetalIndex,
	}
}
