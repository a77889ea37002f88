package domain

// Station is one row of the ECCC station inventory, typed per column.
// Pointer fields are blank in the source CSV for stations that never
// reported the corresponding record kind.
type Station struct {
	Name      string
	Province  string
	ClimateID string
	StationID int
	WMOID     *int
	TCID      string

	LatitudeDecimalDegrees  *float64
	LongitudeDecimalDegrees *float64
	Latitude                *int
	Longitude               *int
	Elevation               *float64

	FirstYear    *int
	LastYear     *int
	HlyFirstYear *int
	HlyLastYear  *int
	DlyFirstYear *int
	DlyLastYear  *int
	MlyFirstYear *int
	MlyLastYear  *int
}

// Units enumerates the station's fetchable units: one per year in the
// inclusive daily-record range, ascending. Stations missing either daily
// bound yield nothing.
func (s Station) Units() []FetchUnit {
	if s.DlyFirstYear == nil || s.DlyLastYear == nil {
		return nil
	}
	first, last := *s.DlyFirstYear, *s.DlyLastYear
	if last < first {
		return nil
	}
	units := make([]FetchUnit, 0, last-first+1)
	for year := first; year <= last; year++ {
		units = append(units, FetchUnit{StationID: s.StationID, Year: year})
	}
	return units
}
