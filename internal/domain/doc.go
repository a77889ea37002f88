// Package domain models Environment and Climate Change Canada (ECCC)
// historical climate data and the refresh rules for mirroring it.
//
// # Data Source
//
// Daily climate records are published per station and per year as CSV files
// behind the ECCC bulk data endpoint
// (https://climate.weather.gc.ca/climate_data/bulk_data_e.html). The station
// population comes from the "Station Inventory EN.csv" listing maintained by
// ECCC, which carries one row per station with the year ranges for which
// hourly (HLY), daily (DLY), and monthly (MLY) records exist. Year-range
// columns are frequently blank: a station that never reported daily data has
// no DLY bounds at all, and such stations contribute nothing to a mirror run.
//
// # Fetch Units
//
// The atomic item of mirror work is one (station, year) pair, a
// [FetchUnit]. Its local path doubles as the staleness-cache key and is a
// pure function of station ID and year:
//
//	stations/{stationID / 1000}/{stationID}/{year}.csv.xz
//
// The thousand-bucket prefix keeps directory fan-out manageable across the
// ~8500 stations in the inventory.
//
// # Refresh Cadence
//
// Upstream files near "now" are still being appended to, so the policy
// weights staleness by the unit's calendar year (see [IsDue]):
//
//	current year, or the year containing today-3d:  re-fetch after 1 hour
//	previous year:                                  re-fetch after 30 days
//	anything older:                                 re-fetch after 365 days
//
// The year-of-three-days-ago clause matters only in the first days of
// January, when the freshest reports still land in last year's file. The
// yearly floor for frozen archives is a safety net against silent upstream
// corrections. A unit that has never been fetched carries a zero last-refresh
// time, which exceeds every threshold, so first fetches are always due.
package domain
