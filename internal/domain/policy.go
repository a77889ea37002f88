package domain

import "time"

// Staleness thresholds by age class. A unit is due once its time since last
// refresh strictly exceeds the threshold for its year.
const (
	RecentThreshold   = time.Hour
	LastYearThreshold = 30 * 24 * time.Hour
	ArchiveThreshold  = 365 * 24 * time.Hour
)

// IsDue reports whether a unit for the given calendar year should be
// re-fetched. lastRefresh is the time of the last successful fetch; the zero
// value (never fetched) exceeds every threshold, so first fetches are always
// due. The clauses are ordered and the first matching year class wins: a
// current-year unit refreshed 10 minutes ago is not due, and does not fall
// through to the archive clause.
func IsDue(year int, now, lastRefresh time.Time) bool {
	age := now.Sub(lastRefresh)
	recentCutoffYear := now.AddDate(0, 0, -3).Year()

	switch {
	case year == now.Year() || year == recentCutoffYear:
		return age > RecentThreshold
	case year == now.Year()-1:
		return age > LastYearThreshold
	default:
		return age > ArchiveThreshold
	}
}
