package domain

import (
	"fmt"
	"time"
)

// FetchUnit identifies one remote (station, year) CSV and its local
// destination.
type FetchUnit struct {
	StationID int
	Year      int
}

// LocalPath returns the unit's storage path relative to the mirror root.
// It is deterministic and doubles as the staleness-cache key.
func (u FetchUnit) LocalPath() string {
	return fmt.Sprintf("stations/%d/%d/%d.csv.xz", u.StationID/1000, u.StationID, u.Year)
}

func (u FetchUnit) String() string {
	return fmt.Sprintf("station %d year %d", u.StationID, u.Year)
}

// FetchRecord is the provenance of one successful fetch, published to
// downstream consumers when announcing is enabled.
type FetchRecord struct {
	Path        string    `json:"path"`
	StationID   int       `json:"station_id"`
	Year        int       `json:"year"`
	Bytes       int       `json:"bytes"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
