package models

// LocationMetric is one row of the location_metrics aggregate table: trip
// statistics for a single taxi pickup location. Nullable columns are pointers.
type LocationMetric struct {
	LocationID int64    `json:"location_id" db:"location_id"`
	AvgDist    *float64 `json:"avg_dist" db:"avg_dist"`
	TripCount  *int64   `json:"trip_count" db:"trip_count"`
	AvgCost    *float64 `json:"avg_cost" db:"avg_cost"`
}

// TableName returns the table name for the LocationMetric model
func (LocationMetric) TableName() string {
	return "location_metrics"
}

// NewLocationMetric creates a fully populated LocationMetric
func NewLocationMetric(locationID int64, avgDist float64, tripCount int64, avgCost float64) LocationMetric {
	return LocationMetric{
		LocationID: locationID,
		AvgDist:    &avgDist,
		TripCount:  &tripCount,
		AvgCost:    &avgCost,
	}
}
