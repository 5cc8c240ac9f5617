package domain

import "time"

// Feedback is a customer's rating of a completed delivery.
// At most one feedback exists per booking; edits flip IsEdited.
type Feedback struct {
	ID           string
	BookingID    string
	CustomerID   string
	CustomerName string
	DriverID     string
	DriverName   string
	Rating       int // 1..5 inclusive
	Comment      string
	IsEdited     bool
	EditedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DriverStats aggregates feedback for one driver.
type DriverStats struct {
	AverageRating float64 `json:"averageRating"` // rounded to 1 decimal
	TotalRatings  int     `json:"totalRatings"`
}
