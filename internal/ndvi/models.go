package ndvi

import (
	"time"
)

// Query is a single NDVI request: a point in time and the area of interest.
type Query struct {
	Timestamp time.Time
	AOI       *AOI
}

// Scene is one catalog record (a STAC item) as seen by the pipeline.
// CloudCover is nil when the record carries no eo:cloud_cover property.
type Scene struct {
	ID         string
	Collection string
	Acquired   time.Time
	CloudCover *float64

	// Assets maps asset keys (e.g. "B04") to directly fetchable hrefs.
	Assets map[string]string
}

// Result is the summary returned to the caller.
// MeanNDVI and StdNDVI are nil when no pixel in the window produced a finite index.
type Result struct {
	MeanNDVI    *float64  `json:"mean_ndvi"`
	StdNDVI     *float64  `json:"std_ndvi"`
	SceneID     string    `json:"scene_id"`
	CloudCover  float64   `json:"cloud_cover"`
	Acquired    time.Time `json:"acquired"` // always UTC
	ValidPixels int       `json:"valid_pixels"`
	TotalPixels int       `json:"total_pixels"`
}
