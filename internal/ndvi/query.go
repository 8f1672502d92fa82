package ndvi

import (
	"errors"
	"time"
)

// SearchOptions holds the catalog filter knobs.
type SearchOptions struct {
	Collection    string
	MaxCloudCover float64       // strict upper bound, percent
	Window        time.Duration // length of the datetime range after the query timestamp
	Limit         int           // page size
}

// DefaultSearchOptions mirrors the service defaults: Sentinel-2 L2A, under 20% cloud, 5 days.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Collection:    "sentinel-2-l2a",
		MaxCloudCover: 20,
		Window:        5 * 24 * time.Hour,
		Limit:         100,
	}
}

// SearchParams is the catalog filter for one query.
type SearchParams struct {
	Collections   []string
	Intersects    *AOI
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	Limit         int
}

// BuildSearch turns a query into a catalog filter: intersects the AOI, datetime in
// [timestamp, timestamp+window], cloud cover below the configured bound.
func BuildSearch(q Query, opts SearchOptions) (SearchParams, error) {
	if q.AOI == nil {
		return SearchParams{}, newError(KindInvalid, "build search", errors.New("polygon is required"))
	}
	if q.Timestamp.IsZero() {
		return SearchParams{}, newError(KindInvalid, "build search", errors.New("timestamp is required"))
	}

	start := q.Timestamp.UTC()
	return SearchParams{
		Collections:   []string{opts.Collection},
		Intersects:    q.AOI,
		Start:         start,
		End:           start.Add(opts.Window),
		MaxCloudCover: opts.MaxCloudCover,
		Limit:         opts.Limit,
	}, nil
}
