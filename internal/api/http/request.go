package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

// queryRequest is the POST /query body.
type queryRequest struct {
	Timestamp timestamp       `json:"timestamp"`
	Polygon   *polygonRequest `json:"polygon" validate:"required"`
}

// polygonRequest is a GeoJSON Polygon geometry.
type polygonRequest struct {
	Type        string        `json:"type" validate:"required,eq=Polygon"`
	Coordinates [][][]float64 `json:"coordinates" validate:"required,min=1,dive,min=3,dive,min=2,max=3"`
}

func (r queryRequest) toQuery() (ndvi.Query, error) {
	if r.Timestamp.IsZero() {
		return ndvi.Query{}, &ndvi.Error{Kind: ndvi.KindInvalid, Op: "timestamp", Err: errors.New("timestamp is required")}
	}
	aoi, err := ndvi.NewAOI(r.Polygon.Coordinates)
	if err != nil {
		return ndvi.Query{}, err
	}
	return ndvi.Query{Timestamp: r.Timestamp.UTC(), AOI: aoi}, nil
}

// timestamp accepts ISO-8601 strings (offset optional, naive means UTC) and Unix
// seconds given as a number or a numeric string.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ts, err := parseTime(s)
		if err != nil {
			return err
		}
		t.Time = ts
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return errors.New("invalid timestamp; use ISO-8601 or unix seconds")
	}
	t.Time = unixTime(secs)
	return nil
}

// parseTime tries ISO-8601 layouts, then Unix seconds.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return unixTime(secs), nil
	}
	return time.Time{}, errors.New("invalid time format; use ISO-8601 or unix seconds")
}

func unixTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
