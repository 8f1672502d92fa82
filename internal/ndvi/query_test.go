package ndvi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearch(t *testing.T) {
	aoi, err := NewAOI(squareRing())
	require.NoError(t, err)

	ts := time.Date(2023, 6, 1, 2, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60))
	params, err := BuildSearch(Query{Timestamp: ts, AOI: aoi}, DefaultSearchOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"sentinel-2-l2a"}, params.Collections)
	assert.Same(t, aoi, params.Intersects)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), params.Start)
	assert.Equal(t, time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC), params.End)
	assert.Equal(t, 20.0, params.MaxCloudCover)
	assert.Equal(t, 100, params.Limit)
}

func TestBuildSearch_CustomOptions(t *testing.T) {
	aoi, err := NewAOI(squareRing())
	require.NoError(t, err)

	opts := SearchOptions{Collection: "landsat-c2-l2", MaxCloudCover: 5, Window: 48 * time.Hour, Limit: 10}
	ts := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	params, err := BuildSearch(Query{Timestamp: ts, AOI: aoi}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"landsat-c2-l2"}, params.Collections)
	assert.Equal(t, time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC), params.End)
	assert.Equal(t, 5.0, params.MaxCloudCover)
}

func TestBuildSearch_Invalid(t *testing.T) {
	aoi, err := NewAOI(squareRing())
	require.NoError(t, err)

	_, err = BuildSearch(Query{AOI: aoi}, DefaultSearchOptions())
	assert.Equal(t, KindInvalid, KindOf(err))

	_, err = BuildSearch(Query{Timestamp: time.Now()}, DefaultSearchOptions())
	assert.Equal(t, KindInvalid, KindOf(err))
}
