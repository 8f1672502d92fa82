package ndvi

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/i474232898/ndvi-service/internal/raster"
)

// minRingPositions is the smallest closed ring: a triangle plus the repeated first vertex.
const minRingPositions = 4

// AOI is the area of interest: a WGS84 polygon whose first ring is the outer boundary.
type AOI struct {
	polygon *geom.Polygon
}

// NewAOI builds an AOI from GeoJSON polygon coordinates ([ring][position][lon, lat(, z)]).
// Open rings are closed by repeating their first vertex.
func NewAOI(rings [][][]float64) (*AOI, error) {
	if len(rings) == 0 {
		return nil, newError(KindInvalid, "polygon", errors.New("at least one ring is required"))
	}

	coords := make([][]geom.Coord, 0, len(rings))
	for i, ring := range rings {
		c, err := ringCoords(ring)
		if err != nil {
			return nil, newError(KindInvalid, "polygon", fmt.Errorf("ring %d: %w", i, err))
		}
		coords = append(coords, c)
	}

	polygon, err := geom.NewPolygon(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, newError(KindInvalid, "polygon", err)
	}
	polygon.SetSRID(4326)

	return &AOI{polygon: polygon}, nil
}

func ringCoords(ring [][]float64) ([]geom.Coord, error) {
	out := make([]geom.Coord, 0, len(ring)+1)
	for j, pos := range ring {
		if len(pos) < 2 {
			return nil, fmt.Errorf("position %d has %d values, want at least 2", j, len(pos))
		}
		lon, lat := pos[0], pos[1]
		if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("position %d (%v, %v) is outside lon [-180,180] / lat [-90,90]", j, lon, lat)
		}
		out = append(out, geom.Coord{lon, lat})
	}

	if len(out) > 0 && !out[0].Equal(geom.XY, out[len(out)-1]) {
		out = append(out, geom.Coord{out[0][0], out[0][1]})
	}
	if len(out) < minRingPositions {
		return nil, fmt.Errorf("ring has %d positions, want at least %d", len(out), minRingPositions)
	}
	return out, nil
}

// Polygon returns the underlying geometry.
func (a *AOI) Polygon() *geom.Polygon {
	return a.polygon
}

// Bounds returns the lon/lat bounding box of the outer ring.
func (a *AOI) Bounds() raster.Bounds {
	b := a.polygon.LinearRing(0).Bounds()
	return raster.Bounds{
		MinX: b.Min(0),
		MinY: b.Min(1),
		MaxX: b.Max(0),
		MaxY: b.Max(1),
	}
}

// MarshalGeoJSON encodes the AOI as a GeoJSON Polygon geometry.
func (a *AOI) MarshalGeoJSON() ([]byte, error) {
	return geojson.Marshal(a.polygon)
}
