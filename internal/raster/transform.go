package raster

import (
	"errors"
	"fmt"
	"math"
)

// DefaultDensify is the number of extra points placed along each bounds edge
// before reprojection.
const DefaultDensify = 21

// Projector reprojects lon/lat (EPSG:4326) points into a raster CRS in place.
type Projector interface {
	ProjectLonLat(xs, ys []float64) error
}

// TransformBounds reprojects a lon/lat box into the projector's CRS. Each edge is
// densified so curved edges in the target CRS stay inside the returned box.
func TransformBounds(p Projector, b Bounds, densify int) (Bounds, error) {
	if densify < 0 {
		densify = 0
	}
	perEdge := densify + 1

	xs := make([]float64, 0, 4*perEdge)
	ys := make([]float64, 0, 4*perEdge)
	edge := func(x0, y0, x1, y1 float64) {
		for i := 0; i < perEdge; i++ {
			t := float64(i) / float64(perEdge)
			xs = append(xs, x0+(x1-x0)*t)
			ys = append(ys, y0+(y1-y0)*t)
		}
	}
	edge(b.MinX, b.MinY, b.MaxX, b.MinY)
	edge(b.MaxX, b.MinY, b.MaxX, b.MaxY)
	edge(b.MaxX, b.MaxY, b.MinX, b.MaxY)
	edge(b.MinX, b.MaxY, b.MinX, b.MinY)

	if err := p.ProjectLonLat(xs, ys); err != nil {
		return Bounds{}, fmt.Errorf("reproject bounds: %w", err)
	}

	out := Bounds{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for i := range xs {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return Bounds{}, errors.New("reproject bounds: transform produced non-finite coordinates")
		}
		out.MinX = math.Min(out.MinX, x)
		out.MinY = math.Min(out.MinY, y)
		out.MaxX = math.Max(out.MaxX, x)
		out.MaxY = math.Max(out.MaxY, y)
	}
	return out, nil
}
