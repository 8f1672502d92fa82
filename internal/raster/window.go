package raster

import (
	"errors"
	"fmt"
	"math"
)

// GeoTransform is a GDAL-style affine transform:
// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5].
type GeoTransform [6]float64

// Window is a pixel rectangle inside a raster.
type Window struct {
	ColOff int
	RowOff int
	Width  int
	Height int
}

var (
	ErrEmptyWindow = errors.New("area of interest does not overlap the raster")
	ErrRotated     = errors.New("rotated or sheared geotransforms are not supported")
)

// pixelEps absorbs floating point noise when bounds fall exactly on pixel edges.
const pixelEps = 1e-6

// WindowFromBounds returns the smallest pixel window covering b (in the raster CRS),
// clipped to a width x height raster.
func WindowFromBounds(b Bounds, gt GeoTransform, width, height int) (Window, error) {
	if gt[2] != 0 || gt[4] != 0 {
		return Window{}, ErrRotated
	}
	if gt[1] == 0 || gt[5] == 0 {
		return Window{}, fmt.Errorf("invalid geotransform %v: zero pixel size", gt)
	}

	c0 := (b.MinX - gt[0]) / gt[1]
	c1 := (b.MaxX - gt[0]) / gt[1]
	r0 := (b.MaxY - gt[3]) / gt[5]
	r1 := (b.MinY - gt[3]) / gt[5]

	colStart := int(math.Floor(math.Min(c0, c1) + pixelEps))
	colEnd := int(math.Ceil(math.Max(c0, c1) - pixelEps))
	rowStart := int(math.Floor(math.Min(r0, r1) + pixelEps))
	rowEnd := int(math.Ceil(math.Max(r0, r1) - pixelEps))

	colStart, colEnd = clamp(colStart, 0, width), clamp(colEnd, 0, width)
	rowStart, rowEnd = clamp(rowStart, 0, height), clamp(rowEnd, 0, height)

	if colEnd <= colStart || rowEnd <= rowStart {
		return Window{}, fmt.Errorf("%w: bounds %+v, raster %dx%d", ErrEmptyWindow, b, width, height)
	}

	return Window{
		ColOff: colStart,
		RowOff: rowStart,
		Width:  colEnd - colStart,
		Height: rowEnd - rowStart,
	}, nil
}

// Contains reports whether w lies fully inside a width x height raster.
func (w Window) Contains(width, height int) bool {
	return w.ColOff >= 0 && w.RowOff >= 0 && w.ColOff+w.Width <= width && w.RowOff+w.Height <= height
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
