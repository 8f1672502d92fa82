package raster

import (
	"context"
	"fmt"
	"log"
)

// Dataset is an open raster resource.
type Dataset interface {
	Projector

	// Size returns the raster width and height in pixels.
	Size() (width, height int)
	GeoTransform() (GeoTransform, error)
	// ReadWindow reads one 1-based band over w as float64 samples.
	ReadWindow(band int, w Window) (Grid, error)
	Close() error
}

// Opener opens rasters by locator (URL or path).
type Opener interface {
	Open(ctx context.Context, href string) (Dataset, error)
}

// Reader reads matching red and near-infrared windows from two single-band assets.
type Reader struct {
	opener  Opener
	densify int
}

// NewReader creates a Reader. densify controls bounds reprojection accuracy.
func NewReader(opener Opener, densify int) *Reader {
	return &Reader{opener: opener, densify: densify}
}

// ReadBands opens both rasters, computes the AOI window from the red raster's CRS and
// transform, and reads band 1 of each over that window. Both rasters are closed before
// returning, whatever the outcome.
func (r *Reader) ReadBands(ctx context.Context, redHref, nirHref string, bounds Bounds) (red, nir Grid, err error) {
	if bounds.Empty() {
		return Grid{}, Grid{}, fmt.Errorf("%w: degenerate bounds %+v", ErrEmptyWindow, bounds)
	}

	redDS, err := r.opener.Open(ctx, redHref)
	if err != nil {
		return Grid{}, Grid{}, fmt.Errorf("open red band: %w", err)
	}
	defer closeDataset(redDS, "red", &err)

	nirDS, err := r.opener.Open(ctx, nirHref)
	if err != nil {
		return Grid{}, Grid{}, fmt.Errorf("open nir band: %w", err)
	}
	defer closeDataset(nirDS, "nir", &err)

	window, err := r.window(redDS, bounds)
	if err != nil {
		return Grid{}, Grid{}, err
	}
	if w, h := nirDS.Size(); !window.Contains(w, h) {
		return Grid{}, Grid{}, fmt.Errorf("window %+v exceeds nir raster %dx%d", window, w, h)
	}

	if err := ctx.Err(); err != nil {
		return Grid{}, Grid{}, err
	}
	red, err = redDS.ReadWindow(1, window)
	if err != nil {
		return Grid{}, Grid{}, fmt.Errorf("read red band: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Grid{}, Grid{}, err
	}
	nir, err = nirDS.ReadWindow(1, window)
	if err != nil {
		return Grid{}, Grid{}, fmt.Errorf("read nir band: %w", err)
	}

	return red, nir, nil
}

func (r *Reader) window(ds Dataset, bounds Bounds) (Window, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return Window{}, fmt.Errorf("geotransform: %w", err)
	}
	projected, err := TransformBounds(ds, bounds, r.densify)
	if err != nil {
		return Window{}, err
	}
	width, height := ds.Size()
	return WindowFromBounds(projected, gt, width, height)
}

func closeDataset(ds Dataset, name string, err *error) {
	cerr := ds.Close()
	if cerr == nil {
		return
	}
	if *err == nil {
		*err = fmt.Errorf("close %s band: %w", name, cerr)
		return
	}
	log.Printf("ERROR: close %s band: %v", name, cerr)
}
