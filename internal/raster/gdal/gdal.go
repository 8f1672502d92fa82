// Package gdal opens remote rasters through GDAL's /vsicurl/ virtual file system,
// so windowed reads only fetch the byte ranges they need.
package gdal

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/godal"

	"github.com/i474232898/ndvi-service/internal/raster"
)

// wgs84 is lon/lat order regardless of the GDAL axis mapping defaults.
const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

var registerOnce sync.Once

// Opener implements raster.Opener on top of GDAL.
type Opener struct {
	config []string
}

// NewOpener registers GDAL drivers and returns an Opener whose HTTP reads give up
// after httpTimeout.
func NewOpener(httpTimeout time.Duration) *Opener {
	registerOnce.Do(godal.RegisterAll)

	secs := int(httpTimeout.Seconds())
	if secs <= 0 {
		secs = 30
	}
	return &Opener{
		config: []string{
			"GDAL_DISABLE_READDIR_ON_OPEN=EMPTY_DIR",
			"CPL_VSIL_CURL_USE_HEAD=NO",
			fmt.Sprintf("GDAL_HTTP_TIMEOUT=%d", secs),
			fmt.Sprintf("GDAL_HTTP_CONNECTTIMEOUT=%d", secs),
		},
	}
}

// VSIPath maps http(s) locators onto /vsicurl/; anything else is passed to GDAL as is.
func VSIPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

// Open opens href read-only.
func (o *Opener) Open(ctx context.Context, href string) (raster.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := godal.Open(VSIPath(href), godal.ConfigOption(o.config...))
	if err != nil {
		return nil, fmt.Errorf("gdal open: %w", err)
	}
	return &dataset{ds: ds, config: o.config}, nil
}

type dataset struct {
	ds     *godal.Dataset
	config []string
}

func (d *dataset) Size() (int, int) {
	st := d.ds.Structure()
	return st.SizeX, st.SizeY
}

func (d *dataset) GeoTransform() (raster.GeoTransform, error) {
	gt, err := d.ds.GeoTransform()
	if err != nil {
		return raster.GeoTransform{}, err
	}
	return raster.GeoTransform(gt), nil
}

func (d *dataset) ProjectLonLat(xs, ys []float64) error {
	wkt := d.ds.Projection()
	if wkt == "" {
		return fmt.Errorf("raster has no coordinate reference system")
	}

	src, err := godal.NewSpatialRefFromProj4(wgs84)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return err
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return err
	}
	defer tr.Close()

	ok := make([]bool, len(xs))
	if err := tr.TransformEx(xs, ys, nil, ok); err != nil {
		return err
	}
	for i, good := range ok {
		if !good {
			xs[i], ys[i] = math.NaN(), math.NaN()
		}
	}
	return nil
}

// ReadWindow reads band (1-based) over w. Nodata samples become NaN.
func (d *dataset) ReadWindow(band int, w raster.Window) (raster.Grid, error) {
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return raster.Grid{}, fmt.Errorf("band %d out of range (raster has %d)", band, len(bands))
	}
	b := bands[band-1]

	grid := raster.NewGrid(w.Height, w.Width)
	if err := b.Read(w.ColOff, w.RowOff, grid.Data, w.Width, w.Height, godal.ConfigOption(d.config...)); err != nil {
		return raster.Grid{}, fmt.Errorf("gdal read: %w", err)
	}

	if nodata, ok := b.NoData(); ok {
		for i, v := range grid.Data {
			if v == nodata {
				grid.Data[i] = math.NaN()
			}
		}
	}
	return grid, nil
}

func (d *dataset) Close() error {
	return d.ds.Close()
}
