package ndvi

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Options configures the query pipeline.
type Options struct {
	Search   SearchOptions
	RedAsset string
	NIRAsset string

	// Timeout bounds one whole query (catalog search, signing and raster reads).
	// Zero disables the deadline.
	Timeout time.Duration
}

// DefaultOptions returns the Sentinel-2 L2A pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Search:   DefaultSearchOptions(),
		RedAsset: "B04",
		NIRAsset: "B08",
		Timeout:  2 * time.Minute,
	}
}

// Service runs the search, select, read and compute pipeline for one query.
type Service struct {
	catalog Catalog
	signer  AssetSigner
	bands   BandReader
	opts    Options
}

// NewService creates a new Service. signer may be nil when catalog hrefs are
// already fetchable.
func NewService(catalog Catalog, signer AssetSigner, bands BandReader, opts Options) *Service {
	return &Service{
		catalog: catalog,
		signer:  signer,
		bands:   bands,
		opts:    opts,
	}
}

// Query finds the least cloudy scene matching q and returns NDVI statistics over
// the AOI bounding box. Errors are *Error values tagged with a Kind.
func (s *Service) Query(ctx context.Context, q Query) (Result, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	params, err := BuildSearch(q, s.opts.Search)
	if err != nil {
		return Result{}, err
	}

	log.Printf("INFO: searching %v between %s and %s", params.Collections,
		params.Start.Format(time.RFC3339), params.End.Format(time.RFC3339))

	scenes, err := s.catalog.Search(ctx, params)
	if err != nil {
		return Result{}, newError(KindUpstream, "catalog search", err)
	}

	scene, ok := SelectLeastCloudy(scenes, s.opts.Search.MaxCloudCover)
	if !ok {
		log.Printf("ERROR: %v (%d candidate scenes)", ErrNotFound, len(scenes))
		return Result{}, newError(KindNotFound, "", ErrNotFound)
	}
	log.Printf("INFO: selected scene %s with cloud cover %.2f", scene.ID, *scene.CloudCover)

	redHref, err := s.assetHref(ctx, scene, s.opts.RedAsset)
	if err != nil {
		return Result{}, err
	}
	nirHref, err := s.assetHref(ctx, scene, s.opts.NIRAsset)
	if err != nil {
		return Result{}, err
	}

	red, nir, err := s.bands.ReadBands(ctx, redHref, nirHref, q.AOI.Bounds())
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, newError(KindUpstream, "read bands", err)
		}
		return Result{}, newError(KindProcessing, "read bands", err)
	}
	log.Printf("DEBUG: read %dx%d window from scene %s", red.Rows, red.Cols, scene.ID)

	index, err := Index(red, nir)
	if err != nil {
		return Result{}, err
	}
	st := Summarize(index.Data)

	res := Result{
		SceneID:     scene.ID,
		CloudCover:  *scene.CloudCover,
		Acquired:    scene.Acquired.UTC(),
		ValidPixels: st.Valid,
		TotalPixels: st.Total,
	}
	if st.Valid > 0 {
		mean, std := st.Mean, st.Std
		res.MeanNDVI = &mean
		res.StdNDVI = &std
	} else {
		log.Printf("INFO: scene %s has no valid NDVI pixels over %d", scene.ID, st.Total)
	}
	return res, nil
}

func (s *Service) assetHref(ctx context.Context, scene Scene, key string) (string, error) {
	href, ok := scene.Assets[key]
	if !ok || href == "" {
		return "", newError(KindProcessing, "select asset", fmt.Errorf("scene %s has no %q asset", scene.ID, key))
	}
	if s.signer == nil {
		return href, nil
	}

	signed, err := s.signer.Sign(ctx, href)
	if err != nil {
		return "", newError(KindUpstream, "sign asset", err)
	}
	return signed, nil
}
