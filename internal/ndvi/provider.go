package ndvi

import (
	"context"
	"time"

	"github.com/i474232898/ndvi-service/internal/raster"
)

// Catalog abstracts a STAC-compatible search service.
type Catalog interface {
	Search(ctx context.Context, params SearchParams) ([]Scene, error)
}

// AssetSigner turns a catalog href into a directly fetchable one.
type AssetSigner interface {
	Sign(ctx context.Context, href string) (string, error)
}

// BandReader reads the red and near-infrared windows covering bounds (lon/lat)
// from two remote raster assets. Both rasters are released before it returns.
type BandReader interface {
	ReadBands(ctx context.Context, redHref, nirHref string, bounds raster.Bounds) (red, nir raster.Grid, err error)
}

// SASToken is a shared access signature for one storage container.
type SASToken struct {
	Value  string    `json:"token"`
	Expiry time.Time `json:"msft:expiry"`
}

// Valid reports whether the token is still usable at now, keeping margin in reserve.
func (t SASToken) Valid(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Add(margin).Before(t.Expiry)
}

// TokenStore is the contract the in-memory and Redis token caches satisfy.
type TokenStore interface {
	GetToken(ctx context.Context, key string) (SASToken, bool, error)
	SaveToken(ctx context.Context, key string, token SASToken) error
}
