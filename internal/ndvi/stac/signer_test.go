package stac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ndvi-service/internal/ndvi"
	"github.com/i474232898/ndvi-service/internal/store"
)

func newTokenServer(t *testing.T, expiry time.Time, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/token/sentinel2l2a01/sentinel2-l2", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		json.NewEncoder(w).Encode(map[string]any{
			"msft:expiry": expiry.Format(time.RFC3339),
			"token":       "st=2023&se=2023&sp=rl&sig=abc",
		})
	}))
}

const blobHref = "https://sentinel2l2a01.blob.core.windows.net/sentinel2-l2/10/S/FH/2023/06/03/B04_10m.tif"

func newTestSigner(url string, tokens ndvi.TokenStore, now time.Time) *Signer {
	s := NewSigner(&http.Client{Timeout: 5 * time.Second}, url+"/token/", "secret", tokens)
	s.httpCfg.Backoff = fastBackoff
	s.now = func() time.Time { return now }
	return s
}

func TestSign_AppendsAndCachesToken(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	var calls int32
	srv := newTokenServer(t, now.Add(time.Hour), &calls)
	defer srv.Close()

	tokens := store.NewMemoryStore(0)
	s := newTestSigner(srv.URL, tokens, now)

	signed, err := s.Sign(context.Background(), blobHref)
	require.NoError(t, err)
	assert.Equal(t, blobHref+"?st=2023&se=2023&sp=rl&sig=abc", signed)

	nir := "https://sentinel2l2a01.blob.core.windows.net/sentinel2-l2/10/S/FH/2023/06/03/B08_10m.tif"
	_, err = s.Sign(context.Background(), nir)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second asset in the same container reuses the token")
	assert.Equal(t, 1, tokens.Len())
}

func TestSign_RefreshesNearExpiry(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	var calls int32
	srv := newTokenServer(t, now.Add(time.Hour), &calls)
	defer srv.Close()

	tokens := store.NewMemoryStore(0)
	require.NoError(t, tokens.SaveToken(context.Background(), "sentinel2l2a01/sentinel2-l2",
		ndvi.SASToken{Value: "old", Expiry: now.Add(2 * time.Minute)}))

	signed, err := newTestSigner(srv.URL, tokens, now).Sign(context.Background(), blobHref)
	require.NoError(t, err)
	assert.Contains(t, signed, "sig=abc")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSign_PassThrough(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, time.Now().Add(time.Hour), &calls)
	defer srv.Close()

	s := newTestSigner(srv.URL, nil, time.Now())
	for _, href := range []string{
		"https://sentinel-s2-l2a.s3.amazonaws.com/tiles/10/S/FH/B04.jp2",
		blobHref + "?st=x&se=y&sig=z",
		"/data/local/B04.tif",
	} {
		got, err := s.Sign(context.Background(), href)
		require.NoError(t, err)
		assert.Equal(t, href, got)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSign_TokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestSigner(srv.URL, nil, time.Now()).Sign(context.Background(), blobHref)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpected)
}

func TestSign_UnrelatedQueryIsStillSigned(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	var calls int32
	srv := newTokenServer(t, now.Add(time.Hour), &calls)
	defer srv.Close()

	href := blobHref + "?response-content-type=image%2Ftiff&use=preview"
	signed, err := newTestSigner(srv.URL, nil, now).Sign(context.Background(), href)
	require.NoError(t, err)
	assert.Equal(t, href+"&st=2023&se=2023&sp=rl&sig=abc", signed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
