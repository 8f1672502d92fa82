package stac

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

const blobHostSuffix = ".blob.core.windows.net"

// tokenMargin is how long before expiry a cached token stops being handed out.
const tokenMargin = 5 * time.Minute

// Signer implements ndvi.AssetSigner with Planetary Computer SAS tokens. Tokens are
// scoped to a storage account and container and cached in a ndvi.TokenStore.
type Signer struct {
	tokenURL        string
	subscriptionKey string
	store           ndvi.TokenStore
	httpCfg         HTTPClientConfig
	circuit         *gobreaker.CircuitBreaker
	now             func() time.Time
}

// NewSigner creates a Signer that requests tokens from tokenURL/{account}/{container}.
func NewSigner(client *http.Client, tokenURL, subscriptionKey string, store ndvi.TokenStore) *Signer {
	return &Signer{
		tokenURL:        strings.TrimRight(tokenURL, "/"),
		subscriptionKey: subscriptionKey,
		store:           store,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("sas-token"),
		now:     time.Now,
	}
}

// Sign appends a SAS token to Azure blob hrefs. Other hosts and hrefs that are
// already signed are returned unchanged.
func (s *Signer) Sign(ctx context.Context, href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse asset href: %w", err)
	}
	if !strings.HasSuffix(u.Host, blobHostSuffix) {
		return href, nil
	}
	if u.Query().Has("sig") {
		return href, nil
	}

	account := strings.TrimSuffix(u.Host, blobHostSuffix)
	container, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if account == "" || container == "" {
		return "", fmt.Errorf("cannot derive storage container from %q", href)
	}

	token, err := s.token(ctx, account, container)
	if err != nil {
		return "", err
	}

	if u.RawQuery == "" {
		u.RawQuery = token.Value
	} else {
		u.RawQuery += "&" + token.Value
	}
	return u.String(), nil
}

func (s *Signer) token(ctx context.Context, account, container string) (ndvi.SASToken, error) {
	key := account + "/" + container

	if s.store != nil {
		cached, ok, err := s.store.GetToken(ctx, key)
		if err != nil {
			log.Printf("ERROR: token cache lookup for %s: %v", key, err)
		} else if ok && cached.Valid(s.now(), tokenMargin) {
			return cached, nil
		}
	}

	token, err := s.fetchToken(ctx, key)
	if err != nil {
		return ndvi.SASToken{}, err
	}

	if s.store != nil {
		if err := s.store.SaveToken(ctx, key, token); err != nil {
			log.Printf("ERROR: token cache save for %s: %v", key, err)
		}
	}
	return token, nil
}

func (s *Signer) fetchToken(ctx context.Context, key string) (ndvi.SASToken, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, s.tokenURL+"/"+key, nil)
		if err != nil {
			return nil, err
		}
		if s.subscriptionKey != "" {
			req.Header.Set("Ocp-Apim-Subscription-Key", s.subscriptionKey)
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return ndvi.SASToken{}, fmt.Errorf("sas token %s: %w", key, err)
	}
	defer resp.Body.Close()

	var token ndvi.SASToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return ndvi.SASToken{}, fmt.Errorf("decode sas token: %w", err)
	}
	if token.Value == "" {
		return ndvi.SASToken{}, fmt.Errorf("sas token %s: empty token in response", key)
	}
	return token, nil
}
