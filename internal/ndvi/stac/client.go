package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

// DatetimeLayout is the instant format sent in search datetime ranges.
const DatetimeLayout = "2006-01-02T15:04:05Z"

// Client implements ndvi.Catalog against a STAC API item search endpoint.
type Client struct {
	baseURL  string
	maxPages int
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewClient creates a search client for the STAC API rooted at baseURL.
// maxPages caps how many result pages are followed per search.
func NewClient(client *http.Client, baseURL string, maxPages int) *Client {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("stac-search"),
	}
}

type itemCollection struct {
	Type     string `json:"type"`
	Features []item `json:"features"`
	Links    []link `json:"links"`
}

type item struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Properties struct {
		Datetime   string   `json:"datetime"`
		CloudCover *float64 `json:"eo:cloud_cover"`
	} `json:"properties"`
	Assets map[string]asset `json:"assets"`
}

type asset struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

type link struct {
	Rel    string         `json:"rel"`
	Href   string         `json:"href"`
	Method string         `json:"method,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
	Merge  bool           `json:"merge,omitempty"`
}

// pageRequest is one search call: POST with a JSON body, or GET when body is nil.
type pageRequest struct {
	method string
	url    string
	body   map[string]any
}

// SearchBody renders params as a STAC API item search request body.
func SearchBody(params ndvi.SearchParams) (map[string]any, error) {
	body := map[string]any{
		"collections": params.Collections,
		"datetime":    params.Start.UTC().Format(DatetimeLayout) + "/" + params.End.UTC().Format(DatetimeLayout),
		"query": map[string]any{
			"eo:cloud_cover": map[string]float64{"lt": params.MaxCloudCover},
		},
	}
	if params.Limit > 0 {
		body["limit"] = params.Limit
	}
	if params.Intersects != nil {
		geo, err := params.Intersects.MarshalGeoJSON()
		if err != nil {
			return nil, fmt.Errorf("encode intersects: %w", err)
		}
		body["intersects"] = json.RawMessage(geo)
	}
	return body, nil
}

// Search runs an item search and follows "next" links up to the page cap.
func (c *Client) Search(ctx context.Context, params ndvi.SearchParams) ([]ndvi.Scene, error) {
	body, err := SearchBody(params)
	if err != nil {
		return nil, err
	}

	page := &pageRequest{method: http.MethodPost, url: c.baseURL + "/search", body: body}
	var scenes []ndvi.Scene

	for n := 1; page != nil; n++ {
		if n > c.maxPages {
			log.Printf("INFO: stac search stopped after %d pages with %d items", c.maxPages, len(scenes))
			break
		}

		coll, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, it := range coll.Features {
			scenes = append(scenes, it.toScene())
		}
		page = nextPage(coll.Links, page)
	}

	log.Printf("DEBUG: stac search returned %d items", len(scenes))
	return scenes, nil
}

func (c *Client) fetchPage(ctx context.Context, page *pageRequest) (*itemCollection, error) {
	var payload []byte
	if page.body != nil {
		var err error
		if payload, err = json.Marshal(page.body); err != nil {
			return nil, fmt.Errorf("marshal search body: %w", err)
		}
	}

	buildRequest := func() (*http.Request, error) {
		var req *http.Request
		var err error
		if page.method == http.MethodPost {
			req, err = http.NewRequest(http.MethodPost, page.url, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
		} else {
			req, err = http.NewRequest(http.MethodGet, page.url, nil)
			if err != nil {
				return nil, err
			}
		}
		req.Header.Set("Accept", "application/geo+json, application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("stac search %s: %w", page.url, err)
	}
	defer resp.Body.Close()

	var coll itemCollection
	if err := json.NewDecoder(resp.Body).Decode(&coll); err != nil {
		return nil, fmt.Errorf("decode stac response: %w", err)
	}
	return &coll, nil
}

// nextPage builds the follow-up request from a "next" link, merging bodies when
// the link asks for it.
func nextPage(links []link, prev *pageRequest) *pageRequest {
	for _, l := range links {
		if l.Rel != "next" || l.Href == "" {
			continue
		}
		if !strings.EqualFold(l.Method, http.MethodPost) {
			return &pageRequest{method: http.MethodGet, url: l.Href}
		}

		body := l.Body
		if l.Merge {
			body = make(map[string]any, len(prev.body)+len(l.Body))
			for k, v := range prev.body {
				body[k] = v
			}
			for k, v := range l.Body {
				body[k] = v
			}
		}
		if body == nil {
			body = prev.body
		}
		return &pageRequest{method: http.MethodPost, url: l.Href, body: body}
	}
	return nil
}

func (it item) toScene() ndvi.Scene {
	acquired, err := time.Parse(time.RFC3339, it.Properties.Datetime)
	if err != nil {
		log.Printf("ERROR: item %s has unparsable datetime %q: %v", it.ID, it.Properties.Datetime, err)
		acquired = time.Time{}
	}

	assets := make(map[string]string, len(it.Assets))
	for key, a := range it.Assets {
		assets[key] = a.Href
	}

	return ndvi.Scene{
		ID:         it.ID,
		Collection: it.Collection,
		Acquired:   acquired.UTC(),
		CloudCover: it.Properties.CloudCover,
		Assets:     assets,
	}
}
