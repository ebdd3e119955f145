package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	remoteDefaultTimeout    = 30 * time.Second
	remoteMaxResponseBody   = 8 << 20
	remoteSearchEndpoint    = "/v1/search"
	remoteAssetEndpointRoot = "/v1/assets/"
)

// remoteAPIError captures a non-2xx response from a remote photo API,
// normalizing both JSON and plain-text error bodies.
type remoteAPIError struct {
	StatusCode int
	Message    string
}

func (e *remoteAPIError) Error() string {
	return fmt.Sprintf("remote source: API error (status=%d): %s", e.StatusCode, e.Message)
}

// remoteSearchResult is the minimal shape expected back from the search
// endpoint: a list of assets with optional declared pixel dimensions.
type remoteSearchResult struct {
	Items []struct {
		ID     string `json:"id"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"items"`
}

// remoteAdapter fetches image assets from a remote photo API, filtered by an
// opaque caller-supplied filter blob, authenticating via a per-source bearer
// token or OAuth access token.
type remoteAdapter struct {
	sourceID  string
	baseURL   string
	token     string
	filter    map[string]any
	blacklist Blacklist
	http      *http.Client

	mu     sync.Mutex
	assets []Asset
}

// NewRemoteAdapter builds a remote-photo-api source. Required params:
// "base_url" and one of "bearer_token"/"oauth_token". Optional "filter" is
// passed through verbatim as the search request's opaque filter blob.
func NewRemoteAdapter(params map[string]any, blacklist Blacklist, sourceID string) (Adapter, error) {
	baseURL, _ := params["base_url"].(string)
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote source requires a non-empty 'base_url' parameter")
	}

	token, _ := params["bearer_token"].(string)
	if token == "" {
		token, _ = params["oauth_token"].(string)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("remote source requires 'bearer_token' or 'oauth_token'")
	}

	filter, _ := params["filter"].(map[string]any)

	return &remoteAdapter{
		sourceID:  sourceID,
		baseURL:   baseURL,
		token:     token,
		filter:    filter,
		blacklist: blacklist,
		http:      &http.Client{Timeout: remoteDefaultTimeout},
	}, nil
}

func (a *remoteAdapter) List(ctx context.Context) ([]Asset, error) {
	payload := map[string]any{"type": "image"}
	for k, v := range a.filter {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote source: encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+remoteSearchEndpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("remote source: build search request: %w", err)
	}
	a.setHeaders(req)

	raw, err := a.do(req)
	if err != nil {
		return nil, err
	}

	var result remoteSearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("remote source: decode search response: %w", err)
	}

	assets := make([]Asset, 0, len(result.Items))
	for _, item := range result.Items {
		assets = append(assets, Asset{ID: item.ID, Orientation: orientationFromAPIDims(item.Width, item.Height)})
	}

	a.mu.Lock()
	a.assets = assets
	a.mu.Unlock()
	return assets, nil
}

func (a *remoteAdapter) Fetch(ctx context.Context, assetID string) ([]byte, Orientation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+remoteAssetEndpointRoot+assetID, nil)
	if err != nil {
		return nil, OrientationUnknown, fmt.Errorf("remote source: build fetch request: %w", err)
	}
	a.setHeaders(req)

	raw, err := a.do(req)
	if err != nil {
		return nil, OrientationUnknown, err
	}
	return raw, a.cachedOrientation(assetID), nil
}

func (a *remoteAdapter) HintOrientation(ctx context.Context, assetID string) (Orientation, error) {
	return a.cachedOrientation(assetID), nil
}

func (a *remoteAdapter) BlacklistAdd(ctx context.Context, assetID string) error {
	if a.blacklist == nil {
		return nil
	}
	return a.blacklist.Add(ctx, a.sourceID, assetID)
}

func (a *remoteAdapter) cachedOrientation(assetID string) Orientation {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, asset := range a.assets {
		if asset.ID == assetID {
			return asset.Orientation
		}
	}
	return OrientationUnknown
}

func (a *remoteAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (a *remoteAdapter) do(req *http.Request) ([]byte, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote source: execute request: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, remoteMaxResponseBody)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("remote source: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &remoteAPIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

func orientationFromAPIDims(w, h int) Orientation {
	switch {
	case w == 0 || h == 0:
		return OrientationUnknown
	case w > h:
		return OrientationLandscape
	case h > w:
		return OrientationPortrait
	default:
		return OrientationUnknown
	}
}

func init() {
	if err := DefaultRegistry.Register("remote-photo-api", NewRemoteAdapter); err != nil {
		panic(fmt.Sprintf("failed to register remote source: %v", err))
	}
}
