// Package elevation fills in terrain heights for route points. Elevation is
// best effort: a failed lookup leaves the points unchanged rather than
// failing the edit that triggered it.
package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

const requestTimeout = 10 * time.Second

// HTTPDoer interface for HTTP client abstraction
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the elevation service for points that have no height yet.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	log        *zap.Logger
}

// NewClient creates an elevation client with a default HTTP client.
func NewClient(baseURL string, log *zap.Logger) *Client {
	return NewClientWithHTTPDoer(baseURL, log, &http.Client{
		Timeout: requestTimeout,
	})
}

// NewClientWithHTTPDoer creates an elevation client with a custom HTTP doer.
func NewClientWithHTTPDoer(baseURL string, log *zap.Logger, doer HTTPDoer) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: doer,
		log:        log,
	}
}

type heightRequest struct {
	Points []geo.Point `json:"points"`
}

type heightResponse struct {
	Heights []float64 `json:"heights"`
}

// UpdateHeights fills the Alt field of every point that is missing one and
// returns the completed slice. Points that already carry an elevation are
// not sent to the service.
func (c *Client) UpdateHeights(ctx context.Context, points []geo.Point) ([]geo.Point, error) {
	updated := append([]geo.Point(nil), points...)

	var missing []int
	for i, p := range updated {
		if p.Alt == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return updated, nil
	}

	query := make([]geo.Point, len(missing))
	for i, idx := range missing {
		query[i] = geo.Point{Lat: updated[idx].Lat, Lng: updated[idx].Lng}
	}

	heights, err := c.fetchHeights(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(heights) != len(missing) {
		return nil, fmt.Errorf("elevation service returned %d heights for %d points", len(heights), len(missing))
	}

	for i, idx := range missing {
		updated[idx].Alt = heights[i]
	}
	return updated, nil
}

func (c *Client) fetchHeights(ctx context.Context, query []geo.Point) ([]float64, error) {
	body, err := json.Marshal(heightRequest{Points: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/elevation", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevation service returned %d: %s", resp.StatusCode, payload)
	}

	var decoded heightResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return decoded.Heights, nil
}
