// Package routing wraps the remote routing engine. The client never leaves
// a segment without geometry: remote failure degrades to an offline path
// search over cached vector tiles, and failing that, to a straight line
// between the two waypoints with a single user-visible warning.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

// requestTimeout bounds one remote routing call; past it the offline
// fallback chain takes over.
const requestTimeout = 4500 * time.Millisecond

// Notifier is the slice of the toast surface this client needs.
type Notifier interface {
	Warning(message string)
}

// HTTPDoer interface for HTTP client abstraction
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the remote routing engine and applies the degradation chain.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	offline    *OfflineRouter
	notifier   Notifier
	log        *zap.Logger
}

// NewClient creates a routing client. offline may be nil when no cached
// tiles are available; notifier may be nil to suppress warnings.
func NewClient(baseURL string, offline *OfflineRouter, notifier Notifier, log *zap.Logger) *Client {
	return NewClientWithHTTPDoer(baseURL, offline, notifier, log, &http.Client{
		Timeout: requestTimeout,
	})
}

// NewClientWithHTTPDoer creates a routing client with a custom HTTP doer.
func NewClientWithHTTPDoer(baseURL string, offline *OfflineRouter, notifier Notifier, log *zap.Logger, doer HTTPDoer) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: doer,
		offline:    offline,
		notifier:   notifier,
		log:        log,
	}
}

type routeRequest struct {
	From    geo.Point `json:"from"`
	To      geo.Point `json:"to"`
	Profile string    `json:"profile"`
}

type routeResponse struct {
	Polyline string `json:"polyline"`
}

func profileFor(t route.RoutingType) string {
	switch t {
	case route.RoutingBike:
		return "bike"
	case route.Routing4WD:
		return "4wd"
	default:
		return "hike"
	}
}

// GetRoute computes the path between two waypoints. It always resolves with
// at least [start, end]; the returned error is informational only and is
// never paired with an unusable result.
func (c *Client) GetRoute(ctx context.Context, start, end geo.Point, routingType route.RoutingType) ([]geo.Point, error) {
	if routingType == route.RoutingNone {
		return []geo.Point{start, end}, nil
	}

	points, err := c.fetchRemote(ctx, start, end, routingType)
	if err == nil {
		return points, nil
	}
	c.log.Warn("remote routing failed, degrading",
		zap.String("profile", profileFor(routingType)),
		zap.Error(err))

	if c.offline != nil {
		if offline, offlineErr := c.offline.Route(start, end); offlineErr == nil {
			return offline, nil
		} else {
			c.log.Debug("offline routing unavailable", zap.Error(offlineErr))
		}
	}

	if c.notifier != nil {
		c.notifier.Warning("Routing is unavailable, using a straight line")
	}
	return []geo.Point{start, end}, nil
}

func (c *Client) fetchRemote(ctx context.Context, start, end geo.Point, routingType route.RoutingType) ([]geo.Point, error) {
	body, err := json.Marshal(routeRequest{From: start, To: end, Profile: profileFor(routingType)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routing", bytes.NewReader(body))
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
		return nil, fmt.Errorf("routing engine returned %d: %s", resp.StatusCode, payload)
	}

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	coords, _, err := polyline.DecodeCoords([]byte(decoded.Polyline))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("routing engine returned %d points", len(coords))
	}

	points := make([]geo.Point, len(coords))
	for i, coord := range coords {
		points[i] = geo.Point{Lat: coord[0], Lng: coord[1]}
		if !geo.IsValid(points[i]) {
			return nil, fmt.Errorf("routing engine returned invalid coordinates")
		}
	}
	return points, nil
}
