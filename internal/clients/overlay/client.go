// Package overlay fetches trail network feeds published as KML and turns
// them into snap candidates for the editor. Feeds change rarely, so parsed
// networks are cached per URL with a TTL.
package overlay

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

const requestTimeout = 30 * time.Second

// DefaultTTL is how long a parsed network stays fresh.
const DefaultTTL = 10 * time.Minute

// HTTPDoer interface for HTTP client abstraction
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Network is the snap-candidate view of an overlay feed: trail polylines
// and standalone waypoints.
type Network struct {
	Trails    [][]geo.Point
	Waypoints []geo.Point
}

// Client downloads and parses KML overlay feeds.
type Client struct {
	httpClient HTTPDoer
	cache      *feedCache
	ttl        time.Duration
	log        *zap.Logger
}

// NewClient creates an overlay client with the default HTTP client and TTL.
func NewClient(log *zap.Logger) *Client {
	return NewClientWithHTTPDoer(log, &http.Client{Timeout: requestTimeout}, DefaultTTL)
}

// NewClientWithHTTPDoer creates an overlay client with a custom HTTP doer
// and cache TTL.
func NewClientWithHTTPDoer(log *zap.Logger, doer HTTPDoer, ttl time.Duration) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: doer,
		cache:      newFeedCache(),
		ttl:        ttl,
		log:        log,
	}
}

// FetchNetwork returns the trail network behind a feed URL, from cache when
// fresh.
func (c *Client) FetchNetwork(ctx context.Context, url string) (*Network, error) {
	if network, ok := c.cache.get(url); ok {
		return network, nil
	}

	data, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	network, err := parseKML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KML from %s: %w", url, err)
	}

	c.log.Debug("parsed overlay feed",
		zap.String("url", url),
		zap.Int("trails", len(network.Trails)),
		zap.Int("waypoints", len(network.Waypoints)))

	c.cache.cleanupStale()
	c.cache.set(url, network, c.ttl)
	return network, nil
}

// Invalidate drops the cached network for a URL so the next fetch hits the
// feed again.
func (c *Client) Invalidate(url string) {
	c.cache.delete(url)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download KML: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d downloading KML from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// kmlRoot mirrors the subset of KML the overlay feeds use. Geometry can sit
// on the document, inside nested folders, or inside a MultiGeometry.
type kmlRoot struct {
	XMLName  xml.Name   `xml:"kml"`
	Document *kmlFolder `xml:"Document"`
}

type kmlFolder struct {
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string        `xml:"name"`
	Point         *kmlGeometry  `xml:"Point"`
	LineString    *kmlGeometry  `xml:"LineString"`
	MultiGeometry *kmlMultiGeom `xml:"MultiGeometry"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlMultiGeom struct {
	LineStrings []kmlGeometry `xml:"LineString"`
	Points      []kmlGeometry `xml:"Point"`
}

func parseKML(data []byte) (*Network, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Document == nil {
		return nil, fmt.Errorf("KML has no Document element")
	}

	network := &Network{}
	collectFolder(root.Document, network)
	return network, nil
}

func collectFolder(folder *kmlFolder, network *Network) {
	for _, placemark := range folder.Placemarks {
		collectPlacemark(&placemark, network)
	}
	for i := range folder.Folders {
		collectFolder(&folder.Folders[i], network)
	}
}

func collectPlacemark(placemark *kmlPlacemark, network *Network) {
	if placemark.Point != nil {
		if points := parseCoordinates(placemark.Point.Coordinates); len(points) > 0 {
			network.Waypoints = append(network.Waypoints, points[0])
		}
	}
	if placemark.LineString != nil {
		if points := parseCoordinates(placemark.LineString.Coordinates); len(points) >= 2 {
			network.Trails = append(network.Trails, points)
		}
	}
	if placemark.MultiGeometry != nil {
		for _, line := range placemark.MultiGeometry.LineStrings {
			if points := parseCoordinates(line.Coordinates); len(points) >= 2 {
				network.Trails = append(network.Trails, points)
			}
		}
		for _, point := range placemark.MultiGeometry.Points {
			if points := parseCoordinates(point.Coordinates); len(points) > 0 {
				network.Waypoints = append(network.Waypoints, points[0])
			}
		}
	}
}

// parseCoordinates decodes the KML coordinate list format: whitespace
// separated tuples of "longitude,latitude[,altitude]". Malformed tuples are
// skipped rather than failing the whole feed.
func parseCoordinates(raw string) []geo.Point {
	var points []geo.Point
	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lng, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		point := geo.Point{Lat: lat, Lng: lng}
		if len(parts) >= 3 {
			if alt, err := strconv.ParseFloat(parts[2], 64); err == nil {
				point.Alt = alt
			}
		}
		if geo.IsValid(point) {
			points = append(points, point)
		}
	}
	return points
}
