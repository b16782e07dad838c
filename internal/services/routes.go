// Package services hosts the application-level orchestration above the
// route and editor primitives.
package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/config"
	"github.com/openhiking/trailmap/internal/lib/editor"
	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

var (
	// ErrRouteNotFound is returned for operations on unknown route IDs.
	ErrRouteNotFound = errors.New("route not found")
	// ErrRoutesTooFar is returned when a merge is requested between routes
	// whose endpoints are further apart than the merge threshold.
	ErrRoutesTooFar = errors.New("routes are too far apart to merge")
)

const defaultRouteName = "Route"

// ManagedRoute is a route in the collection together with its collection
// metadata.
type ManagedRoute struct {
	ID        string
	Route     *route.Route
	StateName editor.StateName
}

// RoutesService owns the route collection: creation with unique names and
// least-used colors, the structural operations, and the single-selection
// rule for editing states.
type RoutesService struct {
	mu     sync.RWMutex
	log    *zap.Logger
	config *config.RoutesConfig
	routes []*ManagedRoute
	byID   map[string]*ManagedRoute
}

// NewRoutesService creates an empty route collection.
func NewRoutesService(cfg *config.RoutesConfig, log *zap.Logger) *RoutesService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoutesService{
		log:    log,
		config: cfg,
		byID:   make(map[string]*ManagedRoute),
	}
}

// CreateRoute adds an empty route. The name is made unique by appending the
// smallest free numeric suffix, and the color is the least-used one in the
// palette so neighboring routes stay distinguishable.
func (s *RoutesService) CreateRoute(name string) *ManagedRoute {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = defaultRouteName
	}
	name = s.uniqueNameLocked(name)

	r := route.New()
	r.Properties.Name = name
	r.Properties.PathOptions = route.PathOptions{
		Color:   s.leastUsedColorLocked(),
		Opacity: s.config.Opacity,
		Weight:  s.config.Weight,
	}

	managed := &ManagedRoute{
		ID:        uuid.NewString(),
		Route:     r,
		StateName: editor.StateReadOnly,
	}
	s.routes = append(s.routes, managed)
	s.byID[managed.ID] = managed

	s.log.Info("route created",
		zap.String("id", managed.ID),
		zap.String("name", name),
		zap.String("color", r.Properties.PathOptions.Color))
	return managed
}

// AddRoute inserts an existing route, still applying name uniqueness.
func (s *RoutesService) AddRoute(r *route.Route) *ManagedRoute {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.Properties.Name
	if name == "" {
		name = defaultRouteName
	}
	r.Properties.Name = s.uniqueNameLocked(name)
	if r.Properties.PathOptions.Color == "" {
		r.Properties.PathOptions = route.PathOptions{
			Color:   s.leastUsedColorLocked(),
			Opacity: s.config.Opacity,
			Weight:  s.config.Weight,
		}
	}

	managed := &ManagedRoute{
		ID:        uuid.NewString(),
		Route:     r,
		StateName: editor.StateReadOnly,
	}
	s.routes = append(s.routes, managed)
	s.byID[managed.ID] = managed
	return managed
}

// GetRoute returns the route with the given ID.
func (s *RoutesService) GetRoute(id string) (*ManagedRoute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

// ListRoutes returns the routes in creation order.
func (s *RoutesService) ListRoutes() []*ManagedRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ManagedRoute, len(s.routes))
	copy(out, s.routes)
	return out
}

// DeleteRoute removes a route from the collection.
func (s *RoutesService) DeleteRoute(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}
	delete(s.byID, id)
	for i, managed := range s.routes {
		if managed.ID == id {
			s.routes = append(s.routes[:i], s.routes[i+1:]...)
			break
		}
	}
	s.log.Info("route deleted", zap.String("id", id))
	return nil
}

// ReverseRoute reverses a route in place.
func (s *RoutesService) ReverseRoute(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	managed, err := s.getLocked(id)
	if err != nil {
		return err
	}
	route.Reverse(managed.Route)
	s.log.Info("route reversed", zap.String("id", id))
	return nil
}

// SplitRoute cuts a route after the given segment. The suffix becomes a new
// route in the collection with a derived name and its own color.
func (s *RoutesService) SplitRoute(id string, segmentIndex int) (*ManagedRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	managed, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	moved, err := route.Split(managed.Route, segmentIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to split route %s: %w", id, err)
	}

	suffix := managed.Route.Clone()
	suffix.Segments = moved
	suffix.Markers = nil
	suffix.Properties.Name = s.uniqueNameLocked(managed.Route.Properties.Name)
	suffix.Properties.PathOptions.Color = s.leastUsedColorLocked()

	created := &ManagedRoute{
		ID:        uuid.NewString(),
		Route:     suffix,
		StateName: editor.StateReadOnly,
	}
	s.routes = append(s.routes, created)
	s.byID[created.ID] = created

	s.log.Info("route split",
		zap.String("id", id),
		zap.String("suffix_id", created.ID),
		zap.Int("segment", segmentIndex))
	return created, nil
}

// MergeRoutes joins the secondary route onto the primary and removes the
// secondary from the collection. The join happens at whichever primary
// endpoint is within the merge threshold of a secondary endpoint.
func (s *RoutesService) MergeRoutes(primaryID, secondaryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	primary, err := s.getLocked(primaryID)
	if err != nil {
		return err
	}
	secondary, err := s.getLocked(secondaryID)
	if err != nil {
		return err
	}

	joinAtStart, meters, err := joinGeometry(primary.Route, secondary.Route)
	if err != nil {
		return err
	}
	if meters > s.config.MergeThresholdMeters {
		return fmt.Errorf("%w: closest endpoints are %.0fm apart", ErrRoutesTooFar, meters)
	}

	if err := route.Merge(primary.Route, secondary.Route, joinAtStart); err != nil {
		return fmt.Errorf("failed to merge routes: %w", err)
	}

	delete(s.byID, secondaryID)
	for i, managed := range s.routes {
		if managed.ID == secondaryID {
			s.routes = append(s.routes[:i], s.routes[i+1:]...)
			break
		}
	}

	s.log.Info("routes merged",
		zap.String("primary", primaryID),
		zap.String("secondary", secondaryID),
		zap.Bool("at_start", joinAtStart))
	return nil
}

// GetClosestRoute finds the route whose endpoint is nearest to the given
// point, within the merge threshold. excludeID skips the route the caller
// is measuring from.
func (s *RoutesService) GetClosestRoute(p geo.Point, excludeID string) (*ManagedRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *ManagedRoute
	bestMeters := s.config.MergeThresholdMeters
	for _, managed := range s.routes {
		if managed.ID == excludeID || !managed.Route.Properties.Visible {
			continue
		}
		for _, endpoint := range routeEndpoints(managed.Route) {
			if meters := geo.Distance(p, endpoint); meters <= bestMeters {
				best = managed
				bestMeters = meters
			}
		}
	}
	return best, best != nil
}

// MakeAllPointsEditable explodes a route so every coordinate becomes a
// draggable waypoint.
func (s *RoutesService) MakeAllPointsEditable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	managed, err := s.getLocked(id)
	if err != nil {
		return err
	}
	route.MakeAllPointsEditable(managed.Route)
	return nil
}

// SetRouteState records a route's editing state. At most one route may be
// in an editing state at a time; a previously edited route drops back to
// read only.
func (s *RoutesService) SetRouteState(id string, name editor.StateName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	managed, err := s.getLocked(id)
	if err != nil {
		return err
	}

	if isEditingState(name) {
		for _, other := range s.routes {
			if other.ID != id && isEditingState(other.StateName) {
				other.StateName = editor.StateReadOnly
				s.log.Debug("deselected route", zap.String("id", other.ID))
			}
		}
	}
	managed.StateName = name
	return nil
}

// SelectedRoute returns the route currently in an editing state, if any.
func (s *RoutesService) SelectedRoute() (*ManagedRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, managed := range s.routes {
		if isEditingState(managed.StateName) {
			return managed, true
		}
	}
	return nil, false
}

// ShareLink encodes a route's waypoints into the URL hash form used for
// sharing.
func (s *RoutesService) ShareLink(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	managed, err := s.getLocked(id)
	if err != nil {
		return "", err
	}
	return route.EncodeWaypoints(managed.Route), nil
}

func (s *RoutesService) getLocked(id string) (*ManagedRoute, error) {
	managed, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}
	return managed, nil
}

// uniqueNameLocked returns name untouched when neither it nor any numeric
// suffix of it is in use. Otherwise it appends one past the highest suffix
// already taken, so deleting "Route 1" while "Route 2" remains still yields
// "Route 3" for the next "Route".
func (s *RoutesService) uniqueNameLocked(name string) string {
	prefix := name + " "
	highest := -1
	for _, managed := range s.routes {
		existing := managed.Route.Properties.Name
		if existing == name {
			if highest < 0 {
				highest = 0
			}
			continue
		}
		if !strings.HasPrefix(existing, prefix) {
			continue
		}
		n, err := strconv.Atoi(existing[len(prefix):])
		if err != nil || n <= 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest < 0 {
		return name
	}
	return fmt.Sprintf("%s %d", name, highest+1)
}

// leastUsedColorLocked picks the palette color used by the fewest routes,
// preferring earlier palette entries on ties.
func (s *RoutesService) leastUsedColorLocked() string {
	counts := make(map[string]int, len(s.config.Palette))
	for _, managed := range s.routes {
		counts[managed.Route.Properties.PathOptions.Color]++
	}

	best := s.config.Palette[0]
	bestCount := math.MaxInt
	for _, color := range s.config.Palette {
		if counts[color] < bestCount {
			best = color
			bestCount = counts[color]
		}
	}
	return best
}

func isEditingState(name editor.StateName) bool {
	return name == editor.StateEditRoute || name == editor.StateEditPoi ||
		name == editor.StateRecording || name == editor.StateRecordingPoi
}

// joinGeometry determines where the secondary attaches to the primary and
// how far apart the closest endpoints are.
func joinGeometry(primary, secondary *route.Route) (joinAtStart bool, meters float64, err error) {
	pStart, err := primary.StartPoint()
	if err != nil {
		return false, 0, err
	}
	pEnd, err := primary.EndPoint()
	if err != nil {
		return false, 0, err
	}
	sStart, err := secondary.StartPoint()
	if err != nil {
		return false, 0, err
	}
	sEnd, err := secondary.EndPoint()
	if err != nil {
		return false, 0, err
	}

	atEnd := math.Min(geo.Distance(pEnd, sStart), geo.Distance(pEnd, sEnd))
	atStart := math.Min(geo.Distance(pStart, sStart), geo.Distance(pStart, sEnd))
	if atStart < atEnd {
		return true, atStart, nil
	}
	return false, atEnd, nil
}

func routeEndpoints(r *route.Route) []geo.Point {
	var endpoints []geo.Point
	if start, err := r.StartPoint(); err == nil {
		endpoints = append(endpoints, start)
	}
	if end, err := r.EndPoint(); err == nil {
		endpoints = append(endpoints, end)
	}
	return endpoints
}
