package editor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
	"github.com/openhiking/trailmap/internal/lib/snap"
)

// SnapCandidates is the geometry the editor snaps new points against, in
// priority order: candidate points first (other routes' waypoints, the
// tracked device location, public points of interest), then candidate lines
// (the route's own geometry, other routes' polylines, published trail
// geometry).
type SnapCandidates struct {
	Points []geo.Point
	Lines  [][]geo.Point
}

// Options configures an Editor.
type Options struct {
	SensitivityPx        float64
	UndoDepth            int
	RecordingNoiseMeters float64
}

// recordingNoiseDefault drops recorded stream points closer than this to the
// last recorded point.
const recordingNoiseDefault = 5.0

// Editor owns one route's mutable state and its visual representation. At
// any moment exactly one interaction state is active; transitions always
// tear the old state down before the new one initializes.
//
// Pointer events arrive through Handle on the surface's event goroutine.
// Routing and elevation results arrive asynchronously and are applied under
// the editor's lock, guarded by per-segment generation counters so a stale
// response never overwrites a newer edit. Subscribers are invoked
// synchronously on commit and must not call back into the editor.
type Editor struct {
	mu sync.Mutex

	log       *zap.Logger
	surface   Surface
	router    RoutingClient
	elevation ElevationProvider
	notifier  Notifier
	opts      Options

	route      *route.Route
	undo       *route.UndoStack[*route.Route]
	current    state
	candidates SnapCandidates

	subscribers      []func(route.Data)
	hoverSubscribers []func(distanceKm float64)
	markerSelected   func(route.Marker)

	// Generation counters: one per segment index, bumped on every reroute
	// issued for that index. Late responses with a stale generation are
	// dropped.
	generations map[int]uint64

	// Segments awaiting a routing response render as a dashed placeholder.
	loading map[int]bool

	// View side tables. Marker data never holds live handles; the id-keyed
	// table binds persisted markers to their view objects.
	segmentLines    []Polyline
	waypointMarkers []Marker
	middleMarkers   []Marker
	poiHandles      map[string]Marker
}

// New creates an editor for the route, immediately in the ReadOnly state.
func New(r *route.Route, surface Surface, router RoutingClient, elevation ElevationProvider, notifier Notifier, log *zap.Logger, opts Options) *Editor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SensitivityPx <= 0 {
		opts.SensitivityPx = snap.DefaultSensitivityPx
	}
	if opts.RecordingNoiseMeters <= 0 {
		opts.RecordingNoiseMeters = recordingNoiseDefault
	}

	e := &Editor{
		log:         log,
		surface:     surface,
		router:      router,
		elevation:   elevation,
		notifier:    notifier,
		opts:        opts,
		route:       r,
		undo:        route.NewUndoStack(r.Clone(), opts.UndoDepth),
		generations: make(map[int]uint64),
		loading:     make(map[int]bool),
		poiHandles:  make(map[string]Marker),
	}
	e.current = &readOnlyState{editor: e}
	e.current.initialize()
	return e
}

// StateName returns the active state's persisted name.
func (e *Editor) StateName() StateName {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.name()
}

// SetState transitions the state machine. The old state is cleared before
// the new one initializes; requesting an unknown state name is a caller bug
// and returns an error without touching the current state.
func (e *Editor) SetState(name StateName) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.newState(name)
	if err != nil {
		return err
	}

	e.log.Debug("route editor state transition",
		zap.String("route", e.route.Properties.Name),
		zap.String("from", string(e.current.name())),
		zap.String("to", string(name)))

	e.current.clear()
	e.current = next
	e.current.initialize()
	return nil
}

func (e *Editor) newState(name StateName) (state, error) {
	switch name {
	case StateHidden:
		return &hiddenState{editor: e}, nil
	case StateReadOnly:
		return &readOnlyState{editor: e}, nil
	case StateRecording:
		return &recordingState{editor: e}, nil
	case StateRecordingPoi:
		return &recordingState{editor: e, withPoi: true}, nil
	case StateEditRoute:
		return &editRouteState{editor: e, dragIndex: -1}, nil
	case StateEditPoi:
		return &editPoiState{editor: e}, nil
	}
	return nil, fmt.Errorf("unknown editing state %q", name)
}

// Handle dispatches one surface event to the active state.
func (e *Editor) Handle(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current.handle(ev)
}

// SetSnapCandidates replaces the external geometry used for snapping.
func (e *Editor) SetSnapCandidates(c SnapCandidates) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.candidates = c
}

// Subscribe registers a callback invoked with a route snapshot on every
// committed mutation.
func (e *Editor) Subscribe(fn func(route.Data)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// SubscribeHover registers a callback for hover distance reports from the
// read-only state.
func (e *Editor) SubscribeHover(fn func(distanceKm float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hoverSubscribers = append(e.hoverSubscribers, fn)
}

// OnMarkerSelected registers the callback invoked when a point-of-interest
// marker is clicked in the EditPoi state, to open its editing popup.
func (e *Editor) OnMarkerSelected(fn func(route.Marker)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markerSelected = fn
}

// Snapshot returns a deep copy of the current route data.
func (e *Editor) Snapshot() route.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.route.ToData()
}

// Route returns the route owned by this editor. The editor retains
// ownership; callers must not mutate it while an editing state is active.
func (e *Editor) Route() *route.Route {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.route
}

// UndoDepth returns the number of snapshots currently held.
func (e *Editor) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo.Len()
}

// Undo restores the previous committed snapshot. At the history floor it is
// a no-op.
func (e *Editor) Undo() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.undo.Len() > 1 {
		// Invalidate in-flight reroutes; they belong to the discarded edit.
		for i := range e.generations {
			e.generations[i]++
		}
		e.loading = make(map[int]bool)
	}
	restored := e.undo.Undo().Clone()
	e.route.Segments = restored.Segments
	e.route.Markers = restored.Markers
	e.refreshView()
	e.notifyLocked()
}

// Close tears down the editor's visual representation and detaches it from
// the surface. The editor must not be used afterwards.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current.clear()
	e.current = &hiddenState{editor: e}
}

// raiseDataChanged is the single point of truth for "a change happened":
// it pushes an undo snapshot and notifies subscribers. Callers hold the lock.
func (e *Editor) raiseDataChanged() {
	e.undo.Push(e.route.Clone())
	e.notifyLocked()
}

func (e *Editor) notifyLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	data := e.route.ToData()
	for _, fn := range e.subscribers {
		fn(data)
	}
}

func (e *Editor) snapper() *snap.Engine {
	return snap.NewEngine(e.surface, e.opts.SensitivityPx)
}

// resolveSnap adjusts a raw pointer coordinate: candidate points win over
// candidate lines, and the raw coordinate passes through when nothing is
// within the sensitivity threshold.
func (e *Editor) resolveSnap(latlng geo.Point) geo.Point {
	engine := e.snapper()

	if result := engine.SnapToPoint(latlng, e.candidates.Points); result.Matched() {
		return result.Latlng
	}

	lines := make([][]geo.Point, 0, len(e.candidates.Lines)+1)
	if latlngs := e.route.Latlngs(); len(latlngs) > 1 {
		lines = append(lines, latlngs)
	}
	lines = append(lines, e.candidates.Lines...)

	if result := engine.SnapToRoute(latlng, lines); result.Matched() {
		return result.Latlng
	}
	return latlng
}

// nextGeneration invalidates any in-flight reroute for the segment and
// returns the token the new reroute must present to apply its result.
func (e *Editor) nextGeneration(segmentIndex int) uint64 {
	e.generations[segmentIndex]++
	return e.generations[segmentIndex]
}

// runRouting recomputes segment segmentIndex's geometry between its
// enclosing waypoints. RoutingType None short-circuits to a straight line;
// anything else goes through the routing client asynchronously while a
// dashed placeholder line shows in place of the final geometry.
// Last write wins per segment index: a response is dropped when a newer
// reroute or an undo has bumped the segment's generation.
func (e *Editor) runRouting(segmentIndex int) {
	if segmentIndex <= 0 || segmentIndex >= len(e.route.Segments) {
		return
	}

	seg := &e.route.Segments[segmentIndex]
	start := e.route.Segments[segmentIndex-1].RoutePoint
	end := seg.RoutePoint

	if seg.RoutingType == route.RoutingNone {
		// Bump the generation so an in-flight routed response for this
		// segment can no longer overwrite the straight line.
		gen := e.nextGeneration(segmentIndex)
		seg.Latlngs = []geo.Point{start, end}
		e.refreshView()
		e.requestElevation(segmentIndex, gen)
		return
	}

	gen := e.nextGeneration(segmentIndex)
	seg.Latlngs = []geo.Point{start, end}
	e.loading[segmentIndex] = true
	e.refreshView()
	routingType := seg.RoutingType

	go func() {
		points, err := e.router.GetRoute(context.Background(), start, end, routingType)

		e.mu.Lock()
		defer e.mu.Unlock()

		if e.generations[segmentIndex] != gen || segmentIndex >= len(e.route.Segments) {
			return
		}
		delete(e.loading, segmentIndex)
		if err != nil || len(points) < 2 {
			// The adapter already degraded to a straight line and warned;
			// this guards against a misbehaving implementation.
			points = []geo.Point{start, end}
		}

		e.route.Segments[segmentIndex].Latlngs = points
		e.refreshView()
		e.raiseDataChanged()
		e.requestElevation(segmentIndex, gen)
	}()
}

// requestElevation fills elevations for a segment's geometry in the
// background. Failure keeps elevations at 0 and surfaces a toast; it never
// blocks or aborts the edit that triggered it.
func (e *Editor) requestElevation(segmentIndex int, gen uint64) {
	if e.elevation == nil {
		return
	}
	points := append([]geo.Point(nil), e.route.Segments[segmentIndex].Latlngs...)

	go func() {
		updated, err := e.elevation.UpdateHeights(context.Background(), points)
		if err != nil {
			e.notifier.Error("Failed to retrieve elevation data")
			e.log.Warn("elevation lookup failed", zap.Error(err))
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		if e.generations[segmentIndex] != gen || segmentIndex >= len(e.route.Segments) {
			return
		}
		seg := &e.route.Segments[segmentIndex]
		if len(updated) != len(seg.Latlngs) {
			return
		}
		seg.Latlngs = updated
		seg.RoutePoint.Alt = updated[len(updated)-1].Alt
	}()
}

// refreshView re-renders the active state's visual representation.
func (e *Editor) refreshView() {
	e.current.clear()
	e.current.initialize()
}

// moveWaypoint repositions waypoint i and replaces its adjoining segments'
// geometry with straight lines, the live preview shown while dragging.
func (e *Editor) moveWaypoint(i int, p geo.Point) {
	seg := &e.route.Segments[i]
	seg.RoutePoint = p
	if i == 0 {
		seg.Latlngs = []geo.Point{p, p}
	} else {
		seg.Latlngs = []geo.Point{e.route.Segments[i-1].RoutePoint, p}
	}
	if i+1 < len(e.route.Segments) {
		next := &e.route.Segments[i+1]
		next.Latlngs = []geo.Point{p, next.RoutePoint}
	}
}

// SetRoutingType changes the routing type used for new points. When the
// route has one global type rather than per-point types, every existing
// segment is re-routed with the new type.
func (e *Editor) SetRoutingType(t route.RoutingType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.route.Properties.CurrentRoutingType = t
	if e.route.Properties.RoutingPerPoint {
		return
	}
	for i := range e.route.Segments {
		e.route.Segments[i].RoutingType = t
		e.runRouting(i)
	}
	e.raiseDataChanged()
}
