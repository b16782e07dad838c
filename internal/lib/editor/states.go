package editor

import (
	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
	"github.com/openhiking/trailmap/internal/lib/stats"
)

// hiddenState keeps no visual representation; used while another route is
// exclusively active or this route is toggled off.
type hiddenState struct {
	editor *Editor
}

func (s *hiddenState) name() StateName { return StateHidden }
func (s *hiddenState) initialize()     {}
func (s *hiddenState) clear()          { s.editor.clearView() }
func (s *hiddenState) handle(Event)    {}

// readOnlyState renders the finalized path grouped into contiguous
// polylines plus non-interactive markers. Pointer moves report the hover
// distance along the path; nothing mutates data.
type readOnlyState struct {
	editor *Editor
	stats  *stats.Statistics
}

func (s *readOnlyState) name() StateName { return StateReadOnly }

func (s *readOnlyState) initialize() {
	e := s.editor
	if !e.route.Properties.Visible {
		return
	}
	e.renderGroupedLines()
	e.renderPois(false)
	s.stats = stats.Compute(e.route)
}

func (s *readOnlyState) clear() {
	s.editor.clearView()
	s.stats = nil
}

func (s *readOnlyState) handle(ev Event) {
	if ev.Kind != EventMove || s.stats == nil {
		return
	}
	distanceKm := stats.FindDistanceForCoordinate(s.stats, ev.Latlng)
	for _, fn := range s.editor.hoverSubscribers {
		fn(distanceKm)
	}
}

// recordingState appends the live-tracked device location to the last
// segment on every location update, for GPS track logging. With withPoi set
// it also accepts point-of-interest clicks while recording.
type recordingState struct {
	editor  *Editor
	withPoi bool
}

func (s *recordingState) name() StateName {
	if s.withPoi {
		return StateRecordingPoi
	}
	return StateRecording
}

func (s *recordingState) initialize() {
	e := s.editor
	e.renderGroupedLines()
	e.renderPois(s.withPoi)
}

func (s *recordingState) clear() { s.editor.clearView() }

func (s *recordingState) handle(ev Event) {
	e := s.editor
	switch ev.Kind {
	case EventLocationUpdate:
		s.appendLocation(ev.Latlng)
	case EventClick:
		if s.withPoi {
			addPoi(e, ev.Latlng)
		}
	case EventMarkerClick:
		if s.withPoi {
			selectPoi(e, ev.MarkerID)
		}
	}
}

func (s *recordingState) appendLocation(latlng geo.Point) {
	e := s.editor

	if len(e.route.Segments) == 0 {
		e.route.Segments = append(e.route.Segments, route.NewDegenerateSegment(latlng, route.RoutingNone))
		e.refreshView()
		e.raiseDataChanged()
		return
	}

	last := &e.route.Segments[len(e.route.Segments)-1]
	prev := last.Latlngs[len(last.Latlngs)-1]
	if geo.Distance(prev, latlng) < e.opts.RecordingNoiseMeters {
		return
	}

	last.Latlngs = append(last.Latlngs, latlng)
	last.RoutePoint = latlng
	e.refreshView()
	e.raiseDataChanged()
}

// editRouteState wires pointer events to waypoint insertion, removal and
// dragging, triggering re-routing of the affected segments.
type editRouteState struct {
	editor    *Editor
	dragIndex int
}

func (s *editRouteState) name() StateName { return StateEditRoute }

func (s *editRouteState) initialize() {
	e := s.editor
	e.renderSegmentLines()
	e.renderWaypoints(true)
	e.renderMiddleMarkers()
}

func (s *editRouteState) clear() { s.editor.clearView() }

func (s *editRouteState) handle(ev Event) {
	switch ev.Kind {
	case EventClick:
		s.addWaypoint(ev.Latlng)
	case EventWaypointDragStart:
		s.dragIndex = ev.Index
	case EventWaypointDrag:
		s.dragWaypoint(ev.Latlng)
	case EventWaypointDragEnd:
		s.endDrag(ev.Latlng)
	case EventWaypointClick:
		s.removeWaypoint(ev.Index)
	case EventMiddleMarkerDrag:
		s.insertWaypoint(ev.Index, ev.Latlng)
	}
}

func (s *editRouteState) addWaypoint(latlng geo.Point) {
	e := s.editor
	resolved := e.resolveSnap(latlng)
	routingType := e.route.Properties.CurrentRoutingType

	if len(e.route.Segments) == 0 {
		e.route.Segments = append(e.route.Segments, route.NewDegenerateSegment(resolved, routingType))
		e.refreshView()
		e.raiseDataChanged()
		return
	}

	prev := e.route.Segments[len(e.route.Segments)-1].RoutePoint
	e.route.Segments = append(e.route.Segments, route.Segment{
		RoutePoint:  resolved,
		Latlngs:     []geo.Point{prev, resolved},
		RoutingType: routingType,
	})
	e.runRouting(len(e.route.Segments) - 1)
	e.raiseDataChanged()
}

// dragWaypoint updates the dragged waypoint and its two adjoining segments
// live, as straight lines; the real geometry is recomputed on drag end.
func (s *editRouteState) dragWaypoint(latlng geo.Point) {
	e := s.editor
	i := s.dragIndex
	if i < 0 || i >= len(e.route.Segments) {
		return
	}

	resolved := e.resolveSnap(latlng)
	e.moveWaypoint(i, resolved)
	e.refreshView()
}

func (s *editRouteState) endDrag(latlng geo.Point) {
	e := s.editor
	i := s.dragIndex
	if i < 0 || i >= len(e.route.Segments) {
		return
	}

	resolved := e.resolveSnap(latlng)
	e.moveWaypoint(i, resolved)
	e.runRouting(i)
	e.runRouting(i + 1)
	e.refreshView()
	e.raiseDataChanged()
	s.dragIndex = -1
}

func (s *editRouteState) removeWaypoint(i int) {
	e := s.editor
	if i < 0 || i >= len(e.route.Segments) {
		return
	}

	e.route.Segments = append(e.route.Segments[:i], e.route.Segments[i+1:]...)
	switch {
	case len(e.route.Segments) == 0:
	case i == 0:
		// The new head becomes the zero-length anchor.
		head := &e.route.Segments[0]
		head.Latlngs = []geo.Point{head.RoutePoint, head.RoutePoint}
	case i < len(e.route.Segments):
		// Reconnect the gap between the former neighbors.
		e.runRouting(i)
	}
	e.refreshView()
	e.raiseDataChanged()
}

// insertWaypoint converts segment segmentIndex's middle marker into a real
// waypoint, splitting the segment in two.
func (s *editRouteState) insertWaypoint(segmentIndex int, latlng geo.Point) {
	e := s.editor
	if segmentIndex <= 0 || segmentIndex >= len(e.route.Segments) {
		return
	}

	resolved := e.resolveSnap(latlng)
	old := e.route.Segments[segmentIndex]

	first := route.Segment{
		RoutePoint:  resolved,
		Latlngs:     []geo.Point{e.route.Segments[segmentIndex-1].RoutePoint, resolved},
		RoutingType: old.RoutingType,
	}
	second := route.Segment{
		RoutePoint:  old.RoutePoint,
		Latlngs:     []geo.Point{resolved, old.RoutePoint},
		RoutingType: old.RoutingType,
	}

	segments := append([]route.Segment{}, e.route.Segments[:segmentIndex]...)
	segments = append(segments, first, second)
	segments = append(segments, e.route.Segments[segmentIndex+1:]...)
	e.route.Segments = segments

	e.runRouting(segmentIndex)
	e.runRouting(segmentIndex + 1)
	e.refreshView()
	e.raiseDataChanged()
}

// editPoiState creates and edits point-of-interest markers; the path itself
// renders read-only.
type editPoiState struct {
	editor *Editor
}

func (s *editPoiState) name() StateName { return StateEditPoi }

func (s *editPoiState) initialize() {
	e := s.editor
	e.renderGroupedLines()
	e.renderPois(true)
}

func (s *editPoiState) clear() { s.editor.clearView() }

func (s *editPoiState) handle(ev Event) {
	e := s.editor
	switch ev.Kind {
	case EventClick:
		addPoi(e, ev.Latlng)
	case EventMarkerClick:
		selectPoi(e, ev.MarkerID)
	case EventMarkerDrag:
		movePoi(e, ev.MarkerID, ev.Latlng)
	}
}
