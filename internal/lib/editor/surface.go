// Package editor implements the route-editing state machine: it turns
// pointer and location events into route mutations, keeps the map surface's
// visual representation synchronized with the data model, and funnels every
// committed change through a single "data changed" point that snapshots,
// pushes undo history and notifies subscribers.
package editor

import (
	"context"

	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

// PolylineStyle describes how the surface should draw a polyline.
type PolylineStyle struct {
	Color   string
	Opacity float64
	Weight  int
	Dashed  bool
}

// MarkerStyle describes how the surface should draw a marker.
type MarkerStyle struct {
	Icon      string
	Label     string
	Draggable bool
}

// Polyline is a live polyline handle owned by the map surface.
type Polyline interface {
	SetPoints(points []geo.Point)
	SetStyle(style PolylineStyle)
}

// Marker is a live marker handle owned by the map surface.
type Marker interface {
	SetLatlng(latlng geo.Point)
	SetStyle(style MarkerStyle)
}

// Surface is the capability set the editor needs from the map view layer:
// placing and removing markers and polylines, and projecting between
// geographic and screen coordinates. Pointer events are delivered to the
// editor by the surface's wiring through Editor.Handle.
type Surface interface {
	geo.Projector

	AddPolyline(points []geo.Point, style PolylineStyle) Polyline
	RemovePolyline(handle Polyline)
	AddMarker(latlng geo.Point, style MarkerStyle) Marker
	RemoveMarker(handle Marker)
	Zoom() int
}

// RoutingClient computes the path geometry between two waypoints. The
// adapter contract guarantees a usable result: at least [start, end] comes
// back even on total failure, so the editor's mutation path never stalls on
// a routing error.
type RoutingClient interface {
	GetRoute(ctx context.Context, start, end geo.Point, routingType route.RoutingType) ([]geo.Point, error)
}

// ElevationProvider fills the Alt field of points lacking one. Points that
// already carry a non-zero elevation pass through unqueried.
type ElevationProvider interface {
	UpdateHeights(ctx context.Context, points []geo.Point) ([]geo.Point, error)
}

// Notifier surfaces recoverable failures to the user without interrupting
// editing. Implementations are toast/snackbar style UI; tests use a recorder.
type Notifier interface {
	Warning(message string)
	Error(message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}
