// Package snap adjusts raw input coordinates to align with nearby existing
// geometry. All distance checks happen in projected screen space so that the
// snapping feel is zoom-independent.
package snap

import (
	"math"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// DefaultSensitivityPx is the default screen-space snapping tolerance.
const DefaultSensitivityPx = 10

// Engine answers snapping queries against candidate points and polylines.
// It is a pure query object: it holds no mutable state and is re-run on
// every pointer move while snapping is enabled.
type Engine struct {
	projector     geo.Projector
	sensitivityPx float64
}

// NewEngine creates a snapping engine. The projector is the map surface's
// current projection; sensitivity is in pixels.
func NewEngine(projector geo.Projector, sensitivityPx float64) *Engine {
	if sensitivityPx <= 0 {
		sensitivityPx = DefaultSensitivityPx
	}
	return &Engine{projector: projector, sensitivityPx: sensitivityPx}
}

// PointSnap is the result of snapping against candidate points.
type PointSnap struct {
	Latlng       geo.Point
	MatchedIndex int // index into the candidate list, -1 when nothing snapped
}

// Matched reports whether the coordinate snapped to a candidate.
func (s PointSnap) Matched() bool { return s.MatchedIndex >= 0 }

// SnapToPoint snaps the coordinate to the closest candidate point within the
// sensitivity threshold. A candidate exactly at the threshold snaps
// (inclusive boundary); ties go to the first candidate found. With no match
// the original coordinate passes through unchanged.
func (e *Engine) SnapToPoint(latlng geo.Point, candidates []geo.Point) PointSnap {
	origin := e.projector.Project(latlng)

	best := PointSnap{Latlng: latlng, MatchedIndex: -1}
	bestDist := math.Inf(1)
	for i, candidate := range candidates {
		px := e.projector.Project(candidate)
		d := math.Hypot(px.X-origin.X, px.Y-origin.Y)
		if d <= e.sensitivityPx && d < bestDist {
			bestDist = d
			best.Latlng = candidate
			best.MatchedIndex = i
		}
	}
	return best
}

// LineSnap is the result of snapping against candidate polylines.
type LineSnap struct {
	Latlng         geo.Point
	LineIndex      int // index of the matched polyline, -1 when nothing snapped
	InsertionIndex int // vertex index before which a new vertex would be inserted
}

// Matched reports whether the coordinate snapped to a polyline.
func (s LineSnap) Matched() bool { return s.LineIndex >= 0 }

// SnapToRoute snaps the coordinate onto the closest polyline within the
// sensitivity threshold, returning the projected point on the line and the
// vertex index before which a new vertex would be inserted. Runs in
// O(total vertex count), which is acceptable for map-extent-bounded data.
func (e *Engine) SnapToRoute(latlng geo.Point, polylines [][]geo.Point) LineSnap {
	origin := e.projector.Project(latlng)

	best := LineSnap{Latlng: latlng, LineIndex: -1, InsertionIndex: -1}
	bestDist := math.Inf(1)

	for lineIndex, line := range polylines {
		for i := 0; i < len(line)-1; i++ {
			a := e.projector.Project(line[i])
			b := e.projector.Project(line[i+1])

			d, t := pointToSegmentPx(origin, a, b)
			if d <= e.sensitivityPx && d < bestDist {
				bestDist = d
				best.Latlng = e.projector.Unproject(geo.Pixel{
					X: a.X + t*(b.X-a.X),
					Y: a.Y + t*(b.Y-a.Y),
				})
				best.LineIndex = lineIndex
				best.InsertionIndex = i + 1
			}
		}
	}
	return best
}

// pointToSegmentPx returns the pixel distance from p to segment [a, b] and
// the clamped projection ratio along it.
func pointToSegmentPx(p, a, b geo.Pixel) (distance, ratio float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y), 0
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy)), t
}
