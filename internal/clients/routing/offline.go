package routing

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// connectRadiusMeters is how far a waypoint may sit from the nearest trail
// vertex and still be routed offline.
const connectRadiusMeters = 200

// TileStore provides trail geometries already downloaded for offline use,
// keyed by slippy tile.
type TileStore interface {
	Get(tile geo.Tile) (lines [][]geo.Point, ok bool)
}

// OfflineRouter searches cached trail tiles for a path between two
// waypoints. It fails fast on any missing precondition so the caller can
// fall through to the straight-line fallback without waiting.
type OfflineRouter struct {
	store TileStore
	zoom  int
}

// NewOfflineRouter creates a router over cached tiles at the given zoom.
func NewOfflineRouter(store TileStore, zoom int) *OfflineRouter {
	return &OfflineRouter{store: store, zoom: zoom}
}

// Route finds the shortest trail path from start to end over cached tiles.
func (o *OfflineRouter) Route(start, end geo.Point) ([]geo.Point, error) {
	if o.store == nil {
		return nil, errors.New("no tile store configured")
	}

	startTile := geo.TileForPoint(start, o.zoom)
	endTile := geo.TileForPoint(end, o.zoom)
	if abs(startTile.X-endTile.X) > 1 || abs(startTile.Y-endTile.Y) > 1 {
		return nil, fmt.Errorf("waypoints span non-adjacent tiles %v and %v", startTile, endTile)
	}

	lines, err := o.collectLines(startTile, endTile)
	if err != nil {
		return nil, err
	}

	g := buildGraph(lines)
	from, fromDist := g.nearest(start)
	to, toDist := g.nearest(end)
	if from < 0 || fromDist > connectRadiusMeters {
		return nil, errors.New("start is too far from any cached trail")
	}
	if to < 0 || toDist > connectRadiusMeters {
		return nil, errors.New("end is too far from any cached trail")
	}

	path, err := g.shortestPath(from, to)
	if err != nil {
		return nil, err
	}

	points := make([]geo.Point, 0, len(path)+2)
	points = append(points, start)
	for _, node := range path {
		points = append(points, g.nodes[node])
	}
	points = append(points, end)
	return points, nil
}

func (o *OfflineRouter) collectLines(a, b geo.Tile) ([][]geo.Point, error) {
	seen := map[geo.Tile]bool{}
	var lines [][]geo.Point
	for _, tile := range []geo.Tile{a, b} {
		if seen[tile] {
			continue
		}
		seen[tile] = true
		tileLines, ok := o.store.Get(tile)
		if !ok {
			return nil, fmt.Errorf("tile %v is not cached", tile)
		}
		lines = append(lines, tileLines...)
	}
	return lines, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// graph is an undirected trail graph. Vertices that appear in more than one
// line are merged by coordinate so that crossing trails connect.
type graph struct {
	nodes []geo.Point
	edges map[int][]edge
	index map[geo.Point]int
}

type edge struct {
	to     int
	meters float64
}

func buildGraph(lines [][]geo.Point) *graph {
	g := &graph{
		edges: map[int][]edge{},
		index: map[geo.Point]int{},
	}
	for _, line := range lines {
		prev := -1
		for _, p := range line {
			node := g.node(p)
			if prev >= 0 && prev != node {
				meters := geo.Distance(g.nodes[prev], g.nodes[node])
				g.edges[prev] = append(g.edges[prev], edge{to: node, meters: meters})
				g.edges[node] = append(g.edges[node], edge{to: prev, meters: meters})
			}
			prev = node
		}
	}
	return g
}

func (g *graph) node(p geo.Point) int {
	key := geo.Point{Lat: p.Lat, Lng: p.Lng}
	if id, ok := g.index[key]; ok {
		return id
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, p)
	g.index[key] = id
	return id
}

func (g *graph) nearest(p geo.Point) (int, float64) {
	best := -1
	bestMeters := math.Inf(1)
	for i, node := range g.nodes {
		if meters := geo.Distance(p, node); meters < bestMeters {
			best = i
			bestMeters = meters
		}
	}
	return best, bestMeters
}

func (g *graph) shortestPath(from, to int) ([]int, error) {
	dist := make([]float64, len(g.nodes))
	prev := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[from] = 0

	pq := &nodeQueue{{node: from, priority: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if item.node == to {
			break
		}
		if item.priority > dist[item.node] {
			continue
		}
		for _, e := range g.edges[item.node] {
			candidate := dist[item.node] + e.meters
			if candidate < dist[e.to] {
				dist[e.to] = candidate
				prev[e.to] = item.node
				heap.Push(pq, queueItem{node: e.to, priority: candidate})
			}
		}
	}

	if math.IsInf(dist[to], 1) {
		return nil, errors.New("no trail connects the waypoints")
	}

	var path []int
	for node := to; node >= 0; node = prev[node] {
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

type queueItem struct {
	node     int
	priority float64
}

type nodeQueue []queueItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
