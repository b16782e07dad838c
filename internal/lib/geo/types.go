package geo

// Point represents a geographic coordinate with optional elevation.
// An Alt of 0 means the elevation is unknown and may be filled lazily by an
// elevation lookup.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Alt float64 `json:"alt,omitempty"`
}

// Pixel is a projected screen-space coordinate.
type Pixel struct {
	X float64
	Y float64
}

// Tile identifies a slippy-map tile at a given zoom level.
type Tile struct {
	X    int
	Y    int
	Zoom int
}

// Projector converts between geographic coordinates and screen pixels.
// The map surface provides the live implementation; Mercator is used in
// tests and offline computations.
type Projector interface {
	Project(p Point) Pixel
	Unproject(px Pixel) Point
}
