package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "distance":
		handleDistance()
	case "bearing":
		handleBearing()
	case "point-to-line":
		handlePointToLine()
	case "tile":
		handleTile()
	case "project":
		handleProject()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleDistance() {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils distance --lat1 31.7683 --lng1 35.2137 --lat2 32.0853 --lng2 34.7818")
		fmt.Println("  (Distance between Jerusalem and Tel Aviv)")
		os.Exit(1)
	}

	p1 := geo.Point{Lat: *lat1, Lng: *lng1}
	p2 := geo.Point{Lat: *lat2, Lng: *lng2}
	distance := geo.Distance(p1, p2)

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Lat, p1.Lng)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Lat, p2.Lng)
	fmt.Printf("  Distance: %.2f meters (%.2f km)\n", distance, distance/1000)
}

func handleBearing() {
	fs := flag.NewFlagSet("bearing", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils bearing --lat1 31.7683 --lng1 35.2137 --lat2 32.0853 --lng2 34.7818")
		os.Exit(1)
	}

	bearing := geo.Bearing(geo.Point{Lat: *lat1, Lng: *lng1}, geo.Point{Lat: *lat2, Lng: *lng2})
	fmt.Printf("Initial bearing: %.1f degrees\n", bearing)
}

func handlePointToLine() {
	fs := flag.NewFlagSet("point-to-line", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude of point")
	lng := fs.Float64("lng", 0, "Longitude of point")
	lineStr := fs.String("line", "", "Polyline as \"lat,lng;lat,lng;...\"")

	fs.Parse(os.Args[2:])

	if *lineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils point-to-line --lat 31.77 --lng 35.21 --line \"31.76,35.20;31.78,35.22\"")
		os.Exit(1)
	}

	line, err := parseCoordinatePairs(*lineStr)
	if err != nil {
		log.Fatalf("Error parsing line: %v", err)
	}

	point := geo.Point{Lat: *lat, Lng: *lng}
	distance, segmentIndex := geo.PointToPolyline(point, line)

	fmt.Printf("Distance from point to polyline:\n")
	fmt.Printf("  Point: (%.6f, %.6f)\n", point.Lat, point.Lng)
	fmt.Printf("  Polyline: %d points\n", len(line))
	fmt.Printf("  Distance: %.2f meters\n", distance)
	fmt.Printf("  Closest segment: %d\n", segmentIndex)
}

func handleTile() {
	fs := flag.NewFlagSet("tile", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lng := fs.Float64("lng", 0, "Longitude")
	zoom := fs.Int("zoom", 14, "Zoom level")

	fs.Parse(os.Args[2:])

	if *lat == 0 && *lng == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils tile --lat 31.7683 --lng 35.2137 --zoom 14")
		os.Exit(1)
	}

	tile := geo.TileForPoint(geo.Point{Lat: *lat, Lng: *lng}, *zoom)
	fmt.Printf("Slippy tile: %d/%d/%d\n", tile.Zoom, tile.X, tile.Y)
}

func handleProject() {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lng := fs.Float64("lng", 0, "Longitude")
	zoom := fs.Int("zoom", 14, "Zoom level")

	fs.Parse(os.Args[2:])

	if *lat == 0 && *lng == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils project --lat 31.7683 --lng 35.2137 --zoom 16")
		os.Exit(1)
	}

	projector := geo.Mercator{Zoom: *zoom}
	pixel := projector.Project(geo.Point{Lat: *lat, Lng: *lng})
	back := projector.Unproject(pixel)

	fmt.Printf("Web Mercator projection at zoom %d:\n", *zoom)
	fmt.Printf("  Pixel: (%.1f, %.1f)\n", pixel.X, pixel.Y)
	fmt.Printf("  Round trip: (%.6f, %.6f)\n", back.Lat, back.Lng)
}

func printUsage() {
	fmt.Printf(`test-geo-utils - Geographic utility testing tool

USAGE:
    test-geo-utils <command> [options]

COMMANDS:
    distance        Great-circle distance between two points
    bearing         Initial bearing from one point to another
    point-to-line   Minimum distance from a point to a polyline
    tile            Slippy tile containing a coordinate
    project         Web Mercator pixel projection round trip
    help            Show this help message

EXAMPLES:
    # Distance between Jerusalem and Tel Aviv
    test-geo-utils distance --lat1 31.7683 --lng1 35.2137 --lat2 32.0853 --lng2 34.7818

    # Distance from a point to a trail
    test-geo-utils point-to-line --lat 31.77 --lng 35.21 --line "31.76,35.20;31.78,35.22"
`)
}

// parseCoordinatePairs parses "lat,lng;lat,lng;..." strings.
func parseCoordinatePairs(coordStr string) ([]geo.Point, error) {
	if coordStr == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	pairs := strings.Split(coordStr, ";")
	points := make([]geo.Point, 0, len(pairs))

	for _, pair := range pairs {
		coords := strings.Split(strings.TrimSpace(pair), ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair: %s", pair)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude: %s", coords[0])
		}

		lng, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude: %s", coords[1])
		}

		points = append(points, geo.Point{Lat: lat, Lng: lng})
	}

	return points, nil
}
