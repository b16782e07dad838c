package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/openhiking/trailmap/internal/lib/route"
	"github.com/openhiking/trailmap/internal/lib/stats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "compute":
		handleCompute()
	case "interpolate":
		handleInterpolate()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func loadRoute(path string) *route.Route {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading route file: %v", err)
	}

	var data route.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatalf("Error parsing route file: %v", err)
	}
	return route.FromData(data)
}

func handleCompute() {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	file := fs.String("file", "", "Route JSON file")
	verbose := fs.Bool("verbose", false, "Print every profile point")

	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-route-stats compute --file route.json")
		os.Exit(1)
	}

	r := loadRoute(*file)
	s := stats.Compute(r)

	fmt.Printf("Route statistics for %s:\n", r.Properties.Name)
	fmt.Printf("  Length: %.2f km\n", s.TotalLengthMeters/1000)
	fmt.Printf("  Gain:   %.0f m\n", s.TotalGainMeters)
	fmt.Printf("  Loss:   %.0f m\n", s.TotalLossMeters)
	fmt.Printf("  Profile points: %d\n", len(s.Points))

	if *verbose {
		for i, p := range s.Points {
			fmt.Printf("    %d: %.3f km, %.0f m, %.1f%%\n",
				i, p.DistanceKm, p.Elevation, p.SlopePercent)
		}
	}
}

func handleInterpolate() {
	fs := flag.NewFlagSet("interpolate", flag.ExitOnError)
	file := fs.String("file", "", "Route JSON file")
	distanceKm := fs.Float64("distance", 0, "Distance along the route in km")

	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-route-stats interpolate --file route.json --distance 3.5")
		os.Exit(1)
	}

	s := stats.Compute(loadRoute(*file))
	point := stats.Interpolate(s, *distanceKm)
	if point == nil {
		log.Fatalf("No profile point at %.3f km", *distanceKm)
	}

	fmt.Printf("Profile at %.3f km:\n", *distanceKm)
	fmt.Printf("  Location:  (%.6f, %.6f)\n", point.Latlng.Lat, point.Latlng.Lng)
	fmt.Printf("  Elevation: %.1f m\n", point.Elevation)
	fmt.Printf("  Slope:     %.1f%%\n", point.SlopePercent)
}

func printUsage() {
	fmt.Printf(`test-route-stats - Route statistics testing tool

USAGE:
    test-route-stats <command> [options]

COMMANDS:
    compute      Length, gain, loss and elevation profile of a route file
    interpolate  Profile point at a distance along the route
    help         Show this help message

EXAMPLES:
    test-route-stats compute --file route.json --verbose
    test-route-stats interpolate --file route.json --distance 3.5
`)
}
