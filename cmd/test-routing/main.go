package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/clients/routing"
	"github.com/openhiking/trailmap/internal/config"
	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

type printNotifier struct{}

func (printNotifier) Warning(message string) {
	fmt.Printf("  WARNING: %s\n", message)
}

func main() {
	fs := flag.NewFlagSet("test-routing", flag.ExitOnError)
	fromLat := fs.Float64("from-lat", 0, "Start latitude")
	fromLng := fs.Float64("from-lng", 0, "Start longitude")
	toLat := fs.Float64("to-lat", 0, "End latitude")
	toLng := fs.Float64("to-lng", 0, "End longitude")
	profile := fs.String("profile", "h", "Routing profile: h, b, f or n")
	baseURL := fs.String("base-url", "", "Routing engine base URL (defaults to config)")
	verbose := fs.Bool("verbose", false, "Print every returned point")

	fs.Parse(os.Args[1:])

	if *fromLat == 0 && *fromLng == 0 && *toLat == 0 && *toLng == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-routing --from-lat 31.768 --from-lng 35.213 --to-lat 31.769 --to-lng 35.214 --profile h")
		os.Exit(1)
	}

	routingType, err := route.RoutingTypeFromChar((*profile)[0])
	if err != nil {
		log.Fatalf("Invalid profile: %v", err)
	}

	cfg, err := config.Load(os.Getenv("TRAILMAP_CONFIG"))
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *baseURL == "" {
		*baseURL = cfg.Routing.BaseURL
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	client := routing.NewClient(*baseURL, nil, printNotifier{}, logger)

	start := geo.Point{Lat: *fromLat, Lng: *fromLng}
	end := geo.Point{Lat: *toLat, Lng: *toLng}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	began := time.Now()
	points, err := client.GetRoute(ctx, start, end, routingType)
	if err != nil {
		log.Fatalf("Error computing route: %v", err)
	}

	var meters float64
	for i := 1; i < len(points); i++ {
		meters += geo.Distance(points[i-1], points[i])
	}

	fmt.Printf("Route computed in %s:\n", time.Since(began).Round(time.Millisecond))
	fmt.Printf("  Profile:  %s\n", routingType)
	fmt.Printf("  Points:   %d\n", len(points))
	fmt.Printf("  Length:   %.2f km\n", meters/1000)

	if *verbose {
		for i, p := range points {
			fmt.Printf("    %d: (%.6f, %.6f)\n", i, p.Lat, p.Lng)
		}
	}
}
