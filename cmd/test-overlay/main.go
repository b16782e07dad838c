package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/clients/overlay"
)

func main() {
	fs := flag.NewFlagSet("test-overlay", flag.ExitOnError)
	url := fs.String("url", "", "Overlay feed URL (KML)")
	verbose := fs.Bool("verbose", false, "Print every trail and waypoint")

	fs.Parse(os.Args[1:])

	if *url == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-overlay --url https://example.com/trails.kml")
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	client := overlay.NewClient(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	began := time.Now()
	network, err := client.FetchNetwork(ctx, *url)
	if err != nil {
		log.Fatalf("Error fetching overlay: %v", err)
	}

	fmt.Printf("Overlay fetched in %s:\n", time.Since(began).Round(time.Millisecond))
	fmt.Printf("  Trails:    %d\n", len(network.Trails))
	fmt.Printf("  Waypoints: %d\n", len(network.Waypoints))

	if *verbose {
		for i, trail := range network.Trails {
			fmt.Printf("    trail %d: %d points, starts at (%.6f, %.6f)\n",
				i, len(trail), trail[0].Lat, trail[0].Lng)
		}
		for i, p := range network.Waypoints {
			fmt.Printf("    waypoint %d: (%.6f, %.6f)\n", i, p.Lat, p.Lng)
		}
	}

	// A warm fetch should come straight from the cache.
	began = time.Now()
	if _, err := client.FetchNetwork(ctx, *url); err != nil {
		log.Fatalf("Error on cached fetch: %v", err)
	}
	fmt.Printf("  Cached fetch: %s\n", time.Since(began).Round(time.Microsecond))
}
