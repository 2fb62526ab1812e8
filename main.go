package main

import (
	"context"
	"log"
	"os"
)

func main() {
	cfg := LoadConfig()
	externalHTTPClient.Timeout = cfg.RequestTimeout()

	mode := "run"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	ctx := context.Background()
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	switch mode {
	case "scrape":
		requireAPIBaseURL(cfg)
		if err := RunScrape(cfg); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
	case "ingest":
		runIngest(ctx, cfg, store)
	case "run":
		requireAPIBaseURL(cfg)
		job := func() {
			if err := RunScrape(cfg); err != nil {
				log.Printf("Scrape error: %v", err)
				return
			}
			runIngest(ctx, cfg, store)
		}
		if StartScrapeScheduler(cfg, job) {
			log.Println("Running in scheduled mode")
			select {}
		}
		if err := RunScrape(cfg); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		runIngest(ctx, cfg, store)
	default:
		log.Fatalf("Unknown command '%s' (expected 'scrape', 'ingest', or no argument)", mode)
	}
}

func requireAPIBaseURL(cfg Config) {
	if cfg.APIBaseURL == "" {
		log.Fatalf("Required config 'api_base_url' is not set (via config.yaml or env var)")
	}
}

func runIngest(ctx context.Context, cfg Config, store Store) {
	files, err := ListSourceFiles(cfg.OutputDir)
	if err != nil {
		log.Fatalf("Failed to list source files: %v", err)
	}
	uploaded, summary := IngestFiles(ctx, store, files, cfg)
	log.Printf("ingest complete uploaded=%d", uploaded)
	PostSummary(cfg, summary)
}
