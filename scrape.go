package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// jitterSleep is swappable so tests don't wait out the pacing delays.
var jitterSleep = time.Sleep

func randomJitter(minSecs, maxSecs float64) time.Duration {
	return time.Duration((minSecs + rand.Float64()*(maxSecs-minSecs)) * float64(time.Second))
}

// buildBaseURL assembles the fixed query string for one group. The page
// number is appended last, per request, by pageURL.
func buildBaseURL(cfg Config, g Group) string {
	return fmt.Sprintf(
		"%s?search[team_country]=%s&search[gender]=%s&search[age]=%d"+
			"&search[team_or_club_name]=&search[team_association]=%s&search[filter_by]=state",
		cfg.APIBaseURL,
		url.QueryEscape(cfg.Country),
		url.QueryEscape(g.Gender),
		g.Age,
		url.QueryEscape(cfg.Association),
	)
}

func pageURL(base string, page int) string {
	return fmt.Sprintf("%s&search[page]=%d", base, page)
}

type pageResult struct {
	page int
	body []byte
	err  error
}

// ScrapeGroup collects every page of one group. Page 1 is fetched
// synchronously because total_pages is only known from a successful
// response; if it fails the whole group is abandoned. The remaining pages
// fan out over a bounded worker pool and come back in completion order —
// nothing downstream may assume page ordering, only that each page is
// attempted exactly once.
func ScrapeGroup(cfg Config, g Group) error {
	log.Printf("==========================================")
	log.Printf("starting scrape for %s", g)

	today := dateStamp(time.Now())
	base := buildBaseURL(cfg, g)

	firstPage, err := FetchWithRetry(pageURL(base, 1), cfg)
	if err != nil {
		log.Printf("failed to fetch initial page for %s, aborting group: %v", g, err)
		return err
	}
	// Raw page 1 is persisted unconditionally, before any further work.
	saveRaw(cfg, fmt.Sprintf("%s_page1_raw_%s.json", g, today), firstPage)

	pages := totalPages(firstPage)
	log.Printf("found %d pages for %s", pages, g)

	pageCh := make(chan int)
	results := make(chan pageResult, pages)

	var wg sync.WaitGroup
	for i := 0; i < cfg.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pageCh {
				body, err := FetchWithRetry(pageURL(base, page), cfg)
				results <- pageResult{page: page, body: body, err: err}
				// Pace this worker's own loop; the rest of the pool keeps going.
				jitterSleep(randomJitter(0.5, 2.5))
			}
		}()
	}

	go func() {
		for page := 2; page <= pages; page++ {
			pageCh <- page
		}
		close(pageCh)
		wg.Wait()
		close(results)
	}()

	allTeams := ExtractRecords(firstPage)
	log.Printf("found %d teams from page 1 of %s", len(allTeams), g)

	for res := range results {
		if res.err != nil {
			// Page-level data loss: logged and skipped, never fatal for
			// the group.
			log.Printf("error fetching page %d of %s: %v", res.page, g, res.err)
			continue
		}
		saveRaw(cfg, fmt.Sprintf("%s_page%d_raw_%s.json", g, res.page, today), res.body)
		teams := ExtractRecords(res.body)
		allTeams = append(allTeams, teams...)
		log.Printf("found %d teams from page %d of %s", len(teams), res.page, g)
	}

	if len(allTeams) > 0 {
		data, err := json.MarshalIndent(allTeams, "", "    ")
		if err != nil {
			return fmt.Errorf("encoding aggregate for %s: %w", g, err)
		}
		saveRaw(cfg, fmt.Sprintf("%s_team_data_%s.json", g, today), data)
		log.Printf("collected %d total teams for %s", len(allTeams), g)
	} else {
		log.Printf("no teams found for %s", g)
	}

	log.Printf("scrape for %s completed", g)
	return nil
}

// RunScrape walks every configured (gender, age) group strictly in sequence;
// each group finishes its own internal concurrency before the next starts.
// Only storage-setup failures are fatal to the run.
func RunScrape(cfg Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeMarker(cfg, "scraper_started.txt"); err != nil {
		return fmt.Errorf("writing start marker: %w", err)
	}
	log.Println("scrape run started")

	for _, gender := range cfg.Genders {
		for age := cfg.MinAge; age <= cfg.MaxAge; age++ {
			// A failed group was already logged; the run moves on.
			_ = ScrapeGroup(cfg, Group{Gender: gender, Age: age})
			jitterSleep(randomJitter(1.0, 2.0))
		}
	}

	if err := writeMarker(cfg, "scraper_completed.txt"); err != nil {
		return fmt.Errorf("writing completion marker: %w", err)
	}
	log.Println("scrape run completed")
	return nil
}

func saveRaw(cfg Config, filename string, data []byte) {
	path := filepath.Join(cfg.OutputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Error saving %s: %v", path, err)
		return
	}
	log.Printf("data saved to %s", path)
}

func writeMarker(cfg Config, name string) error {
	content := fmt.Sprintf("%s at %s\n", strings.TrimSuffix(name, ".txt"), time.Now().Format(time.RFC3339))
	return os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte(content), 0644)
}
