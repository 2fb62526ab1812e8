package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func newScrapeConfig(t *testing.T, apiBaseURL string) Config {
	t.Helper()
	// Pacing and backoff are real sleeps in production; tests skip them.
	jitterSleep = func(time.Duration) {}
	retrySleep = func(time.Duration) {}
	t.Cleanup(func() {
		jitterSleep = time.Sleep
		retrySleep = time.Sleep
	})
	return Config{
		APIBaseURL:  apiBaseURL,
		OutputDir:   t.TempDir(),
		MaxRetries:  1,
		MaxWorkers:  3,
		Country:     "USA",
		Association: "CAS",
	}
}

// pagedRankingsServer mocks the rankings API: every page reports the same
// total_pages and carries two teams whose ids encode the page number.
func pagedRankingsServer(t *testing.T, pages int) (*httptest.Server, *sync.Map) {
	t.Helper()
	var pageHits sync.Map // page number -> hit count
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("search[page]"))
		if err != nil {
			t.Errorf("missing search[page] in %s", r.URL.RawQuery)
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
		hits, _ := pageHits.LoadOrStore(page, new(int))
		*hits.(*int)++

		resp := map[string]any{
			"pagination": map[string]any{"current_page": page, "total_pages": pages},
			"team_ranking_data": []map[string]any{
				{"id": page * 100, "team_name": fmt.Sprintf("Team %d-A", page), "total_points": 1500.5, "age": "12", "gender": "m", "national_rank": page},
				{"id": page*100 + 1, "team_name": fmt.Sprintf("Team %d-B", page), "total_points": 1400.0, "age": "12", "gender": "m"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &pageHits
}

func TestScrapeGroupAbortsWhenFirstPageFails(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := newScrapeConfig(t, server.URL)
	if err := ScrapeGroup(cfg, Group{Gender: "m", Age: 12}); err == nil {
		t.Fatal("expected group abort error")
	}
	if requests != 1 {
		t.Fatalf("expected zero further fetches after page-1 failure, got %d requests total", requests)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatalf("reading output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty aggregate (no files), found %d", len(entries))
	}
}

func TestScrapeGroupCollectsAllPagesOnce(t *testing.T) {
	server, pageHits := pagedRankingsServer(t, 4)
	cfg := newScrapeConfig(t, server.URL)
	g := Group{Gender: "m", Age: 12}

	if err := ScrapeGroup(cfg, g); err != nil {
		t.Fatalf("ScrapeGroup failed: %v", err)
	}

	// Each page attempted exactly once, no ordering assumption.
	for page := 1; page <= 4; page++ {
		hits, ok := pageHits.Load(page)
		if !ok {
			t.Fatalf("page %d was never fetched", page)
		}
		if n := *hits.(*int); n != 1 {
			t.Fatalf("page %d fetched %d times, want exactly 1", page, n)
		}
	}

	today := dateStamp(time.Now())
	for page := 1; page <= 4; page++ {
		raw := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_page%d_raw_%s.json", g, page, today))
		if _, err := os.Stat(raw); err != nil {
			t.Errorf("missing raw dump for page %d: %v", page, err)
		}
	}

	aggPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_team_data_%s.json", g, today))
	data, err := os.ReadFile(aggPath)
	if err != nil {
		t.Fatalf("missing aggregate file: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("aggregate is not a JSON array of records: %v", err)
	}
	// 4 pages x 2 teams, concatenated without dedup.
	if len(records) != 8 {
		t.Fatalf("expected 8 aggregated records, got %d", len(records))
	}
}

func TestScrapeGroupToleratesLostPages(t *testing.T) {
	var mu sync.Mutex
	requests := map[int]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("search[page]"))
		mu.Lock()
		requests[page]++
		mu.Unlock()
		if page == 2 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"pagination": map[string]any{"total_pages": 3},
			"team_ranking_data": []map[string]any{
				{"id": page, "team_name": "T", "total_points": 1.0, "age": "12", "gender": "m"},
			},
		})
	}))
	defer server.Close()

	cfg := newScrapeConfig(t, server.URL)
	g := Group{Gender: "f", Age: 14}
	if err := ScrapeGroup(cfg, g); err != nil {
		t.Fatalf("a lost page must not fail the group: %v", err)
	}

	agg := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_team_data_%s.json", g, dateStamp(time.Now())))
	data, err := os.ReadFile(agg)
	if err != nil {
		t.Fatalf("missing aggregate file: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("bad aggregate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the 2 surviving pages' records, got %d", len(records))
	}
}

func TestRunScrapeWritesMarkers(t *testing.T) {
	server, _ := pagedRankingsServer(t, 1)
	cfg := newScrapeConfig(t, server.URL)
	cfg.Genders = []string{"m"}
	cfg.MinAge = 10
	cfg.MaxAge = 11

	if err := RunScrape(cfg); err != nil {
		t.Fatalf("RunScrape failed: %v", err)
	}
	for _, marker := range []string{"scraper_started.txt", "scraper_completed.txt"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, marker)); err != nil {
			t.Errorf("missing %s: %v", marker, err)
		}
	}
	for _, g := range []Group{{Gender: "m", Age: 10}, {Gender: "m", Age: 11}} {
		agg := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_team_data_%s.json", g, dateStamp(time.Now())))
		if _, err := os.Stat(agg); err != nil {
			t.Errorf("missing aggregate for %s: %v", g, err)
		}
	}
}

func TestBuildBaseURLAndPageURL(t *testing.T) {
	cfg := Config{APIBaseURL: "https://rankings.example.com/api/teams", Country: "USA", Association: "CAS"}
	base := buildBaseURL(cfg, Group{Gender: "f", Age: 15})

	want := "https://rankings.example.com/api/teams" +
		"?search[team_country]=USA&search[gender]=f&search[age]=15" +
		"&search[team_or_club_name]=&search[team_association]=CAS&search[filter_by]=state"
	if base != want {
		t.Fatalf("buildBaseURL = %q, want %q", base, want)
	}
	if got := pageURL(base, 3); !strings.HasSuffix(got, "&search[page]=3") {
		t.Fatalf("pageURL must append the page parameter last, got %q", got)
	}
}

func TestGroupString(t *testing.T) {
	tests := []struct {
		g    Group
		want string
	}{
		{Group{Gender: "m", Age: 12}, "m_u12"},
		{Group{Gender: "f", Age: 19}, "f_u19"},
	}
	for _, tt := range tests {
		if got := tt.g.String(); got != tt.want {
			t.Errorf("Group%+v.String() = %q, want %q", tt.g, got, tt.want)
		}
	}
}
