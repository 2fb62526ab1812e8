package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var requiredTeamFields = []string{"id", "team_name", "total_points", "age", "gender"}

// ListSourceFiles returns the .json files directly under dir, in name order,
// so file-processing order (and therefore last-wins dedup) is stable across
// runs.
func ListSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// IngestFiles runs the full upload pipeline: project every raw record to the
// canonical schema, deduplicate by id, upsert the survivors in one batch, and
// always write the summary log before returning — even when the upsert fails.
func IngestFiles(ctx context.Context, store Store, files []string, cfg Config) (int, *IngestionSummary) {
	summary := &IngestionSummary{}

	log.Printf("starting upload run over %d files", len(files))
	var all []TeamRecord
	for _, path := range files {
		log.Printf("processing %s", filepath.Base(path))
		for _, rec := range processFile(path, summary) {
			if team, ok := projectTeam(rec, summary); ok {
				all = append(all, team)
			}
		}
	}

	if len(all) == 0 {
		log.Println("no valid team data found")
		writeSummaryLog(cfg, summary)
		return 0, summary
	}
	log.Printf("found %d records total", len(all))

	deduped := DeduplicateTeams(all, summary)
	if dropped := len(all) - len(deduped); dropped > 0 {
		log.Printf("found %d duplicate team ids (last occurrence used)", dropped)
	}

	log.Printf("upserting %d unique records", len(deduped))
	uploaded, err := store.UpsertTeams(ctx, deduped)
	if err != nil {
		// Reported, not retried: the store's transactionality already
		// rolled the batch back, and splitting it would lose the
		// all-or-nothing contract.
		log.Printf("upsert failed: %v", err)
		summary.UpsertError = err.Error()
	} else {
		summary.TotalUploaded = uploaded
		log.Println("upload successful")
	}

	writeSummaryLog(cfg, summary)
	return summary.TotalUploaded, summary
}

// processFile reads one source file and returns its raw record list.
// Shapes: a top-level JSON array, an object carrying the canonical field, or
// unrecognized. Failures land on the summary; none abort the run.
func processFile(path string, summary *IngestionSummary) []gjson.Result {
	data, err := os.ReadFile(path)
	if err != nil {
		summary.SkippedFiles = append(summary.SkippedFiles, SkippedFile{Path: path, Reason: err.Error()})
		return nil
	}
	if !gjson.ValidBytes(data) {
		summary.SkippedFiles = append(summary.SkippedFiles, SkippedFile{Path: path, Reason: "invalid JSON"})
		return nil
	}
	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		return root.Array()
	case root.IsObject() && root.Get(canonicalRecordField).IsArray():
		return root.Get(canonicalRecordField).Array()
	default:
		summary.EmptyFiles = append(summary.EmptyFiles, path)
		return nil
	}
}

// projectTeam validates one raw record against the canonical schema. Every
// required source field must be present and the id must be numeric; partial
// records are dropped and recorded, never defaulted.
func projectTeam(rec gjson.Result, summary *IngestionSummary) (TeamRecord, bool) {
	idRes := rec.Get("id")
	idLabel := "unknown"
	if idRes.Exists() {
		idLabel = idRes.String()
	}

	for _, field := range requiredTeamFields {
		if !rec.Get(field).Exists() {
			summary.SkippedRecords = append(summary.SkippedRecords,
				SkippedRecord{ID: idLabel, Reason: fmt.Sprintf("missing '%s'", field)})
			return TeamRecord{}, false
		}
	}
	if idRes.Type != gjson.Number {
		summary.SkippedRecords = append(summary.SkippedRecords,
			SkippedRecord{ID: idLabel, Reason: "non-numeric id"})
		return TeamRecord{}, false
	}

	team := TeamRecord{
		ID:          idRes.Int(),
		TeamName:    rec.Get("team_name").String(),
		TotalPoints: rec.Get("total_points").Float(),
		Age:         rec.Get("age").String(),
		Gender:      rec.Get("gender").String(),
	}
	if nr := rec.Get("national_rank"); nr.Exists() && nr.Type == gjson.Number {
		v := nr.Int()
		team.NationalRank = &v
	}
	return team, true
}

// DeduplicateTeams collapses the batch to one record per id, keeping the last
// occurrence in input order (fields are never merged across duplicates). The
// output keeps first-seen id order; every id that was overwritten at least
// once is reported exactly once.
func DeduplicateTeams(teams []TeamRecord, summary *IngestionSummary) []TeamRecord {
	unique := make(map[int64]TeamRecord, len(teams))
	order := make([]int64, 0, len(teams))
	dupes := make(map[int64]bool)

	for _, t := range teams {
		if _, seen := unique[t.ID]; seen {
			dupes[t.ID] = true
		} else {
			order = append(order, t.ID)
		}
		unique[t.ID] = t
	}

	for id := range dupes {
		summary.DuplicateIDs = append(summary.DuplicateIDs, id)
	}
	sort.Slice(summary.DuplicateIDs, func(i, j int) bool {
		return summary.DuplicateIDs[i] < summary.DuplicateIDs[j]
	})

	out := make([]TeamRecord, 0, len(order))
	for _, id := range order {
		out = append(out, unique[id])
	}
	return out
}

// writeSummaryLog persists the upload summary as a timestamped plain-text
// file. Write problems are logged; the in-memory summary is still returned
// to the caller either way.
func writeSummaryLog(cfg Config, summary *IngestionSummary) {
	if err := os.MkdirAll(cfg.SummaryDir, 0755); err != nil {
		log.Printf("Error creating summary dir: %v", err)
		return
	}
	stamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(cfg.SummaryDir, fmt.Sprintf("upload_log_%s.txt", stamp))
	if err := os.WriteFile(path, []byte(summary.Render(stamp)), 0644); err != nil {
		log.Printf("Error writing summary log: %v", err)
		return
	}
	log.Printf("summary log saved to %s", path)
}

// Render produces the plain-text upload log. Section order is fixed: totals,
// skipped files, empty files, skipped records, duplicate ids.
func (s *IngestionSummary) Render(stamp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Upload Summary (%s)\n", stamp)
	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Total teams uploaded: %d\n", s.TotalUploaded)
	if s.UpsertError != "" {
		fmt.Fprintf(&b, "Upsert failed: %s\n", s.UpsertError)
	}

	b.WriteString("\nSkipped Files:\n")
	for _, f := range s.SkippedFiles {
		fmt.Fprintf(&b, "  %s - %s\n", f.Path, f.Reason)
	}
	if len(s.SkippedFiles) == 0 {
		b.WriteString("  None\n")
	}

	b.WriteString("\nEmpty or unrecognized files:\n")
	for _, f := range s.EmptyFiles {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	if len(s.EmptyFiles) == 0 {
		b.WriteString("  None\n")
	}

	b.WriteString("\nTeams skipped due to missing fields:\n")
	for _, r := range s.SkippedRecords {
		fmt.Fprintf(&b, "  ID %s - %s\n", r.ID, r.Reason)
	}
	if len(s.SkippedRecords) == 0 {
		b.WriteString("  None\n")
	}

	b.WriteString("\nDuplicate team IDs (last occurrence used):\n")
	for _, id := range s.DuplicateIDs {
		fmt.Fprintf(&b, "  ID %d\n", id)
	}
	if len(s.DuplicateIDs) == 0 {
		b.WriteString("  None\n")
	}

	return b.String()
}
