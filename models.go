package main

import (
	"fmt"
	"time"
)

// Group is one independently paginated slice of the rankings dataset:
// a gender plus an age band. Groups are enumerated once at startup and
// scraped strictly one after another.
type Group struct {
	Gender string // "m" or "f"
	Age    int    // age band, e.g. 12 for U12
}

func (g Group) String() string {
	return fmt.Sprintf("%s_u%d", g.Gender, g.Age)
}

// TeamRecord is the canonical projection of one raw API record, the only
// shape that reaches the store. ID is the dedup key and the upsert
// conflict key.
type TeamRecord struct {
	ID           int64
	TeamName     string
	TotalPoints  float64
	Age          string
	Gender       string
	NationalRank *int64 // nil for unranked teams
}

type SkippedFile struct {
	Path   string
	Reason string
}

type SkippedRecord struct {
	ID     string // record id when present, else "unknown"
	Reason string
}

// IngestionSummary accumulates everything one ingest run skipped, dropped,
// or collapsed. Built per call and returned; never package state.
type IngestionSummary struct {
	TotalUploaded  int
	SkippedFiles   []SkippedFile
	EmptyFiles     []string
	SkippedRecords []SkippedRecord
	DuplicateIDs   []int64
	UpsertError    string
}

// dateStamp formats the date suffix used in every scraped filename.
func dateStamp(t time.Time) string {
	return t.Format("20060102")
}
