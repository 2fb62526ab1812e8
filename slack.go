package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// PostSummary sends a short ingest summary to the configured channel. A
// missing token or channel disables it silently; post failures are logged,
// never fatal.
func PostSummary(cfg Config, summary *IngestionSummary) {
	if cfg.SlackBotToken == "" || cfg.SummaryChannelID == "" {
		return
	}
	api := slack.New(cfg.SlackBotToken)
	msg := FormatSummaryMessage(summary)
	if _, _, err := api.PostMessage(cfg.SummaryChannelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("Error posting summary to Slack: %v", err)
		return
	}
	log.Printf("summary posted to channel %s", cfg.SummaryChannelID)
}

// FormatSummaryMessage returns a one-line human-readable ingest summary.
func FormatSummaryMessage(s *IngestionSummary) string {
	if s.UpsertError != "" {
		return fmt.Sprintf("Rankings upload failed: %s", s.UpsertError)
	}

	parts := []string{fmt.Sprintf("%d uploaded", s.TotalUploaded)}
	if n := len(s.DuplicateIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate ids collapsed", n))
	}
	if n := len(s.SkippedRecords); n > 0 {
		parts = append(parts, fmt.Sprintf("%d records skipped", n))
	}
	if n := len(s.SkippedFiles) + len(s.EmptyFiles); n > 0 {
		parts = append(parts, fmt.Sprintf("%d files skipped", n))
	}
	return "Rankings sync complete: " + strings.Join(parts, ", ")
}
