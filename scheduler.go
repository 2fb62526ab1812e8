package main

import (
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScrapeScheduler runs job on a standard 5-field cron expression
// (minute hour day-of-month month day-of-week). Examples: "0 6 * * *"
// (daily 6am), "0 6 * * 1" (Mondays 6am). Returns false when no schedule is
// configured or the expression does not parse.
func StartScrapeScheduler(cfg Config, job func()) bool {
	schedule := strings.TrimSpace(cfg.ScrapeSchedule)
	if schedule == "" {
		return false
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid scrape_schedule '%s': %v — scheduler disabled", schedule, err)
		return false
	}

	log.Printf("Scrape scheduled (cron: %s)", schedule)
	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next scrape at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)
			job()
		}
	}()
	return true
}
