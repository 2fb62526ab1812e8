package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// retrySleep is swappable so tests can record backoff delays instead of waiting.
var retrySleep = time.Sleep

// FetchWithRetry GETs url up to cfg.MaxRetries times and returns the body of
// the first 200 response. The delay between attempts grows linearly
// (retry_delay * attempt number); there is no delay after the final attempt.
// An error after the ceiling means "this page could not be obtained in this
// run" — callers log it and continue with their remaining work.
func FetchWithRetry(url string, cfg Config) ([]byte, error) {
	log.Printf("fetching url=%s", url)
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		body, err := fetchOnce(url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Printf("fetch attempt %d/%d failed: %v", attempt, cfg.MaxRetries, err)
		if attempt < cfg.MaxRetries {
			delay := cfg.RetryDelay() * time.Duration(attempt)
			log.Printf("waiting %s before retry", delay)
			retrySleep(delay)
		}
	}
	return nil, fmt.Errorf("fetching %s: %w", url, lastErr)
}

func fetchOnce(url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", sessionUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		// Non-200 bodies are surfaced truncated for the log line, never
		// treated as a payload.
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 100))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
