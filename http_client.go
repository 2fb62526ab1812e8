package main

import (
	"math/rand"
	"net/http"
	"time"
)

const externalHTTPTimeout = 30 * time.Second

// One long-lived client shared by every fetch in the process, so pool
// workers reuse connections. The timeout applies per attempt; retries each
// get their own.
var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}

// userAgents is a small pool of desktop signatures. One is picked per
// process, not per request: the goal is to avoid a single static signature
// across runs, nothing more.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

var sessionUserAgent = userAgents[rand.Intn(len(userAgents))]
