package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"common-corpus/internal/models"
)

// DefaultUserAgent identifies the tool to the archive.
const DefaultUserAgent = "common-corpus/1.0"

// DefaultBaseURL is the public Common Crawl HTTP mirror.
const DefaultBaseURL = "https://data.commoncrawl.org"

// Archive HTTP timeouts so a single hung request doesn't hold a worker slot
// indefinitely.
const (
	archiveConnectTimeout  = 10 * time.Second
	archiveResponseTimeout = 30 * time.Second // time to first response header
	archiveTotalTimeout    = 2 * time.Minute  // total request (connect + headers + body)
)

// HTTPClient fetches candidate byte ranges over HTTP.
type HTTPClient struct {
	base   string
	client *http.Client
}

// NewHTTPClient returns a range-request client against base (the archive
// mirror root). An empty base uses DefaultBaseURL.
func NewHTTPClient(base string) *HTTPClient {
	if base == "" {
		base = DefaultBaseURL
	}
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: archiveConnectTimeout}).DialContext,
		ResponseHeaderTimeout: archiveResponseTimeout,
	}
	return &HTTPClient{
		base: strings.TrimRight(base, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   archiveTotalTimeout,
		},
	}
}

// NewHTTPClientWith builds a client around a caller-supplied http.Client (tests).
func NewHTTPClientWith(base string, client *http.Client) *HTTPClient {
	return &HTTPClient{base: strings.TrimRight(base, "/"), client: client}
}

// Fetch issues a Range GET for the candidate's record. 4xx statuses other
// than 429 are fatal; 5xx and 429 are transient and left to the retrier.
func (c *HTTPClient) Fetch(ctx context.Context, cand models.Candidate) ([]byte, error) {
	if cand.ArchiveFile == "" || cand.ByteLength <= 0 {
		return nil, Fatalf("invalid descriptor: file=%q length=%d", cand.ArchiveFile, cand.ByteLength)
	}
	url := c.base + "/" + strings.TrimLeft(cand.ArchiveFile, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Fatalf("build request: %v", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", cand.ByteOffset, cand.ByteOffset+cand.ByteLength-1))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("archive status %d for %s", resp.StatusCode, cand.ArchiveFile)
	default:
		return nil, Fatalf("archive status %d for %s", resp.StatusCode, cand.ArchiveFile)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
