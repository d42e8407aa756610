package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"common-corpus/internal/models"
)

func testCandidate() models.Candidate {
	return models.Candidate{
		SourceURL:   "http://site.example/doc.pdf",
		ArchiveFile: "crawl-data/seg0/file0.warc.gz",
		ByteOffset:  100,
		ByteLength:  10,
	}
}

func TestHTTPClientSendsRangeHeader(t *testing.T) {
	var gotRange, gotUA, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	client := NewHTTPClientWith(server.URL, server.Client())
	data, err := client.Fetch(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "0123456789" {
		t.Fatalf("data = %q", data)
	}
	if gotRange != "bytes=100-109" {
		t.Fatalf("Range = %q", gotRange)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("User-Agent = %q", gotUA)
	}
	if gotPath != "/crawl-data/seg0/file0.warc.gz" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestHTTPClientClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		fatal  bool
	}{
		{http.StatusNotFound, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		client := NewHTTPClientWith(server.URL, server.Client())
		_, err := client.Fetch(context.Background(), testCandidate())
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if IsFatal(err) != tc.fatal {
			t.Fatalf("status %d: IsFatal=%v, want %v", tc.status, IsFatal(err), tc.fatal)
		}
	}
}

func TestHTTPClientRejectsBadDescriptor(t *testing.T) {
	client := NewHTTPClient("")
	_, err := client.Fetch(context.Background(), models.Candidate{ArchiveFile: "", ByteLength: 0})
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) Fetch(ctx context.Context, cand models.Candidate) ([]byte, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return []byte("ok"), nil
}

func TestRetrierSucceedsWithinBound(t *testing.T) {
	transient := errors.New("archive status 503")
	client := &scriptedClient{errs: []error{transient, transient, nil}}
	r := NewRetrier(client, 3, time.Millisecond, 4*time.Millisecond, 1)

	data, err := r.Fetch(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "ok" || client.calls != 3 {
		t.Fatalf("data=%q calls=%d", data, client.calls)
	}
}

func TestRetrierExhaustsBound(t *testing.T) {
	transient := errors.New("archive status 500")
	client := &scriptedClient{errs: []error{transient, transient, transient, transient}}
	r := NewRetrier(client, 3, 0, 0, 1)

	if _, err := r.Fetch(context.Background(), testCandidate()); !errors.Is(err, transient) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("calls = %d, want 3", client.calls)
	}
}

func TestRetrierFatalStopsImmediately(t *testing.T) {
	client := &scriptedClient{errs: []error{Fatalf("archive status 404")}}
	r := NewRetrier(client, 5, 0, 0, 1)

	if _, err := r.Fetch(context.Background(), testCandidate()); !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d, want 1", client.calls)
	}
}

func TestRetrierHonorsCancellation(t *testing.T) {
	transient := errors.New("archive status 503")
	client := &scriptedClient{errs: []error{transient, transient, transient}}
	r := NewRetrier(client, 3, time.Hour, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if _, err := r.Fetch(ctx, testCandidate()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("retrier slept through cancellation")
	}
}
