package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// maxBodyBytes caps a single feed download.
const maxBodyBytes = 10 << 20

// Source is one subscribed calendar feed.
type Source struct {
	ID  string
	URL string
}

type FetchResult struct {
	Source Source
	Body   []byte
	// FromCache is set when the server answered 304 and the previous body
	// was reused.
	FromCache bool
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads feeds, revalidating with ETag and Last-Modified. The
// validators and last bodies are kept in memory for the life of the process.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{client: client, log: log, cache: make(map[string]cacheEntry)}
}

func (f *Fetcher) Fetch(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source url is empty")
	}

	f.mu.Lock()
	cached, hasCache := f.cache[src.URL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "text/calendar")
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch %s: %w", src.ID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
		if err != nil {
			return FetchResult{}, fmt.Errorf("fetch %s: read body: %w", src.ID, err)
		}
		if len(body) > maxBodyBytes {
			return FetchResult{}, fmt.Errorf("fetch %s: body exceeds %d bytes", src.ID, maxBodyBytes)
		}

		f.mu.Lock()
		f.cache[src.URL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()

		f.log.DebugContext(ctx, "feed fetched", slog.String("source", src.ID), slog.String("url", redactURL(src.URL)), slog.Int("bytes", len(body)))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if !hasCache {
			return FetchResult{}, fmt.Errorf("fetch %s: 304 without a cached body", src.ID)
		}
		f.log.DebugContext(ctx, "feed not modified", slog.String("source", src.ID), slog.String("url", redactURL(src.URL)))
		return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil

	default:
		return FetchResult{}, fmt.Errorf("fetch %s: unexpected status %s", src.ID, resp.Status)
	}
}

// redactURL keeps scheme and host; feed paths and queries often carry
// private tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
