package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/metrics"
)

const defaultFetchTimeout = 15 * time.Second

// Feed identifies a single ICS subscription.
type Feed struct {
	// ID is used in logs and as a label; it defaults to the redacted URL.
	ID  string
	URL string
}

func (f Feed) label() string {
	if f.ID != "" {
		return f.ID
	}
	return RedactURL(f.URL)
}

// FetchResult contains the outcome of fetching a single feed.
type FetchResult struct {
	Feed      Feed
	Body      []byte
	FromCache bool // body reused from disk after 304 or a failed request
}

// cacheEntry holds HTTP validators for one feed URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds. When cacheDir is set it keeps the last body per
// URL on disk and sends conditional requests (ETag / Last-Modified).
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher. An empty cacheDir disables the disk cache.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: defaultFetchTimeout},
		cacheDir: cacheDir,
	}
}

// WithClient replaces the HTTP client, e.g. for tests.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Fetch retrieves one feed. The content type is not checked.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	res, err := f.fetch(ctx, feed)
	switch {
	case err != nil:
		metrics.FeedFetches.WithLabelValues("error").Inc()
	case res.FromCache:
		metrics.FeedFetches.WithLabelValues("cached").Inc()
	default:
		metrics.FeedFetches.WithLabelValues("fresh").Inc()
	}
	return res, err
}

func (f *Fetcher) fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.URL == "" {
		return FetchResult{}, errors.New("feed URL is empty")
	}

	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if f.cacheDir != "" {
		cachePath = f.cachePathForURL(feed.URL)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			return FetchResult{}, fmt.Errorf("create feed cache: %w", err)
		}
		meta, _ = loadCacheMeta(cachePath)
		cachedBody, _ = os.ReadFile(filepath.Join(cachePath, "body.ics"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("ics fetch start", "feed", feed.label())

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "feed", feed.label())
			return FetchResult{Feed: feed, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("get %s: %w", RedactURL(feed.URL), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, fmt.Errorf("read body: %w", err)
		}
		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          feed.URL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := saveCache(cachePath, newMeta, body); err != nil {
				appLog.Error("ics cache save failed", err, "feed", feed.label())
			}
		}
		appLog.Info("ics fetch success", "feed", feed.label(), "status", resp.StatusCode, "bytes", len(body))
		return FetchResult{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "feed", feed.label())
		return FetchResult{Feed: feed, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "feed", feed.label(), "status", resp.StatusCode)
			return FetchResult{Feed: feed, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("get %s: %s", RedactURL(feed.URL), resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// RedactURL keeps only scheme and host; feed URLs often embed access tokens
// in the path or query.
func RedactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
