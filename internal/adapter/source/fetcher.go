// Package source retrieves raw source files over HTTP or from local disk.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxBodyBytes bounds a single download; the national county feed is a few
// megabytes.
const maxBodyBytes = 256 << 20

// Fetcher loads a location, which is an http(s) URL, a file:// URL, or a
// path. Relative paths resolve against the base directory.
type Fetcher struct {
	httpClient *http.Client
	baseDir    string
	maxBytes   int64
	logger     *slog.Logger
}

// NewFetcher creates a fetcher rooted at baseDir.
func NewFetcher(baseDir string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseDir:  baseDir,
		maxBytes: maxBodyBytes,
		logger:   logger,
	}
}

// Fetch returns the full contents of location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.fetchHTTP(ctx, location)
	case strings.HasPrefix(location, "file://"):
		return f.readFile(strings.TrimPrefix(location, "file://"))
	default:
		return f.readFile(location)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: source exceeds %d bytes", url, f.maxBytes)
	}
	f.logger.Debug("source fetched", "location", url, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}
