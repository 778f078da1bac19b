package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/getclawkit/clawkit/internal/skills"
)

// loadFeed reads a skills feed from an http(s) URL, a file:// URL or a plain
// path.
func loadFeed(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("could not download feed: %s", resp.Status)
		}
		return io.ReadAll(resp.Body) //nolint:wrapcheck
	}

	bts, err := os.ReadFile(strings.TrimPrefix(src, "file://"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return bts, nil
}

// pushFeed posts the records of a feed to the sync endpoint of a remote
// server.
func pushFeed(ctx context.Context, endpoint, key string, feed []byte) (skills.SeedReport, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(feed, &records); err != nil {
		return skills.SeedReport{}, fmt.Errorf("could not parse skills feed: %w", err)
	}
	body, err := json.Marshal(struct {
		Skills []json.RawMessage `json:"skills"`
	}{records})
	if err != nil {
		return skills.SeedReport{}, err //nolint:wrapcheck
	}

	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasSuffix(endpoint, "/api/skills/sync") {
		endpoint += "/api/skills/sync"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return skills.SeedReport{}, err //nolint:wrapcheck
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return skills.SeedReport{}, err //nolint:wrapcheck
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Error string `json:"error"`
		skills.SeedReport
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return skills.SeedReport{}, fmt.Errorf("could not decode sync response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return skills.SeedReport{}, fmt.Errorf("sync failed: %s: %s", resp.Status, out.Error)
	}
	return out.SeedReport, nil
}
