// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
)

const (
	ephemeralPath = "/attendance-today/ephemeral"

	maxErrorBodySize    = 64 * 1024        // 64KB
	maxSnapshotBodySize = 10 * 1024 * 1024 // 10MB
)

// Source fetches the current snapshot for one actor and direction.
type Source interface {
	Fetch(ctx context.Context, actor string, dir models.Direction) (*models.Snapshot, error)
}

// Syncer replays a snapshot. *batchsync.Synchronizer implements it.
type Syncer interface {
	Sync(ctx context.Context, snap *models.Snapshot) models.SyncStats
}

// HTTPSource reads snapshots from the ephemeral tier's HTTP endpoint.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPSource creates a source for baseURL. timeout bounds each request.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Fetch returns the snapshot for actor and dir. The response's actor and
// direction are filled from the request when the tier omits them.
func (s *HTTPSource) Fetch(ctx context.Context, actor string, dir models.Direction) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("actor", actor)
	q.Set("direction", string(dir))
	endpoint := s.baseURL + ephemeralPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s/%s: %w", actor, dir, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("fetch snapshot %s/%s: status %d: %s", actor, dir, resp.StatusCode, body)
	}

	var snap models.Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSnapshotBodySize)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s/%s: %w", actor, dir, err)
	}
	if snap.Actor == "" {
		snap.Actor = actor
	}
	if snap.Direction == "" {
		snap.Direction = dir
	}
	return &snap, nil
}
