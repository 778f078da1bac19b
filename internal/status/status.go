// Package status checks the public OpenClaw services.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getclawkit/clawkit/internal/cache"
	"golang.org/x/sync/errgroup"
)

// State of a service.
type State string

// States.
const (
	Operational State = "operational"
	Degraded    State = "degraded"
	Down        State = "down"
)

// Defaults.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultTTL       = 60 * time.Second
	DefaultUserAgent = "OpenClaw-Nexus-Monitor/1.0"
)

// Target is a service to check.
type Target struct {
	ID     string
	Name   string
	URL    string
	Method string
}

// DefaultTargets are the services shown on the dashboard.
func DefaultTargets() []Target {
	return []Target{
		{
			ID:     "core",
			Name:   "OpenClaw Core",
			URL:    "https://api.github.com/repos/openclaw/openclaw/releases/latest",
			Method: http.MethodGet,
		},
		{
			ID:     "registry",
			Name:   "ClawHub Registry",
			URL:    "https://moltbook.ai",
			Method: http.MethodHead,
		},
		{
			ID:     "community",
			Name:   "Discord / Community",
			URL:    "https://docs.openclaw.ai",
			Method: http.MethodHead,
		},
	}
}

// Service is the state of a single target. Latency is in milliseconds and
// is 0 when the target could not be reached at all.
type Service struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  State  `json:"status"`
	Latency int64  `json:"latency"`
	Message string `json:"message,omitempty"`
}

// Meta describes how the snapshot was produced.
type Meta struct {
	TotalLatency int64 `json:"totalLatency"`
	Cached       bool  `json:"cached"`
}

// Snapshot is the result of checking every target once.
type Snapshot struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Services  []Service `json:"services"`
	Meta      Meta      `json:"meta"`
}

// Operational reports whether every service is up.
func (s Snapshot) Operational() bool {
	for _, svc := range s.Services {
		if svc.Status != Operational {
			return false
		}
	}
	return true
}

// Checker checks targets, keeping the last snapshot in an expiring cache
// when one is set.
type Checker struct {
	Targets    []Target
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	TTL        time.Duration
	Cache      *cache.Expiring[Snapshot]
	Logger     *log.Logger

	now func() time.Time
}

const snapshotID = "snapshot"

// New returns a checker for the default targets.
func New(c *cache.Expiring[Snapshot]) *Checker {
	return &Checker{
		Targets:   DefaultTargets(),
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		TTL:       DefaultTTL,
		Cache:     c,
		now:       time.Now,
	}
}

// Snapshot returns the cached snapshot if it is still fresh, otherwise it
// checks every target and caches the result.
func (c *Checker) Snapshot(ctx context.Context) (Snapshot, error) {
	if c.Cache != nil {
		snap, err := c.Cache.Get(snapshotID)
		if err == nil {
			snap.Meta.Cached = true
			return snap, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			c.warn("could not read status cache", "err", err)
		}
	}

	snap, err := c.Check(ctx)
	if err != nil {
		return snap, err
	}
	if c.Cache != nil && c.ttl() > 0 {
		if err := c.Cache.Put(snapshotID, snap, c.ttl()); err != nil {
			c.warn("could not write status cache", "err", err)
		}
	}
	return snap, nil
}

// Check checks every target concurrently. A failing target is reported as
// down; the returned error is only set when ctx is done.
func (c *Checker) Check(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	services := make([]Service, len(c.Targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range c.Targets {
		g.Go(func() error {
			services[i] = c.check(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("check status: %w", err)
	}

	return Snapshot{
		UpdatedAt: c.clock().UTC(),
		Services:  services,
		Meta: Meta{
			TotalLatency: time.Since(start).Milliseconds(),
		},
	}, nil
}

func (c *Checker) check(ctx context.Context, t Target) Service {
	svc := Service{ID: t.ID, Name: t.Name, Status: Down}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := t.Method
	if method == "" {
		method = http.MethodHead
	}
	req, err := http.NewRequestWithContext(ctx, method, t.URL, nil)
	if err != nil {
		svc.Message = err.Error()
		return svc
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.warn("check failed", "target", t.Name, "err", err)
		svc.Message = err.Error()
		return svc
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	svc.Latency = time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.warn("check failed", "target", t.Name, "status", resp.StatusCode)
		svc.Message = resp.Status
		return svc
	}
	svc.Status = Operational
	return svc
}

func (c *Checker) ttl() time.Duration {
	if c.TTL == 0 {
		return DefaultTTL
	}
	return c.TTL
}

func (c *Checker) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *Checker) warn(msg string, kv ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, kv...)
	}
}
