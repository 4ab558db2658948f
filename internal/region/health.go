package region

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"agentforge/internal/api"
	"agentforge/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const (
	// healthProbeTimeout bounds one /health GET.
	healthProbeTimeout = 10 * time.Second

	// defaultHealthInterval is how often the background monitor re-probes.
	defaultHealthInterval = 2 * time.Minute
)

// healthResponse is the body a region service returns from GET /health.
type healthResponse struct {
	Healthy bool `json:"healthy"`
}

// Monitor probes region liveness and keeps registry status current.
type Monitor struct {
	registry *Registry
	client   *http.Client
	interval time.Duration
}

// NewMonitor creates a health monitor over the given registry.
func NewMonitor(registry *Registry) *Monitor {
	return &Monitor{
		registry: registry,
		client:   &http.Client{Timeout: healthProbeTimeout},
		interval: defaultHealthInterval,
	}
}

// HealthCheckAll probes every region concurrently and returns per-region
// liveness. A probe failure marks its region errored but never affects the
// other probes and never surfaces as an error from this method.
func (m *Monitor) HealthCheckAll(ctx context.Context) map[string]bool {
	regions := m.registry.All()

	var mu sync.Mutex
	results := make(map[string]bool, len(regions))

	g, ctx := errgroup.WithContext(ctx)
	for _, info := range regions {
		g.Go(func() error {
			healthy := m.probe(ctx, info)
			if healthy {
				m.registry.SetStatus(info.Name, api.RegionAvailable)
			} else {
				m.registry.SetStatus(info.Name, api.RegionError)
			}
			mu.Lock()
			results[info.Name] = healthy
			mu.Unlock()
			// Probe failures are recorded, not propagated, so one bad
			// region cannot cancel its siblings' probes.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// probe GETs one region's /health endpoint.
func (m *Monitor) probe(ctx context.Context, info api.RegionInfo) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.BaseURL+"/health", nil)
	if err != nil {
		logging.Error("RegionHealth", err, "Building health probe for %s", info.Name)
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		logging.Warn("RegionHealth", "Health probe failed for %s: %v", info.Name, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Warn("RegionHealth", "Region %s health returned %d", info.Name, resp.StatusCode)
		return false
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && !body.Healthy {
		logging.Warn("RegionHealth", "Region %s reports unhealthy", info.Name)
	}
	return true
}

// Run probes all regions on a fixed interval until the context is cancelled.
// Used by the serve command; one-shot callers use HealthCheckAll directly.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logging.Info("RegionHealth", "Health monitor running, interval %s", m.interval)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("health monitor stopped: %w", ctx.Err())
		case <-ticker.C:
			results := m.HealthCheckAll(ctx)
			healthy := 0
			for _, ok := range results {
				if ok {
					healthy++
				}
			}
			logging.Debug("RegionHealth", "Probed %d regions, %d healthy", len(results), healthy)
		}
	}
}
