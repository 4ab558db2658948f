package orchestrator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"agentforge/internal/api"
	"agentforge/internal/executor"
	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"golang.org/x/sync/semaphore"
)

const (
	// defaultGlobalConcurrency bounds total in-flight extractions across
	// all regions, independently of per-region load caps.
	defaultGlobalConcurrency = 15

	defaultMaxRetries = 3
)

// Backoff windows. Each failed attempt sleeps a randomized duration from
// the window matching its failure class before re-running region selection.
const (
	rateLimitBackoffMin = 10 * time.Second
	rateLimitBackoffMax = 30 * time.Second
	genericBackoffMin   = 5 * time.Second
	genericBackoffMax   = 15 * time.Second
	noRegionBackoffMin  = 30 * time.Second
	noRegionBackoffMax  = 60 * time.Second
)

// attemptExecutor is the capability the orchestrator needs from the
// extraction executor. Narrowed to an interface so tests can substitute
// scripted outcomes.
type attemptExecutor interface {
	Execute(ctx context.Context, targetURL, regionName string, opts api.ExtractOptions) (api.ExtractionResult, error)
}

// Config holds orchestrator settings.
type Config struct {
	// GlobalConcurrency bounds in-flight extractions across all regions;
	// zero means defaultGlobalConcurrency.
	GlobalConcurrency int64

	// MaxRetries applies when a batch does not specify its own.
	MaxRetries int

	// Executor configures the extraction HTTP layer.
	Executor executor.Config
}

// Orchestrator owns the region registry and coordinates selection,
// execution, retries and cost planning over it. Construct a fresh
// orchestrator per process (or per test); there is no package-level
// instance.
type Orchestrator struct {
	registry *region.Registry
	monitor  *region.Monitor
	selector *region.Selector
	exec     attemptExecutor
	sem      *semaphore.Weighted
	cfg      Config

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator with its own registry populated from defs.
func New(cfg Config, defs []region.Definition) (*Orchestrator, error) {
	if cfg.GlobalConcurrency <= 0 {
		cfg.GlobalConcurrency = defaultGlobalConcurrency
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	registry := region.NewRegistry()
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, fmt.Errorf("registering region: %w", err)
		}
	}

	return &Orchestrator{
		registry: registry,
		monitor:  region.NewMonitor(registry),
		selector: region.NewSelector(registry),
		exec:     executor.New(registry, cfg.Executor),
		sem:      semaphore.NewWeighted(cfg.GlobalConcurrency),
		cfg:      cfg,
		sleep:    ctxSleep,
	}, nil
}

// Registry exposes the orchestrator-owned registry for components that
// report over it (config reload, routing optimization).
func (o *Orchestrator) Registry() *region.Registry {
	return o.registry
}

// Monitor exposes the health monitor for the serve loop.
func (o *Orchestrator) Monitor() *region.Monitor {
	return o.monitor
}

// Attempt extracts one URL, retrying up to opts.MaxRetries additional times.
// Selection is part of the retry policy: every attempt re-runs region
// selection, so after a failure the next attempt naturally lands on a
// different, healthier region. When no region is selectable at all the
// attempt sleeps the long backoff and retries selection itself. After
// exhausting attempts the last error propagates.
func (o *Orchestrator) Attempt(ctx context.Context, targetURL string, opts api.ExtractOptions) (api.ExtractionResult, error) {
	attempts := opts.MaxRetries + 1
	var lastErr error

	for i := 0; i < attempts; i++ {
		info, ok := o.selector.SelectOptimal(targetURL, opts.BudgetLimit, opts.PreferCostOptimization)
		if !ok {
			lastErr = &api.RegionUnavailableError{
				Message: fmt.Sprintf("no region selectable for %s (attempt %d/%d)", targetURL, i+1, attempts),
			}
			logging.Warn("Orchestrator", "No region selectable for %s, waiting before re-checking", targetURL)
			if i < attempts-1 {
				if err := o.backoff(ctx, noRegionBackoffMin, noRegionBackoffMax); err != nil {
					return api.ExtractionResult{}, err
				}
			}
			continue
		}

		result, err := o.exec.Execute(ctx, targetURL, info.Name, opts)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if i >= attempts-1 {
			break
		}
		if api.IsRateLimit(err) {
			logging.Warn("Orchestrator", "Region %s rate limited on %s, backing off before re-selection", info.Name, targetURL)
			if serr := o.backoff(ctx, rateLimitBackoffMin, rateLimitBackoffMax); serr != nil {
				return api.ExtractionResult{}, serr
			}
		} else {
			logging.Warn("Orchestrator", "Attempt %d/%d failed for %s on %s: %v", i+1, attempts, targetURL, info.Name, err)
			if serr := o.backoff(ctx, genericBackoffMin, genericBackoffMax); serr != nil {
				return api.ExtractionResult{}, serr
			}
		}
	}

	return api.ExtractionResult{}, lastErr
}

// ExtractDistributed extracts all URLs concurrently under the global
// semaphore. A URL that exhausts its retries is logged and dropped from the
// result list; sibling URLs are unaffected. The batch itself never fails.
func (o *Orchestrator) ExtractDistributed(ctx context.Context, urls []string, opts api.ExtractOptions) ([]api.ExtractionResult, api.BatchStats) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = o.cfg.MaxRetries
	}

	started := time.Now()
	stats := api.BatchStats{
		TotalURLs:     len(urls),
		URLsPerRegion: make(map[string]int),
	}

	var (
		mu      sync.Mutex
		results []api.ExtractionResult
		wg      sync.WaitGroup
	)

	logging.Info("Orchestrator", "Starting distributed extraction of %d URLs (premium=%v)", len(urls), opts.UsePremiumAutomation)

	for _, targetURL := range urls {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			logging.Error("Orchestrator", err, "Batch cancelled while waiting for a concurrency slot")
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.sem.Release(1)

			result, err := o.Attempt(ctx, targetURL, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				logging.Error("Orchestrator", err, "Dropping %s after exhausting retries", targetURL)
				return
			}
			stats.Succeeded++
			stats.TotalCost += result.Cost
			stats.TotalEvents += result.EventsFound
			stats.URLsPerRegion[result.Region]++
			results = append(results, result)
		}()
	}

	wg.Wait()
	stats.Elapsed = time.Since(started)

	logging.Info("Orchestrator", "Batch complete: %d/%d URLs succeeded, %d events, cost %.4f in %s",
		stats.Succeeded, stats.TotalURLs, stats.TotalEvents, stats.TotalCost, stats.Elapsed)
	return results, stats
}

// ListRegions returns a snapshot of every registered region.
func (o *Orchestrator) ListRegions() []api.RegionInfo {
	return o.registry.All()
}

// HealthCheckAll probes every region's health endpoint.
func (o *Orchestrator) HealthCheckAll(ctx context.Context) map[string]bool {
	return o.monitor.HealthCheckAll(ctx)
}

// backoff sleeps a uniformly random duration in [min, max], honoring
// context cancellation.
func (o *Orchestrator) backoff(ctx context.Context, min, max time.Duration) error {
	d := min + time.Duration(rand.Int64N(int64(max-min)))
	return o.sleep(ctx, d)
}

// ctxSleep sleeps for d unless the context is cancelled first.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
