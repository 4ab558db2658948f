package region

import (
	"fmt"
	"sync"
	"time"

	"agentforge/internal/api"
	"agentforge/pkg/logging"
)

// Registry owns all Region state for one orchestrator instance. It is the
// single shared mutable resource of the system; every read and mutation goes
// through its mutex so the load and counter invariants hold under real
// parallelism.
//
// Regions are kept in a slice so iteration order is the insertion order of
// registration. Selection tie-breaking depends on this: first-registered
// wins on equal scores.
type Registry struct {
	mu      sync.RWMutex
	regions []*Region
	byName  map[string]*Region

	// now is swappable for cooldown tests.
	now func() time.Time
}

// NewRegistry creates an empty region registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Region),
		now:    time.Now,
	}
}

// Register adds a region from its definition. Registration order is
// significant: it fixes the deterministic tie-break order for selection.
func (g *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byName[def.Name]; exists {
		return fmt.Errorf("region %s already registered", def.Name)
	}

	r := newRegion(def)
	g.regions = append(g.regions, r)
	g.byName[def.Name] = r
	logging.Debug("RegionRegistry", "Registered region %s (%s, tier %d)", def.Name, def.RegionCode, def.CostTier)
	return nil
}

// Get returns a snapshot of the named region.
func (g *Registry) Get(name string) (api.RegionInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.byName[name]
	if !ok {
		return api.RegionInfo{}, false
	}
	return r.snapshot(), true
}

// All returns snapshots of every region in registration order.
func (g *Registry) All() []api.RegionInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]api.RegionInfo, 0, len(g.regions))
	for _, r := range g.regions {
		infos = append(infos, r.snapshot())
	}
	return infos
}

// Available returns regions that can accept work right now: status
// available and spare capacity. As a deliberate side effect it performs
// lazy cooldown recovery, flipping rate-limited regions back to available
// once their cooldown has elapsed. This check-on-read is the only mechanism
// by which a rate-limited region returns to service.
func (g *Registry) Available() []api.RegionInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	var infos []api.RegionInfo
	for _, r := range g.regions {
		if r.recoverIfCooledDown(now) {
			logging.Info("RegionRegistry", "Region %s recovered from rate limit cooldown", r.def.Name)
		}
		if r.status == api.RegionAvailable && r.currentLoad < r.def.MaxConcurrent {
			infos = append(infos, r.snapshot())
		}
	}
	return infos
}

// Acquire reserves a load slot on the named region and returns its snapshot.
// It fails if the region is unknown or already at capacity. Every successful
// Acquire must be paired with exactly one Release on all exit paths.
func (g *Registry) Acquire(name string) (api.RegionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return api.RegionInfo{}, api.NewRegionNotFoundError(name)
	}
	if r.currentLoad >= r.def.MaxConcurrent {
		return api.RegionInfo{}, fmt.Errorf("region %s at capacity (%d/%d)", name, r.currentLoad, r.def.MaxConcurrent)
	}
	r.currentLoad++
	return r.snapshot(), nil
}

// Release returns a load slot to the named region. Releasing an unknown or
// idle region is a no-op so cleanup paths can call it unconditionally.
func (g *Registry) Release(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return
	}
	if r.currentLoad > 0 {
		r.currentLoad--
	}
}

// RecordSuccess updates a region's statistics after a successful extraction.
func (g *Registry) RecordSuccess(name string, cost float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return
	}
	r.successCount++
	r.totalCost += cost
	r.lastSuccess = g.now()
}

// RecordRateLimit marks a region rate-limited and starts its cooldown.
func (g *Registry) RecordRateLimit(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return
	}
	r.rateLimitCount++
	r.lastRateLimit = g.now()
	r.status = api.RegionRateLimited
}

// RecordError marks a region errored after a failed extraction attempt.
func (g *Registry) RecordError(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return
	}
	r.errorCount++
	r.status = api.RegionError
}

// SetStatus forces a region's status. Used by the health monitor and by
// config reloads that place a region into maintenance.
func (g *Registry) SetStatus(name string, status api.RegionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byName[name]
	if !ok {
		return
	}
	r.status = status
}

// ApplyDefinitions reconciles the registry against a freshly loaded set of
// definitions: new regions are registered, existing ones get their
// configuration updated in place (statistics survive the reload), and
// regions absent from the new set are placed into maintenance rather than
// removed, so in-flight work against them can drain.
func (g *Registry) ApplyDefinitions(defs []Definition) error {
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		seen[def.Name] = true
		if r, ok := g.byName[def.Name]; ok {
			r.def = def
			if r.status == api.RegionMaintenance {
				r.status = api.RegionAvailable
			}
			continue
		}
		r := newRegion(def)
		g.regions = append(g.regions, r)
		g.byName[def.Name] = r
		logging.Info("RegionRegistry", "Registered region %s from config reload", def.Name)
	}

	for _, r := range g.regions {
		if !seen[r.def.Name] && r.status != api.RegionMaintenance {
			r.status = api.RegionMaintenance
			logging.Info("RegionRegistry", "Region %s removed from config, placed into maintenance", r.def.Name)
		}
	}
	return nil
}
