package region

import (
	"fmt"
	"time"

	"agentforge/internal/api"
)

// Definition is the static configuration of an extraction region, loaded
// from regions.yaml or from the built-in defaults.
type Definition struct {
	Name              string   `yaml:"name"`
	RegionCode        string   `yaml:"regionCode"`
	BaseURL           string   `yaml:"baseUrl"`
	IPRanges          []string `yaml:"ipRanges,omitempty"`
	CostTier          int      `yaml:"costTier"`
	CostPerExtraction float64  `yaml:"costPerExtraction"`
	MaxConcurrent     int      `yaml:"maxConcurrent"`
	CooldownMinutes   int      `yaml:"cooldownMinutes"`
	EnhancedService   bool     `yaml:"enhancedService"`
}

// Validate checks a definition for the fields the orchestrator cannot
// default sensibly.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("region definition has empty name")
	}
	if d.BaseURL == "" {
		return fmt.Errorf("region %s has empty baseUrl", d.Name)
	}
	if d.CostTier < 1 || d.CostTier > 3 {
		return fmt.Errorf("region %s has cost tier %d, want 1..3", d.Name, d.CostTier)
	}
	if d.CostPerExtraction < 0 {
		return fmt.Errorf("region %s has negative cost per extraction", d.Name)
	}
	if d.MaxConcurrent <= 0 {
		return fmt.Errorf("region %s has non-positive maxConcurrent", d.Name)
	}
	return nil
}

// Region holds one extraction endpoint's configuration plus its live health
// and statistics state. All mutable fields are guarded by the owning
// Registry's mutex; nothing outside this package mutates a Region directly.
type Region struct {
	def Definition

	status        api.RegionStatus
	currentLoad   int
	successCount  int
	errorCount    int
	rateLimitCount int
	totalCost     float64
	lastSuccess   time.Time
	lastRateLimit time.Time
}

// newRegion creates a Region in the available state from its definition.
func newRegion(def Definition) *Region {
	return &Region{
		def:    def,
		status: api.RegionAvailable,
	}
}

// snapshot copies the region into a read-only api.RegionInfo.
// Caller must hold the registry lock.
func (r *Region) snapshot() api.RegionInfo {
	info := api.RegionInfo{
		Name:              r.def.Name,
		RegionCode:        r.def.RegionCode,
		BaseURL:           r.def.BaseURL,
		IPRanges:          append([]string(nil), r.def.IPRanges...),
		CostTier:          r.def.CostTier,
		CostPerExtraction: r.def.CostPerExtraction,
		TotalCost:         r.totalCost,
		MaxConcurrent:     r.def.MaxConcurrent,
		CurrentLoad:       r.currentLoad,
		Status:            r.status,
		SuccessCount:      r.successCount,
		ErrorCount:        r.errorCount,
		RateLimitCount:    r.rateLimitCount,
		CooldownMinutes:   r.def.CooldownMinutes,
		EnhancedService:   r.def.EnhancedService,
	}
	if !r.lastSuccess.IsZero() {
		t := r.lastSuccess
		info.LastSuccess = &t
	}
	if !r.lastRateLimit.IsZero() {
		t := r.lastRateLimit
		info.LastRateLimit = &t
	}
	return info
}

// cooldown returns the configured cooldown as a duration.
func (r *Region) cooldown() time.Duration {
	return time.Duration(r.def.CooldownMinutes) * time.Minute
}

// recoverIfCooledDown flips a rate-limited region back to available once its
// cooldown window has elapsed. Caller must hold the registry lock.
func (r *Region) recoverIfCooledDown(now time.Time) bool {
	if r.status != api.RegionRateLimited {
		return false
	}
	if now.Sub(r.lastRateLimit) > r.cooldown() {
		r.status = api.RegionAvailable
		return true
	}
	return false
}
