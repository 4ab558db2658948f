package region

import (
	"net/url"
	"strings"
	"time"

	"agentforge/internal/api"
	"agentforge/pkg/logging"
)

// Scoring weights. The weighted sum balances reliability (success rate),
// headroom (inverse load), freshness (recency of last success), economics
// (cost tier, only when cost optimization is preferred), platform geo
// affinity, and a rate-limit avoidance term.
const (
	weightSuccessRate      = 0.30
	weightLoad             = 0.25
	weightRecency          = 0.15
	weightCost             = 0.15
	weightGeo              = 0.10
	weightRateLimitAvoid   = 0.05
	geoAffinityBonus       = 0.15
	recentRateLimitPenalty = 0.5
	staleRateLimitPenalty  = 0.3
	decayWindow            = 24 * time.Hour
)

// platformAffinity maps URL host substrings to the region code prefix that
// empirically performs best for that platform.
var platformAffinity = map[string]string{
	"lu.ma":     "europe",
	"luma":      "europe",
	"token2049": "asia",
	"coindesk":  "asia",
}

// Selector picks the best region for a URL given budget and cost
// preferences. It is stateless; all inputs come from registry snapshots.
type Selector struct {
	registry *Registry

	// now is swappable for decay tests.
	now func() time.Time
}

// NewSelector creates a selector over the given registry.
func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry, now: time.Now}
}

// SelectOptimal returns the highest-scoring selectable region for the URL,
// or false if no region qualifies. Candidates are the available regions
// (which applies lazy cooldown recovery), minus any whose per-extraction
// cost exceeds budgetLimit. Ties break by registration order: the
// first-registered candidate wins, which keeps selection deterministic for
// identical registry state.
func (s *Selector) SelectOptimal(targetURL string, budgetLimit *float64, preferCostOptimization bool) (api.RegionInfo, bool) {
	candidates := s.registry.Available()
	if len(candidates) == 0 {
		return api.RegionInfo{}, false
	}

	var (
		best      api.RegionInfo
		bestScore = -1.0
		found     bool
	)
	for _, info := range candidates {
		if budgetLimit != nil && info.CostPerExtraction > *budgetLimit {
			continue
		}
		score := s.score(info, targetURL, preferCostOptimization)
		if score > bestScore {
			best = info
			bestScore = score
			found = true
		}
	}

	if found {
		logging.Debug("RegionSelector", "Selected %s (score %.4f) for %s", best.Name, bestScore, targetURL)
	}
	return best, found
}

// score computes the composite selection score for one candidate.
func (s *Selector) score(info api.RegionInfo, targetURL string, preferCostOptimization bool) float64 {
	now := s.now()

	successRate := info.SuccessRate()
	loadScore := 1.0 - info.LoadFactor()

	recencyBonus := 0.0
	if info.LastSuccess != nil {
		recencyBonus = decayScore(now.Sub(*info.LastSuccess))
	}

	costFactor := 0.0
	if preferCostOptimization {
		costFactor = float64(4-info.CostTier) / 3.0
	}

	geoBonus := 0.0
	if matchesAffinity(targetURL, info.RegionCode) {
		geoBonus = geoAffinityBonus
	}

	rateLimitPenalty := 0.0
	if info.LastRateLimit != nil {
		since := now.Sub(*info.LastRateLimit)
		if since <= time.Duration(info.CooldownMinutes)*time.Minute {
			rateLimitPenalty = recentRateLimitPenalty
		} else {
			rateLimitPenalty = staleRateLimitPenalty * decayScore(since)
		}
	}

	return successRate*weightSuccessRate +
		loadScore*weightLoad +
		recencyBonus*weightRecency +
		costFactor*weightCost +
		geoBonus*weightGeo +
		(1.0-rateLimitPenalty)*weightRateLimitAvoid
}

// decayScore maps an age to [0,1], 1.0 for just-now decaying linearly to 0
// at the 24h window edge.
func decayScore(age time.Duration) float64 {
	if age < 0 {
		return 1.0
	}
	if age >= decayWindow {
		return 0.0
	}
	return 1.0 - float64(age)/float64(decayWindow)
}

// matchesAffinity reports whether the target URL's platform has a known
// geo affinity matching the region code.
func matchesAffinity(targetURL, regionCode string) bool {
	host := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	for platform, regionPrefix := range platformAffinity {
		if strings.Contains(host, platform) && strings.HasPrefix(strings.ToLower(regionCode), regionPrefix) {
			return true
		}
	}
	return false
}
