package region

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/api"
)

// seedStats writes counters directly so tests can shape success rates
// without driving the recording paths (which also mutate status).
func seedStats(t *testing.T, g *Registry, name string, successes, errors int) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.byName[name]
	require.True(t, ok)
	r.successCount = successes
	r.errorCount = errors
}

func TestSelectOptimalPrefersHigherSuccessRate(t *testing.T) {
	// Concrete scenario: A cost 0.0018/tier2/success 0.9, B cost
	// 0.002/tier3/success 0.95, C in maintenance. Without cost
	// optimization, B's success rate edge must dominate.
	g := NewRegistry()
	a := testDefinition("region-a")
	a.CostTier = 2
	a.CostPerExtraction = 0.0018
	b := testDefinition("region-b")
	b.CostTier = 3
	b.CostPerExtraction = 0.0020
	c := testDefinition("region-c")
	require.NoError(t, g.Register(a))
	require.NoError(t, g.Register(b))
	require.NoError(t, g.Register(c))

	seedStats(t, g, "region-a", 9, 1)
	seedStats(t, g, "region-b", 19, 1)
	g.SetStatus("region-c", api.RegionMaintenance)

	s := NewSelector(g)
	selected, ok := s.SelectOptimal("https://example.com/events", nil, false)
	require.True(t, ok)
	assert.Equal(t, "region-b", selected.Name)
}

func TestSelectOptimalDeterministic(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))
	require.NoError(t, g.Register(testDefinition("r2")))
	seedStats(t, g, "r1", 5, 5)
	seedStats(t, g, "r2", 8, 2)

	s := NewSelector(g)
	first, ok := s.SelectOptimal("https://example.com", nil, false)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := s.SelectOptimal("https://example.com", nil, false)
		require.True(t, ok)
		assert.Equal(t, first.Name, again.Name, "selection must be deterministic for identical state")
	}
}

func TestSelectOptimalTieBreaksByRegistrationOrder(t *testing.T) {
	g := NewRegistry()
	// Identical stats; later region has a cheaper tier, but with cost
	// optimization off the tier must not influence the score, so the
	// first-registered region wins the tie.
	expensive := testDefinition("first-expensive")
	expensive.CostTier = 3
	cheap := testDefinition("second-cheap")
	cheap.CostTier = 1
	require.NoError(t, g.Register(expensive))
	require.NoError(t, g.Register(cheap))

	s := NewSelector(g)
	selected, ok := s.SelectOptimal("https://example.com", nil, false)
	require.True(t, ok)
	assert.Equal(t, "first-expensive", selected.Name)
}

func TestSelectOptimalCostFactorWhenPreferred(t *testing.T) {
	g := NewRegistry()
	expensive := testDefinition("expensive")
	expensive.CostTier = 3
	cheap := testDefinition("cheap")
	cheap.CostTier = 1
	require.NoError(t, g.Register(expensive))
	require.NoError(t, g.Register(cheap))

	s := NewSelector(g)
	selected, ok := s.SelectOptimal("https://example.com", nil, true)
	require.True(t, ok)
	assert.Equal(t, "cheap", selected.Name)
}

func TestSelectOptimalBudgetExclusion(t *testing.T) {
	g := NewRegistry()
	pricey := testDefinition("pricey")
	pricey.CostPerExtraction = 0.01
	affordable := testDefinition("affordable")
	affordable.CostPerExtraction = 0.001
	require.NoError(t, g.Register(pricey))
	require.NoError(t, g.Register(affordable))
	seedStats(t, g, "pricey", 100, 0) // would win on score

	budget := 0.005
	s := NewSelector(g)
	selected, ok := s.SelectOptimal("https://example.com", &budget, false)
	require.True(t, ok)
	assert.Equal(t, "affordable", selected.Name)
}

func TestSelectOptimalNoCandidates(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))
	g.SetStatus("r1", api.RegionMaintenance)

	s := NewSelector(g)
	_, ok := s.SelectOptimal("https://example.com", nil, false)
	assert.False(t, ok)

	// Budget excluding everything also yields no selection.
	g.SetStatus("r1", api.RegionAvailable)
	budget := 0.0000001
	_, ok = s.SelectOptimal("https://example.com", &budget, false)
	assert.False(t, ok)
}

func TestSelectOptimalGeoAffinity(t *testing.T) {
	g := NewRegistry()
	us := testDefinition("us-central")
	us.RegionCode = "us-central1"
	eu := testDefinition("europe-west")
	eu.RegionCode = "europe-west1"
	require.NoError(t, g.Register(us))
	require.NoError(t, g.Register(eu))

	s := NewSelector(g)
	// Otherwise identical regions: the luma affinity bonus must tip the
	// score toward the european region despite its later registration.
	selected, ok := s.SelectOptimal("https://lu.ma/some-conference", nil, false)
	require.True(t, ok)
	assert.Equal(t, "europe-west", selected.Name)
}

func TestScoreRateLimitPenaltyPhases(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	s := NewSelector(g)
	base := time.Now()
	s.now = func() time.Time { return base }

	clean := g.All()[0]
	cleanScore := s.score(clean, "https://example.com", false)

	recent := clean
	ts := base.Add(-time.Minute)
	recent.LastRateLimit = &ts
	recentScore := s.score(recent, "https://example.com", false)

	stale := clean
	ts2 := base.Add(-2 * time.Hour) // past the 30 minute cooldown
	stale.LastRateLimit = &ts2
	staleScore := s.score(stale, "https://example.com", false)

	assert.Greater(t, cleanScore, staleScore)
	assert.Greater(t, staleScore, recentScore)
}

func TestDecayScore(t *testing.T) {
	assert.InDelta(t, 1.0, decayScore(0), 1e-9)
	assert.InDelta(t, 0.5, decayScore(12*time.Hour), 1e-9)
	assert.InDelta(t, 0.0, decayScore(24*time.Hour), 1e-9)
	assert.InDelta(t, 0.0, decayScore(48*time.Hour), 1e-9)
}
