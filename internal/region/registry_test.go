package region

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/api"
)

func testDefinition(name string) Definition {
	return Definition{
		Name:              name,
		RegionCode:        "us-central1",
		BaseURL:           "http://" + name + ".test",
		CostTier:          1,
		CostPerExtraction: 0.0015,
		MaxConcurrent:     3,
		CooldownMinutes:   30,
		EnhancedService:   true,
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{
		{"empty name", func(d *Definition) { d.Name = "" }, "empty name"},
		{"empty base url", func(d *Definition) { d.BaseURL = "" }, "empty baseUrl"},
		{"bad tier", func(d *Definition) { d.CostTier = 0 }, "cost tier"},
		{"negative cost", func(d *Definition) { d.CostPerExtraction = -1 }, "negative cost"},
		{"zero capacity", func(d *Definition) { d.MaxConcurrent = 0 }, "maxConcurrent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewRegistry()
			def := testDefinition("r1")
			tt.mutate(&def)
			err := g.Register(def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))
	err := g.Register(testDefinition("r1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	g := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, g.Register(testDefinition(name)))
	}

	infos := g.All()
	require.Len(t, infos, 3)
	assert.Equal(t, "zeta", infos[0].Name)
	assert.Equal(t, "alpha", infos[1].Name)
	assert.Equal(t, "mid", infos[2].Name)
}

// TestLoadBoundUnderConcurrency asserts the core load invariant: with
// maxConcurrent=3, concurrent acquire/release cycles never observe more
// than 3 held slots, and the load returns to 0 once all workers finish.
func TestLoadBoundUnderConcurrency(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	var maxObserved int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				info, err := g.Acquire("r1")
				if err != nil {
					// At capacity; yield and retry.
					time.Sleep(time.Millisecond)
					continue
				}
				load := int64(info.CurrentLoad)
				for {
					prev := atomic.LoadInt64(&maxObserved)
					if load <= prev || atomic.CompareAndSwapInt64(&maxObserved, prev, load) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				g.Release("r1")
				return
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxObserved, int64(3), "load must never exceed maxConcurrent")
	info, ok := g.Get("r1")
	require.True(t, ok)
	assert.Equal(t, 0, info.CurrentLoad, "load must return to zero after all workers complete")
}

func TestAcquireUnknownRegion(t *testing.T) {
	g := NewRegistry()
	_, err := g.Acquire("ghost")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestCooldownRecovery(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	base := time.Now()
	g.now = func() time.Time { return base }
	g.RecordRateLimit("r1")

	info, _ := g.Get("r1")
	assert.Equal(t, api.RegionRateLimited, info.Status)

	// 1 minute into a 30 minute cooldown: still excluded.
	g.now = func() time.Time { return base.Add(time.Minute) }
	assert.Empty(t, g.Available())

	// 31 minutes in: the very next Available call must recover it.
	g.now = func() time.Time { return base.Add(31 * time.Minute) }
	available := g.Available()
	require.Len(t, available, 1)
	assert.Equal(t, api.RegionAvailable, available[0].Status)
}

func TestAvailableExcludesSaturatedRegions(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	for i := 0; i < 3; i++ {
		_, err := g.Acquire("r1")
		require.NoError(t, err)
	}
	assert.Empty(t, g.Available(), "saturated region must not be selectable")

	g.Release("r1")
	assert.Len(t, g.Available(), 1)
}

func TestRecordSuccessAccumulatesCost(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	g.RecordSuccess("r1", 0.0015)
	g.RecordSuccess("r1", 0.0020)

	info, _ := g.Get("r1")
	assert.Equal(t, 2, info.SuccessCount)
	assert.InDelta(t, 0.0035, info.TotalCost, 1e-9)
	require.NotNil(t, info.LastSuccess)
}

func TestRecordErrorMarksRegion(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("r1")))

	g.RecordError("r1")
	info, _ := g.Get("r1")
	assert.Equal(t, api.RegionError, info.Status)
	assert.Equal(t, 1, info.ErrorCount)
	assert.Empty(t, g.Available())
}

func TestApplyDefinitionsReconciles(t *testing.T) {
	g := NewRegistry()
	require.NoError(t, g.Register(testDefinition("keep")))
	require.NoError(t, g.Register(testDefinition("drop")))
	g.RecordSuccess("keep", 0.0015)

	updated := testDefinition("keep")
	updated.CostPerExtraction = 0.0099
	fresh := testDefinition("new")

	require.NoError(t, g.ApplyDefinitions([]Definition{updated, fresh}))

	keep, _ := g.Get("keep")
	assert.InDelta(t, 0.0099, keep.CostPerExtraction, 1e-9)
	assert.Equal(t, 1, keep.SuccessCount, "statistics must survive config reload")

	dropped, _ := g.Get("drop")
	assert.Equal(t, api.RegionMaintenance, dropped.Status)

	_, ok := g.Get("new")
	assert.True(t, ok)
}
