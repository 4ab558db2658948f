package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/api"
	"agentforge/internal/region"
)

func newTestRegistry(t *testing.T, name, baseURL string) *region.Registry {
	t.Helper()
	g := region.NewRegistry()
	require.NoError(t, g.Register(region.Definition{
		Name:              name,
		RegionCode:        "us-central1",
		BaseURL:           baseURL,
		CostTier:          1,
		CostPerExtraction: 0.0015,
		MaxConcurrent:     3,
		CooldownMinutes:   30,
		EnhancedService:   true,
	}))
	return g
}

func TestExecuteSuccess(t *testing.T) {
	var gotReq extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "us-central1", r.Header.Get("X-Region"))
		assert.Equal(t, "agent-forge-distributed", r.Header.Get("X-Source"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(extractResponse{
			Results:        []map[string]interface{}{{"name": "ETH Denver"}},
			EventsFound:    1,
			Cost:           0.0017,
			ProcessingTime: 1.2,
			SourceIPs:      []string{"34.66.1.1"},
		})
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	result, err := e.Execute(context.Background(), "https://lu.ma/ethdenver", "r1", api.ExtractOptions{CalendarDiscovery: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "r1", result.Region)
	assert.Equal(t, 1, result.EventsFound)
	assert.InDelta(t, 0.0017, result.Cost, 1e-9)
	assert.Equal(t, []string{"34.66.1.1"}, result.SourceIPs)

	assert.Equal(t, []string{"https://lu.ma/ethdenver"}, gotReq.URLs)
	assert.True(t, gotReq.CalendarDiscovery)
	assert.Equal(t, "enhanced", gotReq.Mode)

	info, _ := g.Get("r1")
	assert.Equal(t, 1, info.SuccessCount)
	assert.InDelta(t, 0.0017, info.TotalCost, 1e-9)
	assert.NotNil(t, info.LastSuccess)
	assert.Equal(t, 0, info.CurrentLoad, "load slot must be released")
}

func TestExecuteRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	require.Error(t, err)
	require.True(t, api.IsRateLimit(err))

	var rle *api.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "r1", rle.Region)
	assert.Equal(t, 600.0, rle.RetryAfter.Seconds())

	info, _ := g.Get("r1")
	assert.Equal(t, api.RegionRateLimited, info.Status)
	assert.Equal(t, 1, info.RateLimitCount)
	assert.NotNil(t, info.LastRateLimit)
	assert.Equal(t, 0, info.CurrentLoad)
}

func TestExecuteRateLimitDefaultRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	var rle *api.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 1800.0, rle.RetryAfter.Seconds())
}

func TestExecuteGenericError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	require.Error(t, err)
	assert.True(t, api.IsExtraction(err))
	assert.False(t, api.IsRateLimit(err))

	info, _ := g.Get("r1")
	assert.Equal(t, api.RegionError, info.Status)
	assert.Equal(t, 1, info.ErrorCount)
	assert.Equal(t, 0, info.CurrentLoad)
}

func TestExecuteBudgetExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "requested budget too low for extraction"}`))
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	var ee *api.ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.True(t, ee.BudgetExceeded)
}

func TestExecuteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	require.Error(t, err)
	assert.True(t, api.IsExtraction(err))

	info, _ := g.Get("r1")
	assert.Equal(t, api.RegionError, info.Status)
	assert.Equal(t, 0, info.CurrentLoad, "load slot must be released on transport failure")
}

func TestExecuteSteelBackend(t *testing.T) {
	var gotAuth string
	var gotReq extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/steel", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(extractResponse{EventsFound: 2, Cost: 0.01})
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{SteelAPIKey: "steel-key"})

	result, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{UsePremiumAutomation: true})
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, "Bearer steel-key", gotAuth)
	require.NotNil(t, gotReq.Config)
	assert.Equal(t, "residential", gotReq.Config.ProxyType)
	assert.True(t, gotReq.Config.AntiDetection)
}

func TestExecuteFallsBackToEstimatedCost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(extractResponse{EventsFound: 1})
	}))
	defer srv.Close()

	g := newTestRegistry(t, "r1", srv.URL)
	e := New(g, Config{})

	result, err := e.Execute(context.Background(), "https://example.com", "r1", api.ExtractOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.0015, result.Cost, 1e-9, "unreported cost falls back to the configured estimate")
}

func TestExecuteUnknownRegion(t *testing.T) {
	g := region.NewRegistry()
	e := New(g, Config{})

	_, err := e.Execute(context.Background(), "https://example.com", "ghost", api.ExtractOptions{})
	require.Error(t, err)
	assert.True(t, api.IsExtraction(err))
}
