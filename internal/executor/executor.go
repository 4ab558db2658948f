package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentforge/internal/api"
	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"golang.org/x/time/rate"
)

const (
	// defaultTimeout bounds one extraction POST end to end.
	defaultTimeout = 120 * time.Second

	// defaultRetryAfter applies when a 429 arrives without a Retry-After
	// header.
	defaultRetryAfter = 1800 * time.Second

	// sourceHeader identifies this orchestrator to region services.
	sourceHeader = "agent-forge-distributed"
)

// backend selects which extraction path a request takes. The set is closed:
// standard POSTs to /extract, steel POSTs to /extract/steel with
// anti-detection options and bearer auth.
type backend int

const (
	standardBackend backend = iota
	steelBackend
)

// extractRequest is the wire payload for POST {base}/extract.
type extractRequest struct {
	URLs              []string               `json:"urls"`
	CalendarDiscovery bool                   `json:"calendar_discovery"`
	Budget            float64                `json:"budget"`
	Mode              string                 `json:"mode"`
	Options           map[string]interface{} `json:"options,omitempty"`
	Config            *steelConfig           `json:"config,omitempty"`
}

// steelConfig carries the premium automation options for /extract/steel.
type steelConfig struct {
	ProxyType       string `json:"proxy_type"`
	AntiDetection   bool   `json:"anti_detection"`
	SolveCaptcha    bool   `json:"solve_captcha"`
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	SessionTTL      int    `json:"session_ttl_seconds,omitempty"`
}

// extractResponse is the wire payload of a successful extraction.
type extractResponse struct {
	Results        []map[string]interface{} `json:"results"`
	EventsFound    int                      `json:"events_found"`
	Cost           float64                  `json:"cost"`
	ProcessingTime float64                  `json:"processing_time"`
	SourceIPs      []string                 `json:"source_ips"`
}

// Config holds executor settings.
type Config struct {
	// Timeout bounds one extraction call; zero means defaultTimeout.
	Timeout time.Duration

	// SteelAPIKey authenticates against the premium automation path.
	SteelAPIKey string

	// RequestsPerSecond paces outbound extraction calls across all
	// regions; zero disables pacing.
	RequestsPerSecond float64
}

// Executor performs one extraction attempt against one region, tracking the
// region's load slot for the duration of the call and classifying the
// outcome into the region's statistics.
type Executor struct {
	registry *region.Registry
	client   *http.Client
	limiter  *rate.Limiter
	cfg      Config
}

// New creates an executor over the given registry.
func New(registry *region.Registry, cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Executor{
		registry: registry,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Execute runs one extraction attempt for targetURL against the named
// region. The region's load slot is held for the duration of the call and
// released on every exit path. Outcomes mutate the region's statistics
// regardless of whether the caller handles the returned error:
//
//   - success: success count, last success, accumulated cost
//   - HTTP 429: rate-limited status, cooldown start (api.RateLimitError)
//   - anything else: errored status (api.ExtractionError)
func (e *Executor) Execute(ctx context.Context, targetURL, regionName string, opts api.ExtractOptions) (api.ExtractionResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return api.ExtractionResult{}, &api.ExtractionError{Region: regionName, URL: targetURL, Err: err}
		}
	}

	info, err := e.registry.Acquire(regionName)
	if err != nil {
		return api.ExtractionResult{}, &api.ExtractionError{Region: regionName, URL: targetURL, Err: err}
	}
	defer e.registry.Release(regionName)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	b := standardBackend
	if opts.UsePremiumAutomation {
		b = steelBackend
	}

	req, err := e.buildRequest(ctx, b, info, targetURL, opts)
	if err != nil {
		e.registry.RecordError(regionName)
		return api.ExtractionResult{}, &api.ExtractionError{Region: regionName, URL: targetURL, Err: err}
	}

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.registry.RecordError(regionName)
		return api.ExtractionResult{}, &api.ExtractionError{Region: regionName, URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	return e.classify(resp, info, targetURL, started)
}

// buildRequest assembles the HTTP request for the selected backend.
func (e *Executor) buildRequest(ctx context.Context, b backend, info api.RegionInfo, targetURL string, opts api.ExtractOptions) (*http.Request, error) {
	mode := "test"
	if info.EnhancedService {
		mode = "enhanced"
	}

	budget := 0.0
	if opts.BudgetLimit != nil {
		budget = *opts.BudgetLimit
	}

	payload := extractRequest{
		URLs:              []string{targetURL},
		CalendarDiscovery: opts.CalendarDiscovery,
		Budget:            budget,
		Mode:              mode,
	}

	endpoint := info.BaseURL + "/extract"
	if b == steelBackend {
		endpoint = info.BaseURL + "/extract/steel"
		payload.Config = &steelConfig{
			ProxyType:       "residential",
			AntiDetection:   true,
			SolveCaptcha:    true,
			WaitForSelector: "[data-event-card]",
			SessionTTL:      300,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Region", info.RegionCode)
	req.Header.Set("X-Source", sourceHeader)
	if b == steelBackend && e.cfg.SteelAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.SteelAPIKey)
	}
	return req, nil
}

// classify maps the HTTP response onto the error taxonomy and updates the
// region's statistics accordingly.
func (e *Executor) classify(resp *http.Response, info api.RegionInfo, targetURL string, started time.Time) (api.ExtractionResult, error) {
	switch {
	case resp.StatusCode == http.StatusOK:
		var body extractResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			e.registry.RecordError(info.Name)
			return api.ExtractionResult{}, &api.ExtractionError{
				Region: info.Name, URL: targetURL,
				Message: fmt.Sprintf("region %s returned malformed success body: %v", info.Name, err),
				Err:     err,
			}
		}

		cost := body.Cost
		if cost <= 0 {
			// Service did not report cost; fall back to the configured
			// per-extraction estimate.
			cost = info.CostPerExtraction
		}
		e.registry.RecordSuccess(info.Name, cost)

		processingTime := body.ProcessingTime
		if processingTime <= 0 {
			processingTime = time.Since(started).Seconds()
		}

		logging.Debug("Executor", "Extracted %s via %s: %d events, cost %.4f", targetURL, info.Name, body.EventsFound, cost)
		return api.ExtractionResult{
			URL:            targetURL,
			Region:         info.Name,
			Success:        true,
			EventsFound:    body.EventsFound,
			Cost:           cost,
			ProcessingTime: processingTime,
			SourceIPs:      body.SourceIPs,
			Events:         body.Results,
			CompletedAt:    time.Now(),
		}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		e.registry.RecordRateLimit(info.Name)
		logging.Warn("Executor", "Region %s rate limited, cooldown started (retry after %s)", info.Name, retryAfter)
		return api.ExtractionResult{}, api.NewRateLimitError(info.Name, retryAfter)

	case resp.StatusCode == http.StatusBadRequest:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		e.registry.RecordError(info.Name)
		if strings.Contains(strings.ToLower(string(raw)), "budget") {
			return api.ExtractionResult{}, &api.ExtractionError{
				Region: info.Name, URL: targetURL,
				BudgetExceeded: true,
				Message:        fmt.Sprintf("region %s rejected request: budget exceeded", info.Name),
			}
		}
		return api.ExtractionResult{}, &api.ExtractionError{
			Region: info.Name, URL: targetURL,
			Message: fmt.Sprintf("region %s rejected request: %s", info.Name, strings.TrimSpace(string(raw))),
		}

	default:
		e.registry.RecordError(info.Name)
		return api.ExtractionResult{}, &api.ExtractionError{
			Region: info.Name, URL: targetURL,
			Message: fmt.Sprintf("region %s returned status %d", info.Name, resp.StatusCode),
		}
	}
}
