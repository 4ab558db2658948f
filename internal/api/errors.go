package api

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError reports that a region answered HTTP 429 for an extraction
// attempt. It carries the region name and the retry-after hint so the retry
// coordinator can steer the next attempt elsewhere.
type RateLimitError struct {
	Region     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("region %s rate limited, retry after %s", e.Region, e.RetryAfter)
}

// IsRateLimit checks if an error is or wraps a RateLimitError.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// NewRateLimitError creates a RateLimitError for the given region.
func NewRateLimitError(region string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Region: region, RetryAfter: retryAfter}
}

// ExtractionError reports a failed extraction attempt that was not a rate
// limit: transport failure, non-2xx response, or a malformed success body.
type ExtractionError struct {
	Region string
	URL    string
	// BudgetExceeded marks the 400-with-budget-complaint variant returned
	// by region services when the supplied budget cannot cover the request.
	BudgetExceeded bool
	Message        string
	Err            error
}

func (e *ExtractionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("extraction failed on region %s for %s: %v", e.Region, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtraction checks if an error is or wraps an ExtractionError.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// RegionUnavailableError reports that no region could be selected at all:
// every region is in cooldown, overloaded, in maintenance, or excluded by
// the budget limit.
type RegionUnavailableError struct {
	Message string
}

func (e *RegionUnavailableError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "no extraction region available"
}

// IsRegionUnavailable checks if an error is or wraps a RegionUnavailableError.
func IsRegionUnavailable(err error) bool {
	var rue *RegionUnavailableError
	return errors.As(err, &rue)
}

// NotFoundError represents a resource not found error with contextual
// information (region, pipeline run, ...).
type NotFoundError struct {
	ResourceType string
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// NewRegionNotFoundError creates a NotFoundError for a region.
func NewRegionNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "region", ResourceName: name}
}
