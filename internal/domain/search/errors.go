package search

import (
	"fmt"
	"time"
)

// ValidationError reports rejected query input. No store access happens once
// one is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SearchUnavailableError wraps a spatial store failure. It is fatal for the
// call and never retried inside the engine.
type SearchUnavailableError struct {
	Query   LocationQuery
	Elapsed time.Duration
	Err     error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("spatial store unavailable after %s (center %.4f,%.4f radius %.1fkm): %v",
		e.Elapsed, e.Query.Latitude, e.Query.Longitude, e.Query.RadiusKm, e.Err)
}

func (e *SearchUnavailableError) Unwrap() error { return e.Err }

// TimeoutError is returned when the caller's deadline expires mid-call.
// In-flight sub-calls are abandoned and no cache write occurs.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search deadline exceeded after %s", e.Elapsed)
}

// CacheError wraps a cache store failure. It never escapes the engine; the
// orchestrator logs it and proceeds as if the lookup missed.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
