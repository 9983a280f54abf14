// Package filter provides the eligibility filter chain for related candidates.
package filter

import (
	"context"
)

// Candidate is a related-stream entry considered for the queue.
type Candidate struct {
	URL             string
	ID              string
	Title           string
	DurationSeconds int64
	DurationKnown   bool // false when the backend omitted or garbled the duration
}

// ExcludedSet reports IDs that must not be offered again.
type ExcludedSet interface {
	Has(id string) bool
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "playlist_link", "already_played", "genre_mismatch"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for candidate filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check performs the filter check. An error means the check itself
	// could not be performed (e.g. a metadata lookup failed).
	Check(ctx context.Context, c Candidate, excluded ExcludedSet) (Result, error)
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
