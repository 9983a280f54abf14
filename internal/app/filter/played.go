package filter

import (
	"context"
)

// PlayedFilter rejects candidates already offered to the playback driver.
// Only exact ID matches count; re-uploads of the same song are distinct videos.
type PlayedFilter struct{}

// NewPlayedFilter creates a new played filter.
func NewPlayedFilter() *PlayedFilter {
	return &PlayedFilter{}
}

// Name returns the filter name.
func (f *PlayedFilter) Name() string {
	return "played_filter"
}

// Description returns the filter description.
func (f *PlayedFilter) Description() string {
	return "Rejects tracks that were already played in this run"
}

// ReturnCodes returns possible return codes.
func (f *PlayedFilter) ReturnCodes() []string {
	return []string{"already_played"}
}

// ValidateConfig validates the filter configuration.
func (f *PlayedFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the candidate was already played.
func (f *PlayedFilter) Check(ctx context.Context, c Candidate, excluded ExcludedSet) (Result, error) {
	if excluded != nil && excluded.Has(c.ID) {
		return Reject("already_played"), nil
	}
	return Accept(), nil
}

func init() {
	Register("played_filter", func() Filter {
		return &PlayedFilter{}
	})
}
