package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewDefaultChain builds the chain in its fixed evaluation order:
// playlist link, already played, duration limit, genre.
// Cheap local checks run before the genre check, which may hit the network.
func NewDefaultChain(genres GenreLookup, settings map[string]map[string]any) (*Chain, error) {
	duration := NewDurationLimitFilter()
	if err := duration.ValidateConfig(settings[duration.Name()]); err != nil {
		return nil, errors.Wrapf(err, "filter %s", duration.Name())
	}
	genre := NewGenreFilter(genres)
	if err := genre.ValidateConfig(settings[genre.Name()]); err != nil {
		return nil, errors.Wrapf(err, "filter %s", genre.Name())
	}

	c := NewChain()
	c.Add(NewPlaylistLinkFilter())
	c.Add(NewPlayedFilter())
	c.Add(duration)
	c.Add(genre)
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate or fails.
func (c *Chain) Execute(ctx context.Context, cand Candidate, excluded ExcludedSet) (Result, error) {
	for _, f := range c.filters {
		result, err := f.Check(ctx, cand, excluded)
		if err != nil {
			return Result{}, errors.Wrapf(err, "filter %s failed", f.Name())
		}
		if !result.Accepted {
			zlog.Debug().Msgf("candidate rejected: id=%s filter=%s code=%s", cand.ID, f.Name(), result.Code)
			return result, nil
		}
	}
	return Accept(), nil
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
