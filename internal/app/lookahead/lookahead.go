package lookahead

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/relaytune/internal/app/filter"
	"github.com/osa030/relaytune/internal/app/resolver"
	"github.com/osa030/relaytune/internal/domain/track"
)

// Errors
var (
	ErrNoCandidate = errors.New("no related candidate for any seed")
	ErrNoSeeds     = errors.New("seed ring is empty")
)

// Finder looks up the first eligible related track for a seed.
type Finder interface {
	FindRelatedCandidate(ctx context.Context, seedID string, excluded filter.ExcludedSet) (track.Track, error)
}

// Lookahead walks the seed ring until a seed yields a candidate.
type Lookahead struct {
	finder Finder
	ring   *SeedRing
}

// New creates a lookahead over ring.
func New(finder Finder, ring *SeedRing) *Lookahead {
	return &Lookahead{finder: finder, ring: ring}
}

// Next returns a related track for the first seed that has one. Each seed
// is tried at most once per call. Errors other than content errors are
// returned as is.
func (l *Lookahead) Next(ctx context.Context, excluded filter.ExcludedSet) (track.Track, error) {
	attempts := l.ring.Len()
	if attempts == 0 {
		return track.Track{}, ErrNoSeeds
	}

	for i := 0; i < attempts; i++ {
		seed, _ := l.ring.Next()
		t, err := l.finder.FindRelatedCandidate(ctx, seed, excluded)
		if err == nil {
			zlog.Debug().Msgf("related candidate found: seed=%s, id=%s", seed, t.ID)
			return t, nil
		}
		if resolver.IsContentError(err) {
			zlog.Debug().Msgf("no related candidate: seed=%s, error=%v", seed, err)
			continue
		}
		return track.Track{}, err
	}

	return track.Track{}, errors.Wrapf(ErrNoCandidate, "seeds=%d", attempts)
}
