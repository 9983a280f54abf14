package queue

import (
	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	playedWindow            = 2048
	playedEstimate          = 100_000
	playedFalsePositiveRate = 0.001
)

// PlayedSet holds every track ID offered to the playback driver during the
// run. It only grows.
//
// The most recent IDs are kept exactly. Older ones are evicted from the
// window and remembered only by the bloom filter, so memory stays bounded
// on endless radio sessions. An evicted ID is never reported as unplayed;
// a small share of never-played IDs may be reported as played once the
// window has overflowed.
type PlayedSet struct {
	recent  *lru.Cache[string, struct{}]
	history *bloom.BloomFilter
	evicted int
	total   int
}

// NewPlayedSet creates an empty set.
func NewPlayedSet() *PlayedSet {
	return newPlayedSet(playedWindow)
}

func newPlayedSet(window int) *PlayedSet {
	s := &PlayedSet{history: bloom.NewWithEstimates(playedEstimate, playedFalsePositiveRate)}
	recent, err := lru.NewWithEvict[string, struct{}](window, func(string, struct{}) {
		s.evicted++
	})
	if err != nil {
		panic(err) // window is a positive constant
	}
	s.recent = recent
	return s
}

// Add records id. It reports whether id was new.
func (s *PlayedSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s.recent.Add(id, struct{}{})
	s.history.AddString(id)
	s.total++
	return true
}

// Has reports whether id was played.
func (s *PlayedSet) Has(id string) bool {
	if s.recent.Contains(id) {
		return true
	}
	// Until the window overflows the exact answer is complete.
	return s.evicted > 0 && s.history.TestString(id)
}

// Len returns the number of played IDs.
func (s *PlayedSet) Len() int {
	return s.total
}
