// Package playlist provides the Playlist domain entity.
package playlist

import (
	"math/rand/v2"
	"time"

	"github.com/osa030/relaytune/internal/domain/track"
)

// Playlist represents a remote playlist in backend order.
type Playlist struct {
	ID     string        // Playlist ID
	Name   string        // Playlist name
	Pages  int           // Number of pages fetched
	Tracks []track.Track // Tracks in received order
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the sum of the reported track durations.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// Shuffle reorders the tracks in place.
func (p *Playlist) Shuffle(r *rand.Rand) {
	r.Shuffle(len(p.Tracks), func(i, j int) {
		p.Tracks[i], p.Tracks[j] = p.Tracks[j], p.Tracks[i]
	})
}
