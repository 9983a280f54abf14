// Package lookahead picks the next related track once the queue runs dry.
package lookahead

// SeedRing is a rotating list of track IDs used as seeds for related-track
// lookups. Each ID appears at most once.
type SeedRing struct {
	seeds []string
	index map[string]struct{}
}

// NewSeedRing creates an empty ring.
func NewSeedRing() *SeedRing {
	return &SeedRing{index: make(map[string]struct{})}
}

// Push appends id unless it is already in the ring.
func (r *SeedRing) Push(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := r.index[id]; ok {
		return false
	}
	r.index[id] = struct{}{}
	r.seeds = append(r.seeds, id)
	return true
}

// Next pops the front seed and re-appends it to the back.
func (r *SeedRing) Next() (string, bool) {
	if len(r.seeds) == 0 {
		return "", false
	}
	id := r.seeds[0]
	copy(r.seeds, r.seeds[1:])
	r.seeds[len(r.seeds)-1] = id
	return id, true
}

// Len returns the number of seeds.
func (r *SeedRing) Len() int {
	return len(r.seeds)
}

// Seeds returns the seeds front to back.
func (r *SeedRing) Seeds() []string {
	return append([]string(nil), r.seeds...)
}
