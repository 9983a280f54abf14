// Package failover provides mirror rotation for a backend family.
package failover

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrAllDomainsDown = errors.New("all domains down")
	ErrNoDomains      = errors.New("domain list is empty")
)

// Domains tracks the mirror list of one backend family.
//
// cycleStart is the index of the last mirror that answered successfully.
// Advancing back onto it means every mirror has been tried since then.
// The resolver rotates it while the status server reads snapshots.
type Domains struct {
	mu         sync.Mutex
	name       string
	list       []string
	index      int
	cycleStart int
}

// Snapshot is a copy of the rotation state.
type Snapshot struct {
	Name       string   `json:"name"`
	Current    string   `json:"current"`
	Domains    []string `json:"domains"`
	Index      int      `json:"index"`
	CycleStart int      `json:"cycle_start"`
}

// New creates a rotation over list starting at startIndex.
func New(name string, list []string, startIndex int) (*Domains, error) {
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNoDomains, "family=%s", name)
	}
	if startIndex < 0 || startIndex >= len(list) {
		zlog.Warn().Msgf("domain index out of range, using 0: family=%s index=%d size=%d", name, startIndex, len(list))
		startIndex = 0
	}
	return &Domains{
		name:       name,
		list:       append([]string(nil), list...),
		index:      startIndex,
		cycleStart: startIndex,
	}, nil
}

// Name returns the family name.
func (d *Domains) Name() string {
	return d.name
}

// Current returns the mirror currently in use.
func (d *Domains) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.list[d.index]
}

// Len returns the number of mirrors.
func (d *Domains) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.list)
}

// Advance moves to the next mirror. It returns ErrAllDomainsDown when the
// rotation is back at the last known-good mirror.
func (d *Domains) Advance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = (d.index + 1) % len(d.list)
	if d.index == d.cycleStart {
		return errors.Wrapf(ErrAllDomainsDown, "family=%s tried=%d", d.name, len(d.list))
	}
	zlog.Debug().Msgf("advanced to next domain: family=%s domain=%s", d.name, d.list[d.index])
	return nil
}

// MarkSuccess records the current mirror as known-good.
func (d *Domains) MarkSuccess() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cycleStart = d.index
}

// Replace installs a refreshed mirror list and restarts the rotation at 0.
func (d *Domains) Replace(list []string) error {
	if len(list) == 0 {
		return errors.Wrapf(ErrNoDomains, "family=%s", d.name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list = append([]string(nil), list...)
	d.index = 0
	d.cycleStart = 0
	zlog.Info().Msgf("domain list replaced: family=%s size=%d first=%s", d.name, len(list), list[0])
	return nil
}

// Snapshot returns a copy of the current state.
func (d *Domains) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Name:       d.name,
		Current:    d.list[d.index],
		Domains:    append([]string(nil), d.list...),
		Index:      d.index,
		CycleStart: d.cycleStart,
	}
}
