package resolver

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Family identifies one of the two backend families.
type Family string

const (
	FamilyStream   Family = "stream"   // Piped: streams, related lists, playlists
	FamilyMetadata Family = "metadata" // Invidious: genre lookups
)

// Errors
var (
	ErrNoRelatedFound     = errors.New("no related video found")
	ErrNoAudioStream      = errors.New("no audio stream available")
	ErrEmptyPlaylist      = errors.New("playlist has no playable entries")
	ErrVideoUnavailable   = errors.New("video unavailable")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// BackendError is a transient failure of one mirror. The failover loop
// reacts to it by advancing the family's mirror.
type BackendError struct {
	Family Family
	Domain string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend %s: %v", e.Family, e.Domain, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err means a backend family is unreachable even
// after refreshing its mirror list.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsContentError reports whether err is a content-policy failure that
// should be handled by trying another track or seed.
func IsContentError(err error) bool {
	return errors.Is(err, ErrNoRelatedFound) ||
		errors.Is(err, ErrNoAudioStream) ||
		errors.Is(err, ErrEmptyPlaylist) ||
		errors.Is(err, ErrVideoUnavailable)
}
