package track

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SourceKind discriminates the Source variants.
type SourceKind int

const (
	KindRemote SourceKind = iota // Remote stream resolved through the backend
	KindLocal                    // Local file (reserved, never constructed)
)

// String returns the string representation of the kind.
func (k SourceKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Source is a playable item in the queue.
// Only the field matching Kind is set.
type Source struct {
	Kind   SourceKind
	Remote *Track
}

// RemoteSource wraps a remote track.
func RemoteSource(t Track) Source {
	return Source{Kind: KindRemote, Remote: &t}
}

// ID returns the identifier of the underlying item.
func (s Source) ID() string {
	if s.Kind == KindRemote && s.Remote != nil {
		return s.Remote.ID
	}
	return ""
}

// InputKind is the kind of URL given by the user.
type InputKind int

const (
	InputVideo InputKind = iota
	InputPlaylist
)

// Input is a parsed user URL.
type Input struct {
	Kind InputKind
	ID   string
	URL  string
}

// ParseInput classifies a user URL. Playlist links win over video links
// when both markers are present.
func ParseInput(raw string) (Input, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "list=") {
		id, err := ParsePlaylistID(raw)
		if err != nil {
			return Input{}, err
		}
		return Input{Kind: InputPlaylist, ID: id, URL: raw}, nil
	}
	id, err := ParseVideoID(raw)
	if err != nil {
		return Input{}, errors.Wrap(err, "failed to parse input")
	}
	return Input{Kind: InputVideo, ID: id, URL: raw}, nil
}
