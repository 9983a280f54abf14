// Package track provides the Track domain entity.
package track

import (
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrInvalidVideoURL    = errors.New("invalid video url")
	ErrInvalidPlaylistURL = errors.New("invalid playlist url")
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Track represents a remote music source.
// ID is derived from SourceURL once, in New. The remaining fields are
// empty until the resolver fills them.
type Track struct {
	SourceURL      string        // URL the track was created from
	ID             string        // Video ID
	AudioStreamURL string        // Playable audio URL (empty until resolved)
	Title          string        // Display title (empty until resolved)
	Duration       time.Duration // Track duration (0 until resolved)
}

// New creates a track from a video URL.
func New(sourceURL string) (Track, error) {
	id, err := ParseVideoID(sourceURL)
	if err != nil {
		return Track{}, err
	}
	return Track{SourceURL: sourceURL, ID: id}, nil
}

// Resolved reports whether the audio stream URL has been fetched.
func (t *Track) Resolved() bool {
	return t.AudioStreamURL != ""
}

// DisplayTitle returns the title, falling back to the ID for unresolved tracks.
func (t *Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}

// WatchURL returns the canonical source URL for a video ID.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

// ParseVideoID extracts the video ID from a watch URL, a short link, or a
// bare "/watch?v=" path as returned by the backend.
func ParseVideoID(raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if host == "youtu.be" {
			if id := strings.Trim(u.Path, "/"); id != "" {
				return id, nil
			}
		}
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
	}
	if id := valueAfter(raw, "v="); id != "" {
		return id, nil
	}
	return "", errors.Wrapf(ErrInvalidVideoURL, "url=%s", raw)
}

// ParsePlaylistID extracts the playlist ID from a URL containing "list=".
func ParsePlaylistID(raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil {
		if id := u.Query().Get("list"); id != "" {
			return id, nil
		}
	}
	if id := valueAfter(raw, "list="); id != "" {
		return id, nil
	}
	return "", errors.Wrapf(ErrInvalidPlaylistURL, "url=%s", raw)
}

// valueAfter returns the text after the last occurrence of marker up to the
// next query separator.
func valueAfter(raw, marker string) string {
	i := strings.LastIndex(raw, marker)
	if i < 0 {
		return ""
	}
	v := raw[i+len(marker):]
	if j := strings.IndexAny(v, "&#"); j >= 0 {
		v = v[:j]
	}
	return v
}
