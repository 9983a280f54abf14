package filter

import (
	"context"
	"strings"
)

// PlaylistLinkFilter rejects related entries that point at a playlist or mix.
type PlaylistLinkFilter struct{}

// NewPlaylistLinkFilter creates a new playlist link filter.
func NewPlaylistLinkFilter() *PlaylistLinkFilter {
	return &PlaylistLinkFilter{}
}

func (f *PlaylistLinkFilter) Name() string {
	return "playlist_link_filter"
}

func (f *PlaylistLinkFilter) Description() string {
	return "Rejects related entries linking to a playlist or mix"
}

func (f *PlaylistLinkFilter) ReturnCodes() []string {
	return []string{"playlist_link"}
}

func (f *PlaylistLinkFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *PlaylistLinkFilter) Check(ctx context.Context, c Candidate, excluded ExcludedSet) (Result, error) {
	if strings.Contains(c.URL, "/playlist") {
		return Reject("playlist_link"), nil
	}
	return Accept(), nil
}

func init() {
	Register("playlist_link_filter", func() Filter {
		return &PlaylistLinkFilter{}
	})
}
