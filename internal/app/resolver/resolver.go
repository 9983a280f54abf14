// Package resolver turns track identifiers into playable audio, playlists and
// related candidates, failing over across backend mirrors.
package resolver

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/relaytune/internal/app/failover"
	"github.com/osa030/relaytune/internal/app/filter"
	"github.com/osa030/relaytune/internal/domain/playlist"
	"github.com/osa030/relaytune/internal/domain/track"
	"github.com/osa030/relaytune/internal/infra/invidious"
	"github.com/osa030/relaytune/internal/infra/metrics"
	"github.com/osa030/relaytune/internal/infra/piped"
)

// StreamAPI is the stream/playlist backend.
type StreamAPI interface {
	Streams(ctx context.Context, baseURL, videoID string) (*piped.StreamsResponse, error)
	Playlist(ctx context.Context, baseURL, playlistID string) (*piped.PlaylistResponse, error)
	PlaylistNextPage(ctx context.Context, baseURL, playlistID, nextPage string) (*piped.PlaylistResponse, error)
}

// MetadataAPI is the genre backend.
type MetadataAPI interface {
	Genre(ctx context.Context, baseURL, videoID string) (string, error)
}

// Directory lists mirrors of a backend family.
type Directory interface {
	Instances(ctx context.Context) ([]string, error)
}

// Ranker orders mirrors by preference.
type Ranker interface {
	Rank(ctx context.Context, domains []string, checkPath string) ([]string, error)
}

// Config holds resolver dependencies.
type Config struct {
	Streams           StreamAPI
	Metadata          MetadataAPI
	StreamDomains     *failover.Domains
	MetadataDomains   *failover.Domains
	StreamDirectory   Directory
	MetadataDirectory Directory
	StreamCheckPath   string
	MetadataCheckPath string
	Ranker            Ranker // optional; nil keeps directory order
	FilterSettings    map[string]map[string]any
	Metrics           *metrics.Metrics
}

type family struct {
	name      Family
	domains   *failover.Domains
	directory Directory
	checkPath string
}

// Resolver is the source resolver. It is owned by the orchestrator
// goroutine and is not safe for concurrent use.
type Resolver struct {
	streams  StreamAPI
	metadata MetadataAPI
	stream   *family
	meta     *family
	ranker   Ranker
	filters  *filter.Chain
	metrics  *metrics.Metrics
}

// New creates a resolver and its eligibility filter chain.
func New(cfg Config) (*Resolver, error) {
	if cfg.Streams == nil || cfg.Metadata == nil {
		return nil, errors.New("stream and metadata apis are required")
	}
	if cfg.StreamDomains == nil || cfg.MetadataDomains == nil {
		return nil, errors.New("stream and metadata domains are required")
	}

	r := &Resolver{
		streams:  cfg.Streams,
		metadata: cfg.Metadata,
		stream: &family{
			name:      FamilyStream,
			domains:   cfg.StreamDomains,
			directory: cfg.StreamDirectory,
			checkPath: cfg.StreamCheckPath,
		},
		meta: &family{
			name:      FamilyMetadata,
			domains:   cfg.MetadataDomains,
			directory: cfg.MetadataDirectory,
			checkPath: cfg.MetadataCheckPath,
		},
		ranker:  cfg.Ranker,
		metrics: cfg.Metrics,
	}

	chain, err := filter.NewDefaultChain(r, cfg.FilterSettings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter chain")
	}
	r.filters = chain
	return r, nil
}

// FetchAudioAndMetadata fills in the audio URL, title and duration of t.
// t is only modified when the lookup succeeds.
func (r *Resolver) FetchAudioAndMetadata(ctx context.Context, t *track.Track) error {
	return r.withFailover(ctx, "fetch audio", func() error {
		var resp *piped.StreamsResponse
		err := r.callStream(func(base string) (err error) {
			resp, err = r.streams.Streams(ctx, base, t.ID)
			return err
		})
		if err != nil {
			return err
		}

		best, ok := bestAudioStream(resp.AudioStreams)
		if !ok {
			return errors.Wrapf(ErrNoAudioStream, "id=%s", t.ID)
		}
		t.AudioStreamURL = best.URL
		t.Title = resp.Title
		t.Duration = time.Duration(resp.Duration * float64(time.Second))
		zlog.Debug().Msgf("resolved audio: id=%s bitrate=%d title=%s", t.ID, best.Bitrate, t.Title)
		return nil
	})
}

// FetchPlaylist returns the playlist entries in backend order across all pages.
// A failed page is retried on the next mirror without refetching earlier pages.
func (r *Resolver) FetchPlaylist(ctx context.Context, playlistID string) (*playlist.Playlist, error) {
	pl := &playlist.Playlist{ID: playlistID}
	var next string

	err := r.withFailover(ctx, "fetch playlist", func() error {
		for {
			var page *piped.PlaylistResponse
			err := r.callStream(func(base string) (err error) {
				if pl.Pages == 0 {
					page, err = r.streams.Playlist(ctx, base, playlistID)
				} else {
					page, err = r.streams.PlaylistNextPage(ctx, base, playlistID, next)
				}
				return err
			})
			if err != nil {
				return err
			}

			if pl.Pages == 0 {
				pl.Name = page.Name
			}
			pl.Pages++
			for _, rs := range page.RelatedStreams {
				if rs.IsPlaylist() {
					continue
				}
				id, err := track.ParseVideoID(rs.URL)
				if err != nil {
					zlog.Debug().Msgf("skipping playlist entry: url=%s error=%v", rs.URL, err)
					continue
				}
				pl.Tracks = append(pl.Tracks, track.Track{SourceURL: track.WatchURL(id), ID: id})
			}

			if page.NextPage == nil || *page.NextPage == "" {
				return nil
			}
			next = *page.NextPage
		}
	})
	if err != nil {
		return nil, err
	}
	if len(pl.Tracks) == 0 {
		return nil, errors.Wrapf(ErrEmptyPlaylist, "id=%s", playlistID)
	}

	zlog.Info().Msgf("fetched playlist: id=%s name=%s pages=%d tracks=%d", playlistID, pl.Name, pl.Pages, len(pl.Tracks))
	return pl, nil
}

// FindRelatedCandidate returns the first related entry of seedID that passes
// every eligibility filter. The returned track is not resolved.
func (r *Resolver) FindRelatedCandidate(ctx context.Context, seedID string, excluded filter.ExcludedSet) (track.Track, error) {
	var found track.Track

	err := r.withFailover(ctx, "find related", func() error {
		var resp *piped.StreamsResponse
		err := r.callStream(func(base string) (err error) {
			resp, err = r.streams.Streams(ctx, base, seedID)
			return err
		})
		if err != nil {
			return err
		}

		for _, rs := range resp.RelatedStreams {
			cand := filter.Candidate{URL: rs.URL, Title: rs.Title}
			cand.DurationSeconds, cand.DurationKnown = rs.DurationSeconds()
			if !rs.IsPlaylist() {
				id, err := track.ParseVideoID(rs.URL)
				if err != nil {
					continue
				}
				cand.ID = id
			}

			result, err := r.filters.Execute(ctx, cand, excluded)
			if err != nil {
				return err
			}
			if !result.Accepted {
				r.metrics.FilterRejected(result.Code)
				continue
			}

			found = track.Track{SourceURL: track.WatchURL(cand.ID), ID: cand.ID}
			zlog.Info().Msgf("found related candidate: seed=%s id=%s title=%s", seedID, cand.ID, cand.Title)
			return nil
		}
		return errors.Wrapf(ErrNoRelatedFound, "seed=%s candidates=%d", seedID, len(resp.RelatedStreams))
	})
	return found, err
}

// Genre looks up the genre of a video on the current metadata mirror.
func (r *Resolver) Genre(ctx context.Context, videoID string) (string, error) {
	var genre string
	err := r.callMetadata(func(base string) (err error) {
		genre, err = r.metadata.Genre(ctx, base, videoID)
		return err
	})
	if errors.Is(err, ErrVideoUnavailable) {
		// No metadata means no genre: the candidate fails the genre check.
		zlog.Debug().Msgf("genre unavailable: id=%s error=%v", videoID, err)
		return "", nil
	}
	return genre, err
}

// Mirrors returns the rotation state of the stream and metadata families.
// It may be called from any goroutine.
func (r *Resolver) Mirrors() []failover.Snapshot {
	return []failover.Snapshot{r.stream.domains.Snapshot(), r.meta.domains.Snapshot()}
}

func (r *Resolver) callStream(fn func(base string) error) error {
	return call(r.stream, fn)
}

func (r *Resolver) callMetadata(fn func(base string) error) error {
	return call(r.meta, fn)
}

// call runs fn against the family's current mirror. A refusal of the item
// itself is a content error and leaves the mirror in place.
func call(f *family, fn func(base string) error) error {
	base := f.domains.Current()
	if err := fn(base); err != nil {
		if errors.Is(err, piped.ErrUnavailable) || errors.Is(err, invidious.ErrUnavailable) {
			f.domains.MarkSuccess()
			return errors.Mark(errors.Wrapf(err, "%s backend %s", f.name, base), ErrVideoUnavailable)
		}
		return &BackendError{Family: f.name, Domain: base, Err: err}
	}
	f.domains.MarkSuccess()
	return nil
}

// bestAudioStream picks the highest bitrate. Among equal bitrates the last
// one in backend order wins.
func bestAudioStream(streams []piped.AudioStream) (piped.AudioStream, bool) {
	if len(streams) == 0 {
		return piped.AudioStream{}, false
	}
	sorted := append([]piped.AudioStream(nil), streams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Bitrate < sorted[j].Bitrate
	})
	return sorted[len(sorted)-1], true
}
