package playback

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/relaytune/internal/app/driver"
	"github.com/osa030/relaytune/internal/app/filter"
	"github.com/osa030/relaytune/internal/app/lookahead"
	"github.com/osa030/relaytune/internal/app/osmedia"
	"github.com/osa030/relaytune/internal/app/presentation"
	"github.com/osa030/relaytune/internal/app/queue"
	"github.com/osa030/relaytune/internal/app/resolver"
	"github.com/osa030/relaytune/internal/domain/playlist"
	"github.com/osa030/relaytune/internal/domain/track"
	"github.com/osa030/relaytune/internal/infra/mailbox"
	"github.com/osa030/relaytune/internal/infra/metrics"
)

const (
	minVolume = 0
	maxVolume = 100
)

// Resolver fetches playable data from the backends.
type Resolver interface {
	FetchAudioAndMetadata(ctx context.Context, t *track.Track) error
	FetchPlaylist(ctx context.Context, playlistID string) (*playlist.Playlist, error)
	FindRelatedCandidate(ctx context.Context, seedID string, excluded filter.ExcludedSet) (track.Track, error)
}

// Config holds orchestrator configuration.
type Config struct {
	BaseVolume              int
	ShufflePlaylist         bool
	PlayOnlyRecommendations bool
	MaxRepairAttempts       int
	Rand                    *rand.Rand // Playlist shuffle source (nil = time seeded)
	Metrics                 *metrics.Metrics
}

// Outputs are the mailboxes of the collaborators.
type Outputs struct {
	Driver       mailbox.Sender[driver.Command]
	Presentation mailbox.Sender[presentation.Command]
	OSMedia      mailbox.Sender[osmedia.Command]
}

// Orchestrator owns the queue and decides what the engine plays next.
// All state is touched by the Run goroutine only.
type Orchestrator struct {
	config    Config
	resolver  Resolver
	signals   <-chan Signal
	out       Outputs
	queue     *queue.Queue
	played    *queue.PlayedSet
	seeds     *lookahead.SeedRing
	lookahead *lookahead.Lookahead
	state     State
	volume    int
}

// New creates an orchestrator reading from signals.
func New(config Config, res Resolver, signals <-chan Signal, out Outputs) *Orchestrator {
	if config.Rand == nil {
		now := uint64(time.Now().UnixNano())
		config.Rand = rand.New(rand.NewPCG(now, now>>32))
	}
	seeds := lookahead.NewSeedRing()
	return &Orchestrator{
		config:    config,
		resolver:  res,
		signals:   signals,
		out:       out,
		queue:     queue.New(),
		played:    queue.NewPlayedSet(),
		seeds:     seeds,
		lookahead: lookahead.New(res, seeds),
		state:     StateIdle,
		volume:    clampVolume(config.BaseVolume),
	}
}

// Run loads input and handles signals until Quit, a fatal error or ctx
// cancellation. Every exit path shuts the collaborators down.
func (o *Orchestrator) Run(ctx context.Context, input string) error {
	defer o.shutdown()

	if err := o.start(ctx, input); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("playback loop stopped by context")
			return nil
		case sig, ok := <-o.signals:
			if !ok {
				return nil
			}
			done, err := o.handle(ctx, sig)
			if err != nil {
				zlog.Error().Err(err).Msg("playback loop stopped by error")
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (o *Orchestrator) start(ctx context.Context, input string) error {
	in, err := track.ParseInput(input)
	if err != nil {
		return err
	}

	o.out.Driver.Send(driver.SetVolume{Level: o.volume})
	o.out.Presentation.Send(presentation.SetVolumeDisplay{Level: o.volume})

	switch in.Kind {
	case track.InputPlaylist:
		pl, err := o.resolver.FetchPlaylist(ctx, in.ID)
		if err != nil {
			return errors.Wrap(err, "failed to load playlist")
		}
		if o.config.ShufflePlaylist {
			pl.Shuffle(o.config.Rand)
			zlog.Debug().Msgf("playlist shuffled: ids=%v", pl.TrackIDs())
		}
		for _, t := range pl.Tracks {
			o.queue.Append(track.RemoteSource(t), queue.OriginPlaylist)
		}
		zlog.Info().Msgf("playlist loaded: id=%s, tracks=%d, pages=%d, duration=%s",
			pl.ID, len(pl.Tracks), pl.Pages, pl.TotalDuration())
	case track.InputVideo:
		t, err := track.New(in.URL)
		if err != nil {
			return err
		}
		if o.config.PlayOnlyRecommendations {
			o.played.Add(t.ID)
			o.seeds.Push(t.ID)
			zlog.Info().Msgf("playing recommendations only: seed=%s", t.ID)
		} else {
			o.queue.Append(track.RemoteSource(t), queue.OriginInput)
		}
	}

	// The first track has nowhere to fall back to: any failure ends the run.
	if err := o.emitNext(ctx); err != nil {
		return errors.Wrap(err, "failed to start playback")
	}
	return o.ensureAhead(ctx)
}

func (o *Orchestrator) handle(ctx context.Context, sig Signal) (bool, error) {
	switch s := sig.(type) {
	case TrackStarted:
		o.onTrackStarted()
		return false, o.ensureAhead(ctx)
	case TrackEnded:
		if e := o.queue.Current(); e != nil {
			e.State = queue.StateEnded
		}
		zlog.Debug().Msgf("track ended: reason=%s", s.Reason)
		return false, o.ensureAhead(ctx)
	case PrepareNextFile:
		return false, o.ensureAhead(ctx)
	case BrokenURL:
		return false, o.repair(ctx)
	case PlayPrevious:
		if o.queue.Playing() >= 1 {
			// The engine's next start lands one before the current track.
			o.queue.Rewind(2)
			o.out.Driver.Send(driver.PlayPrevious{})
		}
	case PauseChanged:
		o.state = StatePlaying
		if s.Paused {
			o.state = StatePaused
		}
		o.out.Presentation.Send(presentation.SetPaused{Paused: s.Paused})
		o.out.OSMedia.Send(osmedia.SetPlaybackStatus{Paused: s.Paused})
	case Skip:
		o.out.Driver.Send(driver.PlayNext{})
	case TogglePause:
		o.out.Driver.Send(driver.TogglePause{})
	case SetPause:
		if s.Paused != (o.state == StatePaused) {
			o.out.Driver.Send(driver.TogglePause{})
		}
	case ChangeVolume:
		o.volume = clampVolume(o.volume + s.Delta)
		o.out.Driver.Send(driver.SetVolume{Level: o.volume})
		o.out.Presentation.Send(presentation.SetVolumeDisplay{Level: o.volume})
	case SwitchView:
		o.out.Presentation.Send(presentation.SetViewMode{Mode: s.Mode})
	case Quit:
		if s.Err != nil {
			return true, s.Err
		}
		zlog.Info().Msg("quit requested")
		return true, nil
	}
	return false, nil
}

func (o *Orchestrator) onTrackStarted() {
	if o.state == StateIdle {
		o.state = StatePlaying
	}
	e := o.queue.Started()
	if e == nil {
		return
	}
	t := e.Track()
	if t == nil {
		return
	}
	zlog.Info().Msgf("now playing: id=%s, title=%s", t.ID, t.DisplayTitle())
	o.out.Presentation.Send(presentation.SetNowPlayingText{Text: fmt.Sprintf("%s\n%s", t.DisplayTitle(), t.ID)})
	o.out.Presentation.Send(presentation.SetDuration{Seconds: int64(t.Duration.Seconds())})
	o.out.OSMedia.Send(osmedia.SetMetadataTitle{Text: t.DisplayTitle()})
}

// ensureAhead hands tracks to the engine until one follows the current one.
// Content failures are reported and leave playback running.
func (o *Orchestrator) ensureAhead(ctx context.Context) error {
	for o.queue.Ahead() < 1 || o.queue.Handed() < 2 {
		if err := o.emitNext(ctx); err != nil {
			return o.absorb(err)
		}
	}
	return nil
}

func (o *Orchestrator) absorb(err error) error {
	if resolver.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if resolver.IsContentError(err) || errors.Is(err, lookahead.ErrNoCandidate) || errors.Is(err, lookahead.ErrNoSeeds) {
		zlog.Warn().Msgf("nothing to queue next: error=%v", err)
		o.out.Presentation.Send(presentation.SetStatus{Text: "no next track: " + err.Error()})
		return nil
	}
	return err
}

// emitNext hands the next playable entry to the engine, running the
// lookahead when the queue is exhausted.
func (o *Orchestrator) emitNext(ctx context.Context) error {
	for {
		if o.queue.AtEnd() {
			t, err := o.lookahead.Next(ctx, o.played)
			if err != nil {
				return err
			}
			o.queue.Append(track.RemoteSource(t), queue.OriginRelated)
		}

		e := o.queue.Next()
		t := e.Track()
		if t == nil {
			zlog.Warn().Msgf("unsupported source skipped: kind=%s", e.Source.Kind)
			e.State = queue.StateEnded
			o.queue.AdvanceCursor()
			continue
		}
		if o.played.Has(t.ID) {
			zlog.Debug().Msgf("already played, skipped: id=%s", t.ID)
			e.State = queue.StateEnded
			o.queue.AdvanceCursor()
			continue
		}

		if !t.Resolved() {
			if err := o.resolver.FetchAudioAndMetadata(ctx, t); err != nil {
				if !resolver.IsContentError(err) {
					return err
				}
				zlog.Warn().Msgf("track skipped: id=%s, error=%v", t.ID, err)
				o.played.Add(t.ID)
				e.State = queue.StateEnded
				o.queue.AdvanceCursor()
				continue
			}
			e.State = queue.StateResolved
		}

		o.out.Driver.Send(driver.EnqueueAudio{URL: t.AudioStreamURL})
		o.played.Add(t.ID)
		o.seeds.Push(t.ID)
		o.queue.Hand(e)
		o.queue.AdvanceCursor()

		o.config.Metrics.TrackEnqueued(string(e.Origin))
		o.config.Metrics.SetQueueState(o.queue.Len(), o.played.Len())
		zlog.Info().Msgf("track enqueued: id=%s, title=%s, origin=%s", t.ID, t.DisplayTitle(), e.Origin)
		zlog.Debug().Msgf("queue state: cursor=%d/%d, handed=%v, seeds=%v",
			o.queue.Cursor(), o.queue.Len(), o.queue.HandedIDs(), o.seeds.Seeds())
		return nil
	}
}

// repair re-resolves the entry the engine failed to open and swaps the
// engine's playlist item for the fresh stream. The engine reports the start
// of an item before its failure, so the broken item is the current one.
func (o *Orchestrator) repair(ctx context.Context) error {
	index := max(o.queue.Playing(), 0)
	e, err := o.queue.HandedAt(index)
	if err != nil {
		zlog.Warn().Msgf("broken stream reported with nothing handed: index=%d", index)
		return nil
	}
	old := e.Track()
	if old == nil {
		return nil
	}

	if e.Repairs >= o.config.MaxRepairAttempts {
		return o.drop(ctx, index, old.ID, errors.Newf("repair attempts exhausted: attempts=%d", e.Repairs))
	}

	fresh, err := track.New(old.SourceURL)
	if err != nil {
		return o.drop(ctx, index, old.ID, err)
	}
	if err := o.resolver.FetchAudioAndMetadata(ctx, &fresh); err != nil {
		if resolver.IsContentError(err) {
			return o.drop(ctx, index, old.ID, err)
		}
		return err
	}

	if _, err := o.queue.Replace(o.queue.IndexOf(e), track.RemoteSource(fresh)); err != nil {
		return errors.Wrap(err, "failed to replace broken entry")
	}
	e.Repairs++
	e.State = queue.StatePlaying

	o.out.Driver.Send(driver.EnqueueAudio{URL: fresh.AudioStreamURL})
	o.out.Driver.Send(driver.RemoveQueuedItem{Index: index})
	if err := o.queue.Rehand(index); err != nil {
		return errors.Wrap(err, "failed to move repaired entry")
	}
	o.config.Metrics.URLRepaired()
	zlog.Info().Msgf("broken stream replaced: id=%s, index=%d, attempt=%d", fresh.ID, index, e.Repairs)
	return nil
}

func (o *Orchestrator) drop(ctx context.Context, index int, id string, cause error) error {
	zlog.Warn().Msgf("broken stream dropped: id=%s, index=%d, error=%v", id, index, cause)
	o.out.Driver.Send(driver.RemoveQueuedItem{Index: index})
	if err := o.queue.Unhand(index); err != nil {
		return errors.Wrap(err, "failed to drop broken entry")
	}
	o.out.Presentation.Send(presentation.SetStatus{Text: "dropped unplayable track " + id})
	return o.ensureAhead(ctx)
}

func (o *Orchestrator) shutdown() {
	o.out.Driver.Send(driver.Shutdown{})
	o.out.Presentation.Send(presentation.Quit{})
	o.out.OSMedia.Send(osmedia.Shutdown{})
}

func clampVolume(v int) int {
	return max(minVolume, min(maxVolume, v))
}
