package queue

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/relaytune/internal/domain/track"
)

// Errors
var (
	ErrOutOfRange = errors.New("queue index out of range")
	ErrNotHanded  = errors.New("no entry handed to the driver")
)

// Origin records why an entry was queued.
type Origin string

const (
	OriginInput    Origin = "input"
	OriginPlaylist Origin = "playlist"
	OriginRelated  Origin = "related"
)

// Entry is one position in the play queue.
type Entry struct {
	Source  track.Source
	State   State
	Origin  Origin
	Repairs int // broken URL repairs performed on this position
}

// Track returns the remote track of the entry, or nil.
func (e *Entry) Track() *track.Track {
	if e.Source.Kind != track.KindRemote {
		return nil
	}
	return e.Source.Remote
}

// Queue is an append-only list of entries with a cursor.
//
// The cursor is the index of the next entry to consider for playback.
// Entries that were actually sent to the playback driver are also kept in
// driver order, so that index i of the driver's own playlist is handed[i].
// Entries skipped on the way (already played) advance the cursor without
// being handed.
type Queue struct {
	entries []*Entry
	cursor  int
	handed  []*Entry
	playing int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{entries: make([]*Entry, 0), playing: -1}
}

// Append adds a source to the end of the queue. No dedup happens here.
func (q *Queue) Append(src track.Source, origin Origin) *Entry {
	e := &Entry{Source: src, State: initialState(src), Origin: origin}
	q.entries = append(q.entries, e)
	return e
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Cursor returns the index of the next entry to consider.
func (q *Queue) Cursor() int {
	return q.cursor
}

// AtEnd reports whether the cursor passed every entry.
func (q *Queue) AtEnd() bool {
	return q.cursor >= len(q.entries)
}

// At returns the entry at index i.
func (q *Queue) At(i int) (*Entry, error) {
	if i < 0 || i >= len(q.entries) {
		return nil, errors.Wrapf(ErrOutOfRange, "index=%d len=%d", i, len(q.entries))
	}
	return q.entries[i], nil
}

// Next returns the entry at the cursor, or nil at the end.
func (q *Queue) Next() *Entry {
	if q.AtEnd() {
		return nil
	}
	return q.entries[q.cursor]
}

// AdvanceCursor moves the cursor forward by one. It reports whether the
// cursor reached the end, meaning a lookahead fetch is required.
func (q *Queue) AdvanceCursor() bool {
	if q.cursor < len(q.entries) {
		q.cursor++
	}
	return q.AtEnd()
}

// Hand records that e was sent to the driver and marks it Playing.
func (q *Queue) Hand(e *Entry) {
	e.State = StatePlaying
	q.handed = append(q.handed, e)
}

// Handed returns the number of entries in the driver's playlist.
func (q *Queue) Handed() int {
	return len(q.handed)
}

// HandedAt returns the entry at driver index i.
func (q *Queue) HandedAt(i int) (*Entry, error) {
	if i < 0 || i >= len(q.handed) {
		return nil, errors.Wrapf(ErrNotHanded, "index=%d handed=%d", i, len(q.handed))
	}
	return q.handed[i], nil
}

// Rehand moves the entry at driver index i to the end of the driver
// playlist, matching a driver that removed the item and appended it again.
func (q *Queue) Rehand(i int) error {
	e, err := q.HandedAt(i)
	if err != nil {
		return err
	}
	q.remove(i)
	q.handed = append(q.handed, e)
	return nil
}

// Unhand forgets the entry at driver index i and marks it Ended.
func (q *Queue) Unhand(i int) error {
	e, err := q.HandedAt(i)
	if err != nil {
		return err
	}
	e.State = StateEnded
	q.remove(i)
	return nil
}

// remove drops handed[i]. The driver moves on to the item that takes the
// removed one's place, so that item has not started yet.
func (q *Queue) remove(i int) {
	q.handed = append(q.handed[:i], q.handed[i+1:]...)
	if q.playing >= i {
		q.playing--
	}
}

// Current returns the entry the driver is playing, or nil.
func (q *Queue) Current() *Entry {
	if q.playing < 0 || q.playing >= len(q.handed) {
		return nil
	}
	return q.handed[q.playing]
}

// Playing returns the driver index of the current entry, -1 before the
// first track started.
func (q *Queue) Playing() int {
	return q.playing
}

// Started moves the current entry to the next handed one.
func (q *Queue) Started() *Entry {
	if q.playing+1 < len(q.handed) {
		q.playing++
	}
	return q.Current()
}

// Rewind moves the current entry back by n, stopping before the first one.
func (q *Queue) Rewind(n int) {
	q.playing -= n
	if q.playing < -1 {
		q.playing = -1
	}
}

// Ahead returns how many handed entries follow the current one.
func (q *Queue) Ahead() int {
	return len(q.handed) - 1 - q.playing
}

// Replace swaps the source at index i in place, keeping the queue length.
// It is used by broken-URL repair only.
func (q *Queue) Replace(i int, src track.Source) (*Entry, error) {
	e, err := q.At(i)
	if err != nil {
		return nil, err
	}
	e.Source = src
	e.State = initialState(src)
	return e, nil
}

// IndexOf returns the queue index of e, or -1.
func (q *Queue) IndexOf(e *Entry) int {
	for i, x := range q.entries {
		if x == e {
			return i
		}
	}
	return -1
}

// HandedIDs returns the IDs of the handed entries in driver order.
func (q *Queue) HandedIDs() []string {
	ids := make([]string, len(q.handed))
	for i, e := range q.handed {
		ids[i] = e.Source.ID()
	}
	return ids
}

func initialState(src track.Source) State {
	if t := (&Entry{Source: src}).Track(); t != nil && t.Resolved() {
		return StateResolved
	}
	return StatePending
}
