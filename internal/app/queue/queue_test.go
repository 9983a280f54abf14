package queue

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/relaytune/internal/domain/track"
)

func entryIDs(q *Queue) []string {
	ids := make([]string, len(q.entries))
	for i, e := range q.entries {
		ids[i] = e.Source.ID()
	}
	return ids
}

func remote(id string) track.Source {
	return track.RemoteSource(track.Track{SourceURL: track.WatchURL(id), ID: id})
}

func TestQueue_AppendKeepsOrderWithoutDedup(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c", "a"} {
		q.Append(remote(id), OriginPlaylist)
	}

	assert.Equal(t, []string{"a", "b", "c", "a"}, entryIDs(q))
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, 0, q.Cursor())

	e, err := q.At(0)
	require.NoError(t, err)
	assert.Equal(t, StatePending, e.State)
	assert.Equal(t, OriginPlaylist, e.Origin)
}

func TestQueue_AppendResolved(t *testing.T) {
	q := New()
	e := q.Append(track.RemoteSource(track.Track{ID: "a", AudioStreamURL: "https://cdn/a"}), OriginInput)
	assert.Equal(t, StateResolved, e.State)
}

func TestQueue_Cursor(t *testing.T) {
	q := New()
	q.Append(remote("a"), OriginInput)
	q.Append(remote("b"), OriginRelated)

	assert.Equal(t, "a", q.Next().Source.ID())
	assert.False(t, q.AdvanceCursor())
	assert.Equal(t, "b", q.Next().Source.ID())
	assert.True(t, q.AdvanceCursor())
	assert.Nil(t, q.Next())

	// Never beyond the length.
	assert.True(t, q.AdvanceCursor())
	assert.Equal(t, 2, q.Cursor())
}

func TestQueue_HandedAndPlaying(t *testing.T) {
	q := New()
	a := q.Append(remote("a"), OriginPlaylist)
	dup := q.Append(remote("a"), OriginPlaylist)
	b := q.Append(remote("b"), OriginPlaylist)

	assert.Nil(t, q.Current())
	assert.Equal(t, -1, q.Playing())

	q.Hand(a)
	q.AdvanceCursor()
	dup.State = StateEnded
	q.AdvanceCursor()
	q.Hand(b)
	q.AdvanceCursor()

	assert.Equal(t, StatePlaying, a.State)
	assert.Equal(t, []string{"a", "b"}, q.HandedIDs())
	assert.Equal(t, 2, q.Handed())
	assert.Equal(t, 2, q.Ahead())

	assert.Same(t, a, q.Started())
	assert.Same(t, b, q.Started())
	// The current entry never passes the last handed one.
	assert.Same(t, b, q.Started())
	assert.Equal(t, 0, q.Ahead())

	q.Rewind(2)
	assert.Equal(t, -1, q.Playing())
	assert.Same(t, a, q.Started())
	q.Rewind(5)
	assert.Equal(t, -1, q.Playing())

	at, err := q.HandedAt(1)
	require.NoError(t, err)
	assert.Same(t, b, at)
	_, err = q.HandedAt(2)
	assert.True(t, errors.Is(err, ErrNotHanded))
}

func handedQueue(ids ...string) (*Queue, []*Entry) {
	q := New()
	entries := make([]*Entry, len(ids))
	for i, id := range ids {
		entries[i] = q.Append(remote(id), OriginPlaylist)
		q.Hand(entries[i])
		q.AdvanceCursor()
	}
	return q, entries
}

func TestQueue_Rehand(t *testing.T) {
	tests := []struct {
		name        string
		started     int
		index       int
		wantHanded  []string
		wantPlaying int
	}{
		{"current item", 2, 1, []string{"a", "c", "b"}, 0},
		{"item before current", 3, 0, []string{"b", "c", "a"}, 1},
		{"item after current", 1, 2, []string{"a", "b", "c"}, 0},
		{"nothing started", 0, 0, []string{"b", "c", "a"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := handedQueue("a", "b", "c")
			for i := 0; i < tt.started; i++ {
				q.Started()
			}

			require.NoError(t, q.Rehand(tt.index))
			assert.Equal(t, tt.wantHanded, q.HandedIDs())
			assert.Equal(t, tt.wantPlaying, q.Playing())
			assert.Equal(t, 3, q.Len())
		})
	}

	q, _ := handedQueue("a")
	assert.True(t, errors.Is(q.Rehand(1), ErrNotHanded))
}

func TestQueue_Unhand(t *testing.T) {
	q, entries := handedQueue("a", "b", "c")
	assert.True(t, errors.Is(q.Unhand(3), ErrNotHanded))

	q.Started()
	q.Started()
	require.NoError(t, q.Unhand(1))

	assert.Equal(t, StateEnded, entries[1].State)
	assert.Equal(t, []string{"a", "c"}, q.HandedIDs())
	// The engine moves on to c, which has not started yet.
	assert.Same(t, entries[0], q.Current())
	assert.Same(t, entries[2], q.Started())
	assert.Equal(t, 1, q.IndexOf(entries[1]))
	assert.Equal(t, 3, q.Len())
}

func TestQueue_Replace(t *testing.T) {
	q := New()
	q.Append(remote("a"), OriginInput)
	e, err := q.At(0)
	require.NoError(t, err)
	e.State = StatePlaying
	e.Repairs = 1

	replaced, err := q.Replace(0, remote("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, StatePending, replaced.State)
	assert.Equal(t, 1, replaced.Repairs)

	_, err = q.Replace(3, remote("z"))
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateResolved, "resolved"},
		{StatePlaying, "playing"},
		{StateEnded, "ended"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestPlayedSet(t *testing.T) {
	s := NewPlayedSet()
	assert.False(t, s.Has("a"))

	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"))

	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("c"))
	assert.Equal(t, 2, s.Len())
}

func TestPlayedSet_EvictedIDsStayPlayed(t *testing.T) {
	s := newPlayedSet(4)
	for i := 0; i < 10; i++ {
		require.True(t, s.Add(fmt.Sprintf("id-%d", i)))
	}

	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 4, s.recent.Len())
	assert.Equal(t, 6, s.evicted)
	assert.Equal(t, []string{"id-6", "id-7", "id-8", "id-9"}, s.recent.Keys())

	// Evicted from the window, still remembered by the filter.
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("id-%d", i)
		assert.True(t, s.Has(id), id)
		assert.False(t, s.Add(id), id)
	}
	for i := 0; i < 100; i++ {
		assert.False(t, s.Has(fmt.Sprintf("other-%d", i)))
	}
	assert.Equal(t, 10, s.Len())
}
