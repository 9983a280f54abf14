package failover

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomains_AdvanceCoversEveryMirrorOnce(t *testing.T) {
	list := []string{"https://a", "https://b", "https://c", "https://d"}

	for start := range list {
		d, err := New("stream", list, start)
		require.NoError(t, err)

		seen := map[string]bool{d.Current(): true}
		for i := 0; i < len(list)-1; i++ {
			require.NoError(t, d.Advance(), "advance %d from start %d", i+1, start)
			assert.False(t, seen[d.Current()], "mirror visited twice: %s", d.Current())
			seen[d.Current()] = true
		}

		err = d.Advance()
		assert.True(t, errors.Is(err, ErrAllDomainsDown), "start %d: got %v", start, err)
		assert.Len(t, seen, len(list))
	}
}

func TestDomains_SingleMirror(t *testing.T) {
	d, err := New("metadata", []string{"https://only"}, 0)
	require.NoError(t, err)

	assert.True(t, errors.Is(d.Advance(), ErrAllDomainsDown))
	assert.Equal(t, "https://only", d.Current())
}

func TestDomains_MarkSuccessStartsFreshCycle(t *testing.T) {
	d, err := New("stream", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)

	require.NoError(t, d.Advance()) // b
	d.MarkSuccess()

	require.NoError(t, d.Advance()) // c
	require.NoError(t, d.Advance()) // a
	err = d.Advance()               // back at b
	assert.True(t, errors.Is(err, ErrAllDomainsDown))
	assert.Equal(t, "b", d.Current())
}

func TestDomains_Replace(t *testing.T) {
	d, err := New("stream", []string{"a", "b"}, 1)
	require.NoError(t, err)

	require.NoError(t, d.Replace([]string{"x", "y", "z"}))
	snap := d.Snapshot()
	assert.Equal(t, []string{"x", "y", "z"}, snap.Domains)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.CycleStart)
	assert.Equal(t, "x", snap.Current)
	assert.Equal(t, "x", d.Current())

	assert.True(t, errors.Is(d.Replace(nil), ErrNoDomains))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		list      []string
		start     int
		wantIndex int
		wantErr   bool
	}{
		{name: "valid index", list: []string{"a", "b"}, start: 1, wantIndex: 1},
		{name: "index out of range", list: []string{"a", "b"}, start: 5, wantIndex: 0},
		{name: "negative index", list: []string{"a"}, start: -1, wantIndex: 0},
		{name: "empty list", list: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New("stream", tt.list, tt.start)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, d.Snapshot().Index)
			assert.Equal(t, tt.wantIndex, d.Snapshot().CycleStart)
		})
	}
}
