package osmedia

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		want    Intent
		wantErr bool
	}{
		{"play", IntentPlay, false},
		{"pause", IntentPause, false},
		{"toggle", IntentToggle, false},
		{"next", IntentNext, false},
		{"previous", IntentPrevious, false},
		{"rewind", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownIntent))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Run(t *testing.T) {
	s := NewService(nil)
	commands := make(chan Command, 4)
	commands <- SetMetadataTitle{Text: "Song"}
	commands <- SetPlaybackStatus{Paused: true}
	commands <- Shutdown{}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), commands) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}

	np := s.NowPlaying()
	assert.Equal(t, "Song", np.Title)
	assert.True(t, np.Paused)
	assert.False(t, np.Active)
}

func TestService_RunStopsOnCancel(t *testing.T) {
	s := NewService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx, make(chan Command)))
	assert.False(t, s.NowPlaying().Active)
}

func TestService_Dispatch(t *testing.T) {
	var got []Intent
	s := NewService(func(i Intent) { got = append(got, i) })

	require.NoError(t, s.Dispatch(IntentToggle))
	require.NoError(t, s.Dispatch(IntentNext))
	assert.True(t, errors.Is(s.Dispatch(Intent(99)), ErrUnknownIntent))
	assert.Equal(t, []Intent{IntentToggle, IntentNext}, got)

	s.apply(Shutdown{})
	assert.Error(t, s.Dispatch(IntentPlay))
	assert.Len(t, got, 2)
}
