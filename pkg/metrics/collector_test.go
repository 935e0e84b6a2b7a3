package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cadence/pkg/types"
)

type staticSource struct {
	sess *types.Session
}

func (s staticSource) Snapshot() *types.Session { return s.sess }

func TestCollectorCollect(t *testing.T) {
	tests := []struct {
		name       string
		sess       *types.Session
		wantActive float64
		wantGuests float64
		wantQueue  float64
	}{
		{
			name: "no session",
		},
		{
			name: "ended session",
			sess: &types.Session{ID: "s1", IsRunning: false, Guests: map[string]types.Guest{"g1": {ID: "g1"}}},
		},
		{
			name: "running session",
			sess: &types.Session{
				ID:        "s1",
				IsRunning: true,
				Guests: map[string]types.Guest{
					"g1": {ID: "g1", Username: "ana"},
					"g2": {ID: "g2", Username: "bo"},
				},
				Playlist: &types.Playlist{QueuedSongs: []types.Song{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
			},
			wantActive: 1,
			wantGuests: 2,
			wantQueue:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(staticSource{sess: tt.sess}, 0)
			c.collect()

			assert.Equal(t, tt.wantActive, testutil.ToFloat64(SessionActive))
			assert.Equal(t, tt.wantGuests, testutil.ToFloat64(SessionGuests))
			assert.Equal(t, tt.wantQueue, testutil.ToFloat64(SessionQueueLength))
		})
	}
}

func TestCollectorStopIsIdempotent(t *testing.T) {
	c := NewCollector(staticSource{}, 0)
	c.Start()
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
