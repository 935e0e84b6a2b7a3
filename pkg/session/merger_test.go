package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/types"
)

func song(id string) *types.Song {
	return &types.Song{ID: id, TrackName: "Track " + id}
}

func playlistWith(current string, queued ...string) *types.Playlist {
	pl := types.EmptyPlaylist()
	if current != "" {
		pl.CurrentSong = song(current)
	}
	for _, id := range queued {
		pl.QueuedSongs = append(pl.QueuedSongs, *song(id))
	}
	return pl
}

func recs(ids ...string) []types.Recommendation {
	out := make([]types.Recommendation, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Recommendation{Song: *song(id), Votes: []string{}})
	}
	return out
}

func baseSession() *types.Session {
	start := time.Date(2024, 5, 3, 20, 0, 0, 0, time.UTC)
	return &types.Session{
		ID:              "s1",
		Name:            "Friday",
		HostID:          "h1",
		Guests:          map[string]types.Guest{"g1": {ID: "g1", Username: "ana"}},
		Playlist:        playlistWith("A", "B"),
		Recommendations: recs("r1", "r2"),
		VotingStartTime: &start,
		IsRunning:       true,
	}
}

func TestMergeSession(t *testing.T) {
	tests := []struct {
		name   string
		in     *types.Session
		verify func(t *testing.T, prev, got *types.Session)
	}{
		{
			name: "roster update keeps playlist and recommendations",
			in: &types.Session{
				ID:     "s1",
				Name:   "Friday",
				Guests: map[string]types.Guest{"g2": {ID: "g2", Username: "bo"}},
			},
			verify: func(t *testing.T, prev, got *types.Session) {
				assert.Same(t, prev.Playlist, got.Playlist)
				assert.Equal(t, prev.Recommendations, got.Recommendations)
				assert.Equal(t, prev.VotingStartTime, got.VotingStartTime)
				assert.Equal(t, map[string]types.Guest{"g2": {ID: "g2", Username: "bo"}}, got.Guests)
			},
		},
		{
			name: "empty recommendations count as omitted",
			in:   &types.Session{Name: "Friday", Recommendations: []types.Recommendation{}},
			verify: func(t *testing.T, prev, got *types.Session) {
				assert.Equal(t, prev.Recommendations, got.Recommendations)
			},
		},
		{
			name: "carried playlist and recommendations replace",
			in: &types.Session{
				Name:            "Friday",
				Playlist:        playlistWith("C"),
				Recommendations: recs("r9"),
			},
			verify: func(t *testing.T, prev, got *types.Session) {
				assert.Equal(t, "C", got.Playlist.CurrentSongID())
				assert.Equal(t, recs("r9"), got.Recommendations)
				assert.Nil(t, got.VotingStartTime)
			},
		},
		{
			name: "omitted scalar fields keep previous values",
			in:   &types.Session{Name: "Saturday"},
			verify: func(t *testing.T, prev, got *types.Session) {
				assert.Equal(t, "Saturday", got.Name)
				assert.Equal(t, "s1", got.ID)
				assert.Equal(t, "h1", got.HostID)
				assert.Equal(t, prev.Guests, got.Guests)
			},
		},
		{
			name: "empty guest map clears guests",
			in:   &types.Session{Guests: map[string]types.Guest{}},
			verify: func(t *testing.T, prev, got *types.Session) {
				assert.Empty(t, got.Guests)
				assert.Len(t, prev.Guests, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := baseSession()
			got := mergeSession(prev, tt.in)

			require.NotNil(t, got)
			assert.True(t, got.IsRunning, "IsRunning must survive every session merge")
			tt.verify(t, prev, got)
		})
	}
}

func TestMergeSessionKeepsNotRunning(t *testing.T) {
	prev := baseSession()
	prev.IsRunning = false

	got := mergeSession(prev, &types.Session{Name: "Friday", IsRunning: true})
	assert.False(t, got.IsRunning)
}

func TestMergeSessionInterleaving(t *testing.T) {
	agg := baseSession()

	agg = mergeSession(agg, &types.Session{Name: "Friday"})
	agg, _ = mergePlaylist(agg, playlistWith("B", "C"))
	agg = mergeSession(agg, &types.Session{Guests: map[string]types.Guest{}})
	agg = mergeRecommendations(agg, &types.RecommendationList{Recommendations: recs("r7")})
	agg = mergeSession(agg, &types.Session{Name: "Friday", Guests: map[string]types.Guest{"g3": {ID: "g3"}}})
	agg, _ = mergePlaylist(agg, playlistWith("B", "C", "D"))
	agg = mergeSession(agg, &types.Session{HostName: "Host"})

	assert.Equal(t, playlistWith("B", "C", "D"), agg.Playlist)
	assert.Equal(t, recs("r7"), agg.Recommendations)
	assert.Equal(t, "Host", agg.HostName)
	assert.Contains(t, agg.Guests, "g3")
}

func TestMergePlaylist(t *testing.T) {
	tests := []struct {
		name         string
		prev         *types.Playlist
		in           *types.Playlist
		wantAdvanced bool
	}{
		{name: "same song", prev: playlistWith("A", "B"), in: playlistWith("A"), wantAdvanced: false},
		{name: "next song", prev: playlistWith("A", "B"), in: playlistWith("B"), wantAdvanced: true},
		{name: "first song", prev: playlistWith(""), in: playlistWith("A"), wantAdvanced: true},
		{name: "playlist ran out", prev: playlistWith("A"), in: playlistWith(""), wantAdvanced: true},
		{name: "nothing playing", prev: playlistWith(""), in: playlistWith(""), wantAdvanced: false},
		{name: "no previous playlist", prev: nil, in: playlistWith("A"), wantAdvanced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := baseSession()
			prev.Playlist = tt.prev

			got, advanced := mergePlaylist(prev, tt.in)

			assert.Equal(t, tt.wantAdvanced, advanced)
			assert.Equal(t, tt.in, got.Playlist)
			if tt.wantAdvanced {
				assert.Empty(t, got.Recommendations)
				assert.NotNil(t, got.Recommendations)
				assert.Nil(t, got.VotingStartTime)
			} else {
				assert.Equal(t, prev.Recommendations, got.Recommendations)
			}
			assert.Len(t, prev.Recommendations, 2, "previous aggregate must not change")
		})
	}
}

func TestMergeRecommendations(t *testing.T) {
	prev := baseSession()
	start := time.Date(2024, 5, 3, 21, 0, 0, 0, time.UTC)

	got := mergeRecommendations(prev, &types.RecommendationList{Recommendations: recs("x"), VotingStartTime: &start})
	assert.Equal(t, recs("x"), got.Recommendations)
	assert.Equal(t, &start, got.VotingStartTime)

	got = mergeRecommendations(got, &types.RecommendationList{})
	assert.NotNil(t, got.Recommendations)
	assert.Empty(t, got.Recommendations)
	assert.Nil(t, got.VotingStartTime)

	assert.Nil(t, mergeRecommendations(nil, &types.RecommendationList{}))
}

func TestApplyRoster(t *testing.T) {
	prev := baseSession()

	got := applyRoster(prev, &channel.RosterEvent{Action: channel.GuestJoined, Guest: types.Guest{ID: "g2", Username: "bo"}})
	assert.Len(t, got.Guests, 2)
	assert.Len(t, prev.Guests, 1)

	got = applyRoster(got, &channel.RosterEvent{Action: channel.GuestRemoved, Guest: types.Guest{ID: "g1"}})
	assert.Equal(t, map[string]types.Guest{"g2": {ID: "g2", Username: "bo"}}, got.Guests)
	assert.Same(t, prev.Playlist, got.Playlist)
}

func TestGuestChanges(t *testing.T) {
	prev := map[string]types.Guest{"a": {ID: "a"}, "b": {ID: "b"}}
	next := map[string]types.Guest{"b": {ID: "b"}, "c": {ID: "c"}}

	joined, removed := guestChanges(prev, next)
	assert.Equal(t, []types.Guest{{ID: "c"}}, joined)
	assert.Equal(t, []types.Guest{{ID: "a"}}, removed)

	joined, removed = guestChanges(prev, prev)
	assert.Empty(t, joined)
	assert.Empty(t, removed)
}
