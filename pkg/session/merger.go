package session

import (
	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/types"
)

// The merge functions never mutate prev. They return a new aggregate that
// may share unchanged slices and maps with prev; shared values are never
// written to afterwards.

// mergeSession overlays a session-channel broadcast onto prev. IsRunning
// is client-known and always kept. Fields the broadcast leaves empty keep
// their previous value, so roster updates without playlist or
// recommendations do not erase them.
func mergeSession(prev, in *types.Session) *types.Session {
	if in == nil {
		return prev
	}
	if prev == nil {
		next := *in
		return &next
	}

	next := *prev
	next.IsRunning = prev.IsRunning

	if in.ID != "" {
		next.ID = in.ID
	}
	if in.Name != "" {
		next.Name = in.Name
	}
	if in.HostID != "" {
		next.HostID = in.HostID
	}
	if in.HostName != "" {
		next.HostName = in.HostName
	}
	if in.InviteLink != "" {
		next.InviteLink = in.InviteLink
	}
	if in.CreationDate != nil {
		next.CreationDate = in.CreationDate
	}
	if in.Guests != nil {
		next.Guests = in.Guests
	}
	if in.Artifacts != nil {
		next.Artifacts = in.Artifacts
	}
	if in.Playlist != nil {
		next.Playlist = in.Playlist
	}
	if len(in.Recommendations) > 0 {
		next.Recommendations = in.Recommendations
		next.VotingStartTime = in.VotingStartTime
	}
	return &next
}

// mergePlaylist replaces the playlist. When the current song changed the
// recommendations are cleared and advanced is true; the caller owns the
// refetch.
func mergePlaylist(prev *types.Session, in *types.Playlist) (next *types.Session, advanced bool) {
	if prev == nil || in == nil {
		return prev, false
	}

	out := *prev
	pl := *in
	out.Playlist = &pl

	if prev.Playlist.CurrentSongID() != in.CurrentSongID() {
		out.Recommendations = []types.Recommendation{}
		out.VotingStartTime = nil
		advanced = true
	}
	return &out, advanced
}

// mergeRecommendations replaces the recommendation slice and voting window
// wholesale
func mergeRecommendations(prev *types.Session, in *types.RecommendationList) *types.Session {
	if prev == nil || in == nil {
		return prev
	}

	out := *prev
	out.Recommendations = in.Recommendations
	if out.Recommendations == nil {
		out.Recommendations = []types.Recommendation{}
	}
	out.VotingStartTime = in.VotingStartTime
	return &out
}

// applyRoster folds a legacy roster event into the guest map
func applyRoster(prev *types.Session, ev *channel.RosterEvent) *types.Session {
	if prev == nil || ev == nil {
		return prev
	}

	out := *prev
	out.Guests = make(map[string]types.Guest, len(prev.Guests)+1)
	for id, g := range prev.Guests {
		out.Guests[id] = g
	}

	switch ev.Action {
	case channel.GuestJoined:
		out.Guests[ev.Guest.ID] = ev.Guest
	case channel.GuestRemoved:
		delete(out.Guests, ev.Guest.ID)
	}
	return &out
}

// guestChanges lists guests present only in next (joined) and only in
// prev (removed)
func guestChanges(prev, next map[string]types.Guest) (joined, removed []types.Guest) {
	for id, g := range next {
		if _, ok := prev[id]; !ok {
			joined = append(joined, g)
		}
	}
	for id, g := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, g)
		}
	}
	return joined, removed
}
