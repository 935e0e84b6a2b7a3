package session

import (
	"context"
	"fmt"

	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/events"
	"github.com/cuemby/cadence/pkg/metrics"
	"github.com/cuemby/cadence/pkg/types"
)

// handleSession merges session-channel messages, JSON or legacy roster
func (c *Controller) handleSession(msg channel.Message) {
	var merge func(prev *types.Session) *types.Session
	switch msg.Kind {
	case channel.KindSession:
		merge = func(prev *types.Session) *types.Session { return mergeSession(prev, msg.Session) }
	case channel.KindRoster:
		merge = func(prev *types.Session) *types.Session { return applyRoster(prev, msg.Roster) }
	default:
		c.unknown(channel.SessionChannel, msg)
		return
	}

	c.mu.Lock()
	if c.state != StateActive || c.session == nil {
		c.mu.Unlock()
		return
	}
	prev := c.session
	c.session = merge(prev)
	id := c.session.ID
	joined, removed := guestChanges(prev.Guests, c.session.Guests)
	c.mu.Unlock()

	metrics.MergesTotal.WithLabelValues(channel.SessionChannel).Inc()

	for _, g := range joined {
		c.publish(events.EventGuestJoined, id, fmt.Sprintf("%s joined", g.Username), map[string]string{"guest_id": g.ID})
	}
	for _, g := range removed {
		c.publish(events.EventGuestRemoved, id, fmt.Sprintf("guest %s left", g.ID), map[string]string{"guest_id": g.ID})
	}
	if msg.Kind == channel.KindSession {
		c.publish(events.EventSessionUpdated, id, "session updated", nil)
	}
}

// handlePlaylist merges playlist-channel messages. A new current song
// clears the recommendations and starts exactly one refetch.
func (c *Controller) handlePlaylist(msg channel.Message) {
	if msg.Kind != channel.KindPlaylist {
		c.unknown(channel.PlaylistChannel, msg)
		return
	}

	c.mu.Lock()
	if c.state != StateActive || c.session == nil {
		c.mu.Unlock()
		return
	}
	next, advanced := mergePlaylist(c.session, msg.Playlist)
	c.session = next
	id := next.ID
	var seq uint64
	if advanced {
		c.refetchSeq++
		seq = c.refetchSeq
		c.refetches.Add(1)
	}
	ctx := c.ctx
	c.mu.Unlock()

	metrics.MergesTotal.WithLabelValues(channel.PlaylistChannel).Inc()

	if !advanced {
		c.publish(events.EventPlaylistUpdated, id, "playlist updated", nil)
		return
	}

	songID := msg.Playlist.CurrentSongID()
	c.publish(events.EventPlaylistAdvance, id, "now playing "+songID, map[string]string{"song_id": songID})
	go c.refetch(ctx, id, seq)
}

// handleRecommendations replaces the recommendation slice
func (c *Controller) handleRecommendations(msg channel.Message) {
	if msg.Kind != channel.KindRecommendations {
		c.unknown(channel.RecommendationsChannel, msg)
		return
	}

	c.mu.Lock()
	if c.state != StateActive || c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session = mergeRecommendations(c.session, msg.Recommendations)
	id := c.session.ID
	c.mu.Unlock()

	metrics.MergesTotal.WithLabelValues(channel.RecommendationsChannel).Inc()
	c.publish(events.EventRecsUpdated, id, "recommendations updated", nil)
}

// refetch loads recommendations after a playlist advance. The result is
// dropped when the session scope was cancelled or a newer advance started
// its own refetch; a failure leaves the current slice untouched.
func (c *Controller) refetch(ctx context.Context, id string, seq uint64) {
	defer c.refetches.Done()

	list, err := c.api.GetRecommendations(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			metrics.RecommendationRefetches.WithLabelValues("cancelled").Inc()
			return
		}
		metrics.RecommendationRefetches.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Str("session_id", id).Msg("Failed to refetch recommendations")
		c.publish(events.EventRecsRefetchFail, id, err.Error(), nil)
		return
	}

	c.mu.Lock()
	current := ctx.Err() == nil && seq == c.refetchSeq && c.state == StateActive &&
		c.session != nil && c.session.ID == id
	if current {
		c.session = mergeRecommendations(c.session, list)
	}
	c.mu.Unlock()

	if !current {
		metrics.RecommendationRefetches.WithLabelValues("stale").Inc()
		return
	}
	metrics.RecommendationRefetches.WithLabelValues("success").Inc()
	c.publish(events.EventRecsUpdated, id, "recommendations refetched", nil)
}

func (c *Controller) unknown(channelName string, msg channel.Message) {
	c.logger.Warn().
		Err(msg.Err).
		Str("channel", channelName).
		Str("raw", msg.Raw).
		Msg("Ignoring unrecognized message")
	c.publish(events.EventUnknownMessage, c.SessionID(), msg.Raw, map[string]string{"channel": channelName})
}
