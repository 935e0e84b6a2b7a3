package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/events"
	"github.com/cuemby/cadence/pkg/log"
	"github.com/cuemby/cadence/pkg/metrics"
	"github.com/cuemby/cadence/pkg/storage"
	"github.com/cuemby/cadence/pkg/types"
)

var (
	// ErrNoSession is returned by operations that need a session when none is loaded
	ErrNoSession = errors.New("no session")

	// ErrNotRunning is returned by operations that need a running session after it ended
	ErrNotRunning = errors.New("session is not running")

	// ErrClosed is returned once the controller was closed
	ErrClosed = errors.New("session controller is closed")
)

// State is the lifecycle state of the controller
type State string

const (
	StateAbsent State = "absent"
	StateActive State = "active"
	StateEnded  State = "ended"
	StateClosed State = "closed"
)

// API is the part of the session REST API the controller calls
type API interface {
	GetSession(ctx context.Context, id string) (*types.Session, error)
	CreateSession(ctx context.Context, draft types.SessionDraft) (*types.Session, error)
	EndSession(ctx context.Context, id string) (*types.Artifacts, error)
	GetRecommendations(ctx context.Context, id string) (*types.RecommendationList, error)
	JoinSession(ctx context.Context, inviteToken string) (*types.Session, error)
	LeaveSession(ctx context.Context, id string) error
	RemoveGuest(ctx context.Context, id, guestID string) error
	Vote(ctx context.Context, id, songID string) (*types.RecommendationList, error)
	Unvote(ctx context.Context, id, songID string) (*types.RecommendationList, error)
}

// Channels is the realtime side of a session. *channel.Multiplexer
// satisfies it.
type Channels interface {
	Connect(sessionID string, h channel.Handlers)
	CloseAll() error
}

// Config wires a Controller
type Config struct {
	API      API
	Channels Channels
	Store    storage.Store
	Events   events.Publisher
}

// Controller owns the session aggregate and its lifecycle:
//
//	absent ──create/join/fetch──► active ──end──► ended
//	  ▲                             │
//	  └────────────leave────────────┘
//
// Close moves any state to closed, which is final.
//
// All merges run under mu, one read-modify-write per message.
type Controller struct {
	api      API
	channels Channels
	store    storage.Store
	events   events.Publisher
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	session    *types.Session
	refetchSeq uint64
	ctx        context.Context
	cancel     context.CancelFunc
	refetches  sync.WaitGroup
}

// NewController creates a controller in the absent state
func NewController(cfg Config) (*Controller, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("session API is required")
	}
	if cfg.Channels == nil {
		return nil, fmt.Errorf("channels are required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}

	return &Controller{
		api:      cfg.API,
		channels: cfg.Channels,
		store:    cfg.Store,
		events:   cfg.Events,
		logger:   log.WithComponent("session"),
		state:    StateAbsent,
	}, nil
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a deep copy of the aggregate, or nil when absent
func (c *Controller) Snapshot() *types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// SessionID returns the id of the loaded session, or ""
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.ID
}

// CreateSession creates a session as host and starts following it
func (c *Controller) CreateSession(ctx context.Context, draft types.SessionDraft) (*types.Session, error) {
	timer := metrics.NewTimer()
	sess, err := c.api.CreateSession(ctx, draft)
	timer.ObserveDurationVec(metrics.SessionRequestDuration, "create")
	if err != nil {
		c.logger.Error().Err(err).Str("name", draft.Name).Msg("Failed to create session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if sess == nil {
		return nil, fmt.Errorf("failed to create session: empty response")
	}
	if err := c.initialize(ctx, sess, events.EventSessionCreated); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// JoinSession joins a session as guest through an invite token
func (c *Controller) JoinSession(ctx context.Context, inviteToken string) (*types.Session, error) {
	timer := metrics.NewTimer()
	sess, err := c.api.JoinSession(ctx, inviteToken)
	timer.ObserveDurationVec(metrics.SessionRequestDuration, "join")
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to join session")
		return nil, fmt.Errorf("failed to join session: %w", err)
	}

	if sess == nil {
		return nil, fmt.Errorf("failed to join session: empty response")
	}
	if err := c.initialize(ctx, sess, events.EventSessionJoined); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// FetchSession loads a session by id, or the persisted id when id is
// empty, and starts following it. With nothing to resume it returns
// (nil, nil) and the controller stays absent. A failed fetch forgets the
// persisted id.
func (c *Controller) FetchSession(ctx context.Context, id string) (*types.Session, error) {
	if id == "" {
		stored, err := c.store.LoadSessionID()
		if errors.Is(err, storage.ErrNotFound) {
			c.logger.Debug().Msg("No session to resume")
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session id: %w", err)
		}
		id = stored
	}

	timer := metrics.NewTimer()
	sess, err := c.api.GetSession(ctx, id)
	timer.ObserveDurationVec(metrics.SessionRequestDuration, "fetch")
	if err != nil {
		if cerr := c.store.ClearSessionID(); cerr != nil {
			c.logger.Warn().Err(cerr).Msg("Failed to clear persisted session id")
		}
		c.logger.Error().Err(err).Str("session_id", id).Msg("Failed to fetch session")
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}

	if sess == nil {
		return nil, fmt.Errorf("failed to fetch session %s: empty response", id)
	}
	if sess.Playlist == nil {
		sess.Playlist = types.EmptyPlaylist()
	}
	if sess.Recommendations == nil {
		sess.Recommendations = []types.Recommendation{}
	}

	if err := c.initialize(ctx, sess, events.EventSessionResumed); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// initialize is shared by every entry path into the active state
func (c *Controller) initialize(ctx context.Context, sess *types.Session, eventType events.EventType) error {
	logger := log.WithSessionID(sess.ID).With().Str("component", "session").Logger()

	sess.IsRunning = true
	if sess.Playlist == nil {
		sess.Playlist = types.EmptyPlaylist()
	}

	if len(sess.Recommendations) == 0 {
		list, err := c.api.GetRecommendations(ctx, sess.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to fetch initial recommendations")
		} else if list != nil {
			sess.Recommendations = list.Recommendations
			sess.VotingStartTime = list.VotingStartTime
		}
	}
	if sess.Recommendations == nil {
		sess.Recommendations = []types.Recommendation{}
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.session = sess
	c.state = StateActive
	c.refetchSeq++
	metrics.UpdateComponent("session", true, "active")
	c.mu.Unlock()

	if err := c.store.SaveSessionID(sess.ID); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist session id")
	}

	c.channels.Connect(sess.ID, channel.Handlers{
		Session:         c.handleSession,
		Playlist:        c.handlePlaylist,
		Recommendations: c.handleRecommendations,
	})

	logger.Info().Str("name", sess.Name).Msg("Session active")
	c.publish(eventType, sess.ID, fmt.Sprintf("session %s is active", sess.Name), nil)
	return nil
}

// EndSession ends the running session. On success the returned artifacts
// are applied, the guest list is cleared and every channel is closed. On
// failure nothing changes and the error is returned.
func (c *Controller) EndSession(ctx context.Context) (*types.Artifacts, error) {
	id, err := c.activeID()
	if err != nil {
		return nil, err
	}

	timer := metrics.NewTimer()
	artifacts, err := c.api.EndSession(ctx, id)
	timer.ObserveDurationVec(metrics.SessionRequestDuration, "end")
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", id).Msg("Failed to end session")
		return nil, fmt.Errorf("failed to end session %s: %w", id, err)
	}

	c.mu.Lock()
	if c.session == nil || c.session.ID != id || c.state == StateClosed {
		// Replaced or closed while the request was in flight
		c.mu.Unlock()
		return artifacts, nil
	}
	next := *c.session
	if artifacts != nil {
		next.Artifacts = artifacts
	}
	next.IsRunning = false
	next.Guests = map[string]types.Guest{}
	c.session = &next
	c.state = StateEnded
	c.stopLocked()
	metrics.UnregisterComponent("session")
	c.mu.Unlock()

	c.teardown()

	c.logger.Info().Str("session_id", id).Msg("Session ended")
	c.publish(events.EventSessionEnded, id, "session ended", nil)
	return artifacts, nil
}

// LeaveSession leaves the session as guest and returns to absent
func (c *Controller) LeaveSession(ctx context.Context) error {
	id, err := c.activeID()
	if err != nil {
		return err
	}

	if err := c.api.LeaveSession(ctx, id); err != nil {
		c.logger.Error().Err(err).Str("session_id", id).Msg("Failed to leave session")
		return fmt.Errorf("failed to leave session %s: %w", id, err)
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.session = nil
	c.state = StateAbsent
	c.stopLocked()
	metrics.UnregisterComponent("session")
	c.mu.Unlock()

	c.teardown()

	c.logger.Info().Str("session_id", id).Msg("Left session")
	c.publish(events.EventSessionLeft, id, "left session", nil)
	return nil
}

// Vote adds the caller's vote to a recommendation. The returned list
// replaces the local recommendations.
func (c *Controller) Vote(ctx context.Context, songID string) error {
	return c.vote(ctx, songID, "vote", c.api.Vote)
}

// Unvote withdraws the caller's vote from a recommendation
func (c *Controller) Unvote(ctx context.Context, songID string) error {
	return c.vote(ctx, songID, "unvote", c.api.Unvote)
}

func (c *Controller) vote(ctx context.Context, songID, op string,
	call func(ctx context.Context, id, songID string) (*types.RecommendationList, error)) error {
	id, err := c.activeID()
	if err != nil {
		return err
	}

	timer := metrics.NewTimer()
	list, err := call(ctx, id, songID)
	timer.ObserveDurationVec(metrics.SessionRequestDuration, op)
	if err != nil {
		return fmt.Errorf("failed to %s for %s: %w", op, songID, err)
	}

	c.mu.Lock()
	applied := c.state == StateActive && c.session != nil && c.session.ID == id
	if applied {
		c.session = mergeRecommendations(c.session, list)
	}
	c.mu.Unlock()

	if applied {
		c.publish(events.EventRecsUpdated, id, op+" applied", map[string]string{"song_id": songID})
	}
	return nil
}

// RemoveGuest removes a guest as host. The roster itself changes when the
// session channel broadcasts the update.
func (c *Controller) RemoveGuest(ctx context.Context, guestID string) error {
	id, err := c.activeID()
	if err != nil {
		return err
	}
	if err := c.api.RemoveGuest(ctx, id, guestID); err != nil {
		return fmt.Errorf("failed to remove guest %s: %w", guestID, err)
	}
	c.logger.Info().Str("session_id", id).Str("guest_id", guestID).Msg("Guest removed")
	return nil
}

// Close stops following the session without ending it server-side and
// waits for in-flight refetches. Frames still in flight are dropped and
// the persisted id is kept for a later resume.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.state = StateClosed
	c.stopLocked()
	metrics.UnregisterComponent("session")
	c.mu.Unlock()

	err := c.channels.CloseAll()
	c.refetches.Wait()
	if err != nil {
		return fmt.Errorf("failed to close channels: %w", err)
	}
	return nil
}

func (c *Controller) activeID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == StateClosed:
		return "", ErrClosed
	case c.session == nil:
		return "", ErrNoSession
	case c.state != StateActive:
		return "", ErrNotRunning
	default:
		return c.session.ID, nil
	}
}

// stopLocked cancels the session scope so pending refetches are dropped
func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.refetchSeq++
}

// teardown closes the channels and forgets the persisted id once the
// session is ended or left
func (c *Controller) teardown() {
	if err := c.channels.CloseAll(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close channels")
	}
	if err := c.store.ClearSessionID(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear persisted session id")
	}
}

func (c *Controller) publish(eventType events.EventType, sessionID, message string, meta map[string]string) {
	if meta == nil {
		meta = map[string]string{}
	}
	meta["session_id"] = sessionID
	c.events.Publish(&events.Event{
		Type:     eventType,
		Message:  message,
		Metadata: meta,
	})
}
