package channel

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/cuemby/cadence/pkg/events"
)

// Channel names and URL paths
const (
	SessionChannel         = "session"
	PlaylistChannel        = "playlist"
	RecommendationsChannel = "recommendations"

	sessionPath         = "sessions"
	playlistPath        = "playlist"
	recommendationsPath = "recommendations"
)

// Handlers routes each channel's messages
type Handlers struct {
	Session         Handler
	Playlist        Handler
	Recommendations Handler
}

// MultiplexerConfig configures the three channels of a session
type MultiplexerConfig struct {
	BaseURL         string
	Codec           string
	Dialer          Dialer
	Clock           clock.Clock
	InitialInterval time.Duration
	MaxAttempts     int
	Events          events.Publisher
}

// Multiplexer owns the session, playlist and recommendations channels of
// one session
type Multiplexer struct {
	session         *Connection
	playlist        *Connection
	recommendations *Connection
}

// NewMultiplexer builds the three channels without connecting them
func NewMultiplexer(cfg MultiplexerConfig) (*Multiplexer, error) {
	build := func(name, path string, kind Kind) (*Connection, error) {
		decode, err := DecoderFor(kind, cfg.Codec)
		if err != nil {
			return nil, err
		}
		return NewConnection(Config{
			Name:            name,
			BaseURL:         cfg.BaseURL,
			Path:            path,
			Decode:          decode,
			Dialer:          cfg.Dialer,
			Clock:           cfg.Clock,
			InitialInterval: cfg.InitialInterval,
			MaxAttempts:     cfg.MaxAttempts,
			Events:          cfg.Events,
		})
	}

	session, err := build(SessionChannel, sessionPath, KindSession)
	if err != nil {
		return nil, err
	}
	playlist, err := build(PlaylistChannel, playlistPath, KindPlaylist)
	if err != nil {
		return nil, err
	}
	recommendations, err := build(RecommendationsChannel, recommendationsPath, KindRecommendations)
	if err != nil {
		return nil, err
	}

	return &Multiplexer{
		session:         session,
		playlist:        playlist,
		recommendations: recommendations,
	}, nil
}

// Connect opens all three channels for sessionID. Connection.Connect only
// starts the dial, so a slow or failing channel never holds up the others.
func (m *Multiplexer) Connect(sessionID string, h Handlers) {
	m.session.Connect(sessionID, h.Session)
	m.playlist.Connect(sessionID, h.Playlist)
	m.recommendations.Connect(sessionID, h.Recommendations)
}

// CloseAll closes every channel, even when an earlier close fails, and
// returns the joined errors
func (m *Multiplexer) CloseAll() error {
	var errs []error
	for _, conn := range m.Channels() {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send writes a text frame on the named channel
func (m *Multiplexer) Send(channel, text string) error {
	conn := m.Channel(channel)
	if conn == nil {
		return errors.New("unknown channel " + channel)
	}
	return conn.Send(text)
}

// Channel returns a channel by name, or nil
func (m *Multiplexer) Channel(name string) *Connection {
	switch name {
	case SessionChannel:
		return m.session
	case PlaylistChannel:
		return m.playlist
	case RecommendationsChannel:
		return m.recommendations
	default:
		return nil
	}
}

// Channels returns the three channels in a stable order
func (m *Multiplexer) Channels() []*Connection {
	return []*Connection{m.session, m.playlist, m.recommendations}
}

// States reports the state of each channel by name
func (m *Multiplexer) States() map[string]State {
	out := make(map[string]State, 3)
	for _, conn := range m.Channels() {
		out[conn.Name()] = conn.State()
	}
	return out
}
