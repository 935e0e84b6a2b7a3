package channel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cuemby/cadence/pkg/events"
	"github.com/cuemby/cadence/pkg/log"
	"github.com/cuemby/cadence/pkg/metrics"
)

const (
	// DefaultInitialInterval is the delay before the first reconnect
	DefaultInitialInterval = 2 * time.Second

	// DefaultMaxAttempts bounds consecutive reconnects without a successful open
	DefaultMaxAttempts = 10

	closeReason       = "Client closed connection."
	closeWriteTimeout = time.Second
)

// ErrNotConnected is returned by Send when no socket is open
var ErrNotConnected = errors.New("channel is not connected")

// State is the lifecycle state of a Connection
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateWaiting    State = "waiting"
	StateExhausted  State = "exhausted"
	StateClosed     State = "closed"
)

// Handler receives every decoded message of a channel, in arrival order,
// on the channel's reader goroutine
type Handler func(Message)

// Config configures a Connection
type Config struct {
	// Name identifies the channel in logs, metrics and health ("session")
	Name string
	// BaseURL is the websocket origin, e.g. ws://localhost:8000
	BaseURL string
	// Path is the URL segment before the session id ("sessions")
	Path string

	Decode          Decoder
	Dialer          Dialer
	Clock           clock.Clock
	InitialInterval time.Duration
	MaxAttempts     int
	Events          events.Publisher
}

// Connection is one realtime channel bound to a session. It reconnects on
// any close other than a normal closure (1000), waiting InitialInterval
// and doubling the wait after every attempt, and gives up after
// MaxAttempts consecutive attempts that never reach an open socket.
type Connection struct {
	name        string
	endpoint    string
	decode      Decoder
	dialer      Dialer
	clock       clock.Clock
	maxAttempts int
	events      events.Publisher

	mu        sync.Mutex
	logger    zerolog.Logger
	state     State
	conn      Conn
	gen       uint64
	sessionID string
	handler   Handler
	attempts  int
	backoff   *backoff.ExponentialBackOff
	timer     *clock.Timer
	cancel    context.CancelFunc
	ctx       context.Context
}

// NewConnection creates an idle channel connection
func NewConnection(cfg Config) (*Connection, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("channel name is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("channel %s: base URL is required", cfg.Name)
	}
	if cfg.Decode == nil {
		return nil, fmt.Errorf("channel %s: decoder is required", cfg.Name)
	}
	if cfg.Path == "" {
		cfg.Path = cfg.Name
	}
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebsocketDialer("", 0)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}

	return &Connection{
		name:        cfg.Name,
		endpoint:    strings.TrimSuffix(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.Path, "/"),
		decode:      cfg.Decode,
		dialer:      cfg.Dialer,
		clock:       cfg.Clock,
		maxAttempts: cfg.MaxAttempts,
		events:      cfg.Events,
		logger:      log.WithChannel(cfg.Name),
		state:       StateIdle,
		backoff:     newBackoff(cfg.InitialInterval),
	}, nil
}

func newBackoff(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Hour
	b.Reset()
	return b
}

// Name returns the channel name
func (c *Connection) Name() string {
	return c.name
}

// URL returns the socket URL for a session
func (c *Connection) URL(sessionID string) string {
	return c.endpoint + "/" + url.PathEscape(sessionID)
}

// State returns the current lifecycle state
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of reconnects scheduled since the last open
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect opens the channel for sessionID and delivers every message to
// handler. It returns immediately; the socket opens in the background.
// Calling Connect again replaces the previous socket and restarts the
// reconnect budget, including after the channel gave up.
func (c *Connection) Connect(sessionID string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	if c.conn != nil {
		// Bumping gen in dialLocked makes the old reader ignore its close
		c.conn.Close()
		c.conn = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.sessionID = sessionID
	c.handler = handler
	c.attempts = 0
	c.backoff.Reset()
	c.logger = log.WithChannel(c.name).With().Str("session_id", sessionID).Logger()

	c.dialLocked()
}

// Close shuts the channel down with a normal closure. A pending reconnect
// is cancelled and no further reconnects happen. Safe to call when the
// channel was never connected.
func (c *Connection) Close() error {
	c.mu.Lock()
	c.gen++
	c.stopTimerLocked()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	logger := c.logger
	metrics.ChannelConnected.WithLabelValues(c.name).Set(0)
	metrics.UnregisterComponent(HealthComponent(c.name))
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	logger.Info().Msg("Closing channel")

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason)
	werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
	cerr := conn.Close()

	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to send close frame on %s channel: %w", c.name, werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close %s channel: %w", c.name, cerr)
	}
	return nil
}

// Send writes a text frame on the open socket
func (c *Connection) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.logger.Warn().Str("state", string(c.state)).Msg("Dropping outbound message, channel not open")
		return fmt.Errorf("%s channel: %w", c.name, ErrNotConnected)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to send on %s channel: %w", c.name, err)
	}
	return nil
}

// dialLocked starts a new socket generation. Callers hold c.mu.
func (c *Connection) dialLocked() {
	c.gen++
	c.state = StateConnecting
	go c.run(c.ctx, c.gen, c.URL(c.sessionID), c.logger)
}

func (c *Connection) run(ctx context.Context, gen uint64, endpoint string, logger zerolog.Logger) {
	logger.Debug().Str("url", endpoint).Msg("Opening channel")

	conn, err := c.dialer.Dial(ctx, endpoint)
	if err != nil {
		logger.Warn().Err(err).Str("url", endpoint).Msg("Failed to open channel")
		c.handleClose(gen, websocket.CloseAbnormalClosure)
		return
	}

	if !c.opened(gen, conn) {
		conn.Close()
		return
	}

	c.readLoop(gen, conn)
}

func (c *Connection) opened(gen uint64, conn Conn) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	c.backoff.Reset()
	sessionID := c.sessionID
	c.logger.Info().Msg("Channel connected")
	metrics.ChannelConnected.WithLabelValues(c.name).Set(1)
	metrics.UpdateComponent(HealthComponent(c.name), true, "connected")
	c.mu.Unlock()

	c.publish(events.EventChannelUp, sessionID, fmt.Sprintf("%s channel connected", c.name))
	return true
}

func (c *Connection) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			c.handleClose(gen, closeCode(err))
			return
		}

		msg := c.decode(data)
		metrics.ChannelMessages.WithLabelValues(c.name, string(msg.Kind)).Inc()

		handler, ok := c.currentHandler(gen)
		if !ok {
			return
		}
		if handler != nil {
			handler(msg)
		}
	}
}

func (c *Connection) currentHandler(gen uint64) (Handler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil, false
	}
	return c.handler, true
}

func (c *Connection) handleClose(gen uint64, code int) {
	c.mu.Lock()
	if gen != c.gen {
		// Superseded by Connect or Close
		c.mu.Unlock()
		return
	}
	c.conn = nil
	sessionID := c.sessionID
	logger := c.logger

	if code == websocket.CloseNormalClosure {
		c.state = StateClosed
		c.markDownLocked("closed")
		c.mu.Unlock()

		logger.Info().Int("code", code).Msg("Channel closed normally")
		c.publish(events.EventChannelDown, sessionID, c.name+" channel closed")
		return
	}

	logger.Warn().Int("code", code).Int("attempts", c.attempts).Msg("Channel closed unexpectedly")
	if !c.scheduleReconnectLocked() {
		const reason = "reconnect attempts exhausted"
		c.markDownLocked(reason)
		c.mu.Unlock()

		metrics.ChannelExhausted.WithLabelValues(c.name).Inc()
		logger.Error().Int("max_attempts", c.maxAttempts).Msg("Channel gave up reconnecting")
		c.publish(events.EventChannelGaveUp, sessionID, c.name+" channel "+reason)
		return
	}
	c.markDownLocked("reconnecting")
	c.mu.Unlock()

	c.publish(events.EventChannelDown, sessionID, c.name+" channel reconnecting")
}

// scheduleReconnectLocked arms the reconnect timer, or reports false when
// the attempt budget is spent. Callers hold c.mu.
func (c *Connection) scheduleReconnectLocked() bool {
	if c.attempts >= c.maxAttempts {
		c.state = StateExhausted
		return false
	}

	delay := c.backoff.NextBackOff()
	c.attempts++
	c.state = StateWaiting
	metrics.ChannelReconnectAttempts.WithLabelValues(c.name).Inc()

	c.logger.Info().
		Int("attempt", c.attempts).
		Dur("delay", delay).
		Msg("Scheduling reconnect")

	gen := c.gen
	c.timer = c.clock.AfterFunc(delay, func() {
		c.reconnect(gen)
	})
	return true
}

func (c *Connection) reconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateWaiting {
		return
	}
	c.timer = nil
	c.dialLocked()
}

func (c *Connection) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// markDownLocked reports the channel down in metrics and health. Callers
// hold c.mu; health only changes under it.
func (c *Connection) markDownLocked(reason string) {
	metrics.ChannelConnected.WithLabelValues(c.name).Set(0)
	metrics.UpdateComponent(HealthComponent(c.name), false, reason)
}

func (c *Connection) publish(eventType events.EventType, sessionID, message string) {
	c.events.Publish(&events.Event{
		Type:    eventType,
		Message: message,
		Metadata: map[string]string{
			"channel":    c.name,
			"session_id": sessionID,
		},
	})
}

// HealthComponent is the health registry name of a channel
func HealthComponent(name string) string {
	return "channel." + name
}

// closeCode extracts the close code from a read error. Anything that is
// not a close frame counts as an abnormal closure.
func closeCode(err error) int {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}
