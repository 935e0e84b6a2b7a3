package channel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one open socket. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens sockets
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket
type WebsocketDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewWebsocketDialer creates a dialer. A non-empty token is sent as a
// bearer Authorization header on the upgrade request.
func NewWebsocketDialer(token string, handshakeTimeout time.Duration) *WebsocketDialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = handshakeTimeout

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &WebsocketDialer{dialer: &d, header: header}
}

// Dial opens a websocket to url
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return conn, nil
}
