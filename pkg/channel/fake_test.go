package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/cuemby/cadence/pkg/events"
)

type fakeRead struct {
	data []byte
	err  error
}

// fakeConn is a scripted socket: reads come from push/drop, writes are recorded
type fakeConn struct {
	reads     chan fakeRead
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu       sync.Mutex
	written  []string
	controls [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan fakeRead, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) push(data string) {
	f.reads <- fakeRead{data: []byte(data)}
}

func (f *fakeConn) drop(code int) {
	f.reads <- fakeRead{err: &websocket.CloseError{Code: code}}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case r := <-f.reads:
		if r.err != nil {
			return 0, nil, r.err
		}
		return websocket.TextMessage, r.data, nil
	case <-f.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, string(data))
	return nil
}

func (f *fakeConn) WriteControl(_ int, data []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return f.closeErr
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *fakeConn) controlFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.controls...)
}

// fakeDialer records every dial and answers with next(n), n counting from 1
type fakeDialer struct {
	clock clock.Clock
	next  func(n int, url string) (Conn, error)

	mu    sync.Mutex
	times []time.Time
	urls  []string
}

var errRefused = errors.New("connection refused")

func refuseAll(int, string) (Conn, error) {
	return nil, errRefused
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.times = append(d.times, d.clock.Now())
	d.urls = append(d.urls, url)
	n := len(d.times)
	d.mu.Unlock()
	return d.next(n, url)
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.times)
}

func (d *fakeDialer) dialTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.times...)
}

func (d *fakeDialer) dialedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// recorder is an events.Publisher that keeps everything
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) Publish(e *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
