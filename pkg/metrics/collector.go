package metrics

import (
	"sync"
	"time"

	"github.com/cuemby/cadence/pkg/types"
)

// SessionSource is anything that can hand out a copy of the session aggregate
type SessionSource interface {
	Snapshot() *types.Session
}

// Collector samples the session aggregate into gauges
type Collector struct {
	source   SessionSource
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(source SessionSource, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Collector) collect() {
	sess := c.source.Snapshot()
	if sess == nil || !sess.IsRunning {
		SessionActive.Set(0)
		SessionGuests.Set(0)
		SessionQueueLength.Set(0)
		return
	}

	SessionActive.Set(1)
	SessionGuests.Set(float64(len(sess.Guests)))
	if sess.Playlist != nil {
		SessionQueueLength.Set(float64(len(sess.Playlist.QueuedSongs)))
	} else {
		SessionQueueLength.Set(0)
	}
}
