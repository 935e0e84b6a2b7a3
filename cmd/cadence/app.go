package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/cadence/pkg/api"
	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/client"
	"github.com/cuemby/cadence/pkg/config"
	"github.com/cuemby/cadence/pkg/events"
	"github.com/cuemby/cadence/pkg/metrics"
	"github.com/cuemby/cadence/pkg/session"
	"github.com/cuemby/cadence/pkg/storage"
)

// app wires one controller with its collaborators for a single command
type app struct {
	store    storage.Store
	broker   *events.Broker
	channels *channel.Multiplexer
	ctrl     *session.Controller
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open resume store: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()

	mux, err := channel.NewMultiplexer(channel.MultiplexerConfig{
		BaseURL:         cfg.WSURL,
		Codec:           cfg.Codec,
		Dialer:          channel.NewWebsocketDialer(cfg.Token, cfg.RequestTimeout),
		InitialInterval: cfg.Reconnect.InitialInterval,
		MaxAttempts:     cfg.Reconnect.MaxAttempts,
		Events:          broker,
	})
	if err != nil {
		broker.Stop()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create channels: %w", err)
	}

	c := client.NewClient(cfg.APIURL,
		client.WithToken(cfg.Token),
		client.WithTimeout(cfg.RequestTimeout),
	)

	ctrl, err := session.NewController(session.Config{
		API:      c,
		Channels: mux,
		Store:    store,
		Events:   broker,
	})
	if err != nil {
		broker.Stop()
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:    store,
		broker:   broker,
		channels: mux,
		ctrl:     ctrl,
	}, nil
}

// Close stops following the session; it never ends it server-side
func (a *app) Close() {
	if err := a.ctrl.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	a.broker.Stop()
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close resume store: %v\n", err)
	}
}

// watch prints session events until interrupted. A non-empty statusAddr
// also serves the status endpoints.
func (a *app) watch(statusAddr string) error {
	sub := a.broker.Subscribe()
	defer a.broker.Unsubscribe(sub)

	collector := metrics.NewCollector(a.ctrl, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	errCh := make(chan error, 1)
	var status *api.StatusServer
	if statusAddr != "" {
		status = api.NewStatusServer(a.ctrl, a.channels, Version)
		go func() {
			if err := status.Start(statusAddr); err != nil {
				errCh <- err
			}
		}()
		fmt.Printf("✓ Status server on %s\n", statusAddr)
	}

	fmt.Println()
	fmt.Println("Following session. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			printEvent(ev)
			if ev.Type == events.EventSessionEnded {
				return nil
			}
		case err := <-errCh:
			return err
		case <-sigCh:
			fmt.Println("\nStopping...")
			if status != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = status.Shutdown(ctx)
			}
			return nil
		}
	}
}

func printEvent(ev *events.Event) {
	fmt.Printf("[%s] %-32s %s\n", ev.Timestamp.Format("15:04:05"), ev.Type, ev.Message)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.RequestTimeout*3)
}
