// Package events publishes JSON domain events to NATS subjects.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/clerk/pkg/lifecycle"
)

// ErrNotConnected is returned by Publish before the connection is up.
var ErrNotConnected = errors.New("event bus not connected")

// Publisher sends events and participates in the application lifecycle.
type Publisher interface {
	// Start registers connect and drain hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Publish marshals v as JSON and sends it to <prefix>.<subject>.
	Publish(ctx context.Context, subject string, v any) error
}

// New returns a NATS publisher, or a no-op one when cfg has no URL.
func New(cfg *Config, logger *slog.Logger) Publisher {
	logger = logger.With("system", "events")
	if !cfg.Enabled() {
		logger.Info("event publishing disabled")
		return Noop{}
	}
	return &natsPublisher{
		cfg:    *cfg,
		logger: logger,
	}
}

// Subject joins a prefix and subject with a dot, skipping empty parts.
func Subject(prefix, subject string) string {
	switch {
	case prefix == "":
		return subject
	case subject == "":
		return prefix
	}
	return strings.TrimSuffix(prefix, ".") + "." + strings.TrimPrefix(subject, ".")
}

type natsPublisher struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn
}

func (p *natsPublisher) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting event bus", "url", p.cfg.URL)

	lc.OnStartup(func() {
		conn, err := nats.Connect(
			p.cfg.URL,
			nats.Name(p.cfg.Name),
			nats.Timeout(p.cfg.ConnectTimeoutDuration()),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					p.logger.Warn("event bus disconnected", "error", err)
				}
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				p.logger.Info("event bus reconnected", "url", c.ConnectedUrl())
			}),
		)
		if err != nil {
			p.logger.Error("event bus connect failed", "error", err)
			return
		}

		p.mu.Lock()
		p.conn = conn
		p.mu.Unlock()
		p.logger.Info("event bus connected")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		p.mu.Lock()
		conn := p.conn
		p.conn = nil
		p.mu.Unlock()

		if conn == nil {
			return
		}
		if err := conn.Drain(); err != nil {
			p.logger.Error("event bus drain failed", "error", err)
			conn.Close()
			return
		}
		p.logger.Info("event bus closed")
	})

	return nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return conn.Publish(Subject(p.cfg.SubjectPrefix, subject), data)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Start(*lifecycle.Coordinator) error         { return nil }
func (Noop) Publish(context.Context, string, any) error { return nil }

// Message is an event captured by a Recorder.
type Message struct {
	Subject string
	Data    json.RawMessage
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Start(*lifecycle.Coordinator) error { return nil }

func (r *Recorder) Publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	r.mu.Lock()
	r.messages = append(r.messages, Message{Subject: subject, Data: data})
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of the recorded events in publish order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
