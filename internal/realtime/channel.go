package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/rjinka/family-potluck/internal/metrics"
)

// Message is one push frame from the backend: a type discriminator plus a
// type-specific payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Handler consumes decoded push messages. Each message is delivered at most
// once; there is no replay for late subscribers.
type Handler interface {
	HandleMessage(msg Message)
}

// Options configures the push channel.
type Options struct {
	// Origin is the API origin the endpoint is derived from.
	Origin string

	// Reconnect enables exponential-backoff redial after a dropped
	// connection. Disabled, a close ends the channel for the session.
	Reconnect bool

	// MaxBackoff caps the redial delay. Defaults to 30s.
	MaxBackoff time.Duration
}

// Channel owns the single push connection of an application session.
type Channel struct {
	url     string
	opts    Options
	handler Handler
	logger  *logrus.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed *atomic.Bool
	once   sync.Once
}

// EndpointURL derives the push endpoint from the API origin: the scheme is
// upgraded to its websocket equivalent and the path is /ws. An empty or
// unparseable origin falls back to the same-host default port.
func EndpointURL(origin string) string {
	const fallback = "ws://localhost:5000/ws"
	if origin == "" {
		return fallback
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return fallback
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + "/ws"
}

// NewChannel creates a Channel delivering messages to handler.
func NewChannel(opts Options, handler Handler, logger *logrus.Logger) *Channel {
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Channel{
		url:     EndpointURL(opts.Origin),
		opts:    opts,
		handler: handler,
		logger:  logger,
		closed:  atomic.NewBool(false),
	}
}

// Run connects and reads until the connection drops, Close is called, or
// the context is cancelled. With Reconnect enabled a dropped connection is
// redialed with exponential backoff; otherwise Run returns.
func (c *Channel) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if c.closed.Load() || ctx.Err() != nil {
				return nil
			}
			if !c.opts.Reconnect {
				return err
			}
			c.logger.WithError(err).Warnf("websocket dial failed, retrying in %s", backoff)
			metrics.ChannelReconnects.Inc()
			if err := sleep(ctx, backoff); err != nil {
				return nil
			}
			backoff = nextBackoff(backoff, c.opts.MaxBackoff)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.logger.Infof("Connected to websocket at %s", c.url)
		backoff = time.Second

		c.readLoop(conn)
		c.logger.Info("Disconnected from websocket")

		if c.closed.Load() || ctx.Err() != nil {
			return nil
		}
		if !c.opts.Reconnect {
			return nil
		}
		metrics.ChannelReconnects.Inc()
		if err := sleep(ctx, backoff); err != nil {
			return nil
		}
		backoff = nextBackoff(backoff, c.opts.MaxBackoff)
	}
}

// readLoop decodes frames until the connection fails. Malformed payloads
// are logged and dropped, never propagated.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.WithError(err).Warn("Failed to parse websocket message")
			metrics.ChannelMalformed.Inc()
			continue
		}
		if msg.Type == "" {
			metrics.ChannelMalformed.Inc()
			continue
		}

		metrics.ChannelMessages.WithLabelValues(msg.Type).Inc()
		c.dispatch(msg)
	}
}

// dispatch delivers one message, containing handler panics.
func (c *Channel) dispatch(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Panic in message handler: %v", r)
		}
	}()
	c.handler.HandleMessage(msg)
}

// Close shuts the connection down exactly once.
func (c *Channel) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}
	})
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
