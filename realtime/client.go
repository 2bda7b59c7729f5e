// Package realtime is the conversation channel to a realtime voice model over
// WebSocket, plus ephemeral token minting and the bridge that answers tool calls.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("realtime session closed")

// Handler receives every server event in order. Handlers run on the read goroutine.
type Handler func(ctx context.Context, ev Event)

// Options configures Dial.
type Options struct {
	URL   string
	Model string
	// Token is an API key or an ephemeral client secret.
	Token           string
	EventsPerSecond float64
	Logger          *slog.Logger
}

// Client is one realtime session.
type Client struct {
	id      string
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.RWMutex
	handlers []Handler

	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens a session. Call Listen to start receiving events.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	url := opts.URL
	if opts.Model != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "model=" + opts.Model
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: map[string][]string{
			"Authorization": {"Bearer " + opts.Token},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("realtime connect: %w", err)
	}
	conn.SetReadLimit(1 << 22)

	limit := rate.Inf
	burst := 1
	if opts.EventsPerSecond > 0 {
		limit = rate.Limit(opts.EventsPerSecond)
		burst = max(1, int(opts.EventsPerSecond))
	}
	return &Client{
		id:      strings.ToLower(ulid.Make().String()),
		conn:    conn,
		limiter: rate.NewLimiter(limit, burst),
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}, nil
}

// ID identifies the session locally.
func (c *Client) ID() string { return c.id }

// On registers a handler for all events.
func (c *Client) On(h Handler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// Listen reads events until the connection closes or ctx is done. It closes the
// client before returning.
func (c *Client) Listen(ctx context.Context) error {
	defer c.Close()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("realtime read: %w", err)
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
			c.logger.WarnContext(ctx, "realtime event dropped", "error", err)
			continue
		}
		ev := Event{Type: head.Type, Raw: data}
		if ev.Type == TypeError {
			var se ServerError
			if json.Unmarshal(data, &se) == nil {
				c.logger.WarnContext(ctx, "realtime server error", "code", se.Error.Code, "message", se.Error.Message)
			}
		}
		c.mu.RLock()
		handlers := c.handlers
		c.mu.RUnlock()
		for _, h := range handlers {
			h(ctx, ev)
		}
	}
}

// Send writes one client event, paced by the rate limiter.
func (c *Client) Send(ctx context.Context, event any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("realtime write: %w", err)
	}
	return nil
}

// Configure sends session.update.
func (c *Client) Configure(ctx context.Context, cfg SessionConfig) error {
	return c.Send(ctx, sessionUpdate{Type: TypeSessionUpdate, Session: cfg})
}

// SendMessage inserts a user message made of parts.
func (c *Client) SendMessage(ctx context.Context, parts ...Part) error {
	return c.Send(ctx, itemCreate{Type: TypeItemCreate, Item: Item{Type: "message", Role: "user", Content: parts}})
}

// SendContext inserts one message carrying text and, if imageURL is set, an image.
func (c *Client) SendContext(ctx context.Context, text, imageURL string) error {
	parts := []Part{TextPart(text)}
	if imageURL != "" {
		parts = append(parts, ImagePart(imageURL))
	}
	return c.SendMessage(ctx, parts...)
}

// SendToolOutput answers a function call.
func (c *Client) SendToolOutput(ctx context.Context, callID string, output []byte) error {
	return c.Send(ctx, itemCreate{Type: TypeItemCreate, Item: Item{Type: TypeFunctionCallOutput, CallID: callID, Output: string(output)}})
}

// CreateResponse asks the model to respond now.
func (c *Client) CreateResponse(ctx context.Context) error {
	return c.Send(ctx, responseCreate{Type: TypeResponseCreate})
}

// Done is closed once the session is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close(websocket.StatusNormalClosure, "session ended")
	})
	return err
}
