package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

// Matcher runs the match pipeline for one frame
type Matcher interface {
	PerformFaceMatching(ctx context.Context, frame *service.Frame) <-chan domain.Outcome
}

// Conn is the subset of *websocket.Conn used by a client
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live camera session. Every binary message is a frame; an
// empty one means nothing was captured. A newer frame cancels the match
// still running for the previous one.
type Client struct {
	hub     *Hub
	conn    Conn
	matcher Matcher
	base    context.Context
	logger  *slog.Logger
	send    chan []byte
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

func NewClient(ctx context.Context, hub *Hub, conn Conn, matcher Matcher, logger *slog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		matcher: matcher,
		base:    ctx,
		logger:  logger,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.shutdown()
		_ = c.conn.Close()
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.match(data)
		default:
			c.reject("frames must be sent as binary messages")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

// match supersedes the in-flight match with one for image
func (c *Client) match(image []byte) {
	var frame *service.Frame
	if len(image) > 0 {
		frame = &service.Frame{Image: image}
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	outcomes := c.matcher.PerformFaceMatching(ctx, frame)
	go c.forward(ctx, seq, outcomes)
}

func (c *Client) forward(ctx context.Context, seq uint64, outcomes <-chan domain.Outcome) {
	for o := range outcomes {
		if ctx.Err() != nil {
			continue
		}

		message, err := json.Marshal(Event{
			Type:      EventMatchOutcome,
			Seq:       seq,
			Data:      outcomePayload(o),
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			c.logger.Error("failed to encode outcome", slog.String("error", err.Error()))
			continue
		}

		select {
		case c.send <- message:
		case <-ctx.Done():
		case <-c.done:
		}
	}
}

func (c *Client) reject(reason string) {
	message, err := json.Marshal(Event{
		Type:      EventFrameRejected,
		Data:      map[string]string{"message": reason},
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	c.trySend(message)
}

// trySend queues message unless the client is gone or its buffer is full
func (c *Client) trySend(message []byte) {
	select {
	case <-c.done:
	case c.send <- message:
	default:
	}
}

// shutdown stops the write pump and any running match
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)

		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Unlock()
	})
}
