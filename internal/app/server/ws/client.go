package ws

import (
	"context"
	"errors"
	"sync"
)

// RuntimeClient is one live session. Sends are decoupled from the
// socket through a bounded channel and a single write pump, so a slow
// consumer fails its own sends instead of blocking a broadcast.
type RuntimeClient struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ws          *WebSocket
	sessionID   string
	userID      string
	displayName string
	out         chan []byte
	once        sync.Once
}

func NewClient(
	parent context.Context,
	ws *WebSocket,
	sessionID, userID, displayName string,
) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:         ctx,
		cancel:      cancel,
		ws:          ws,
		sessionID:   sessionID,
		userID:      userID,
		displayName: displayName,
		out:         make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) SessionID() string   { return c.sessionID }
func (c *RuntimeClient) UserID() string      { return c.userID }
func (c *RuntimeClient) DisplayName() string { return c.displayName }

var errClientClosed = errors.New("client closed")

func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case <-c.ctx.Done():
		return errClientClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errClientClosed
	default:
		return errors.New("send buffer full")
	}
}

// Close is idempotent. The out channel is never closed; concurrent
// senders race against cancellation, not a closed channel.
func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			_ = c.ws.WriteMessage(data)
		}
	}
}
