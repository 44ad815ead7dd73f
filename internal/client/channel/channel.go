package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

var (
	// ErrNotOpen is returned by Send when no connection is live.
	ErrNotOpen = errors.New("channel: not open")
)

// Handler receives every inbound message in arrival order.
type Handler func(chat.Message)

// ConversationChannel owns at most one live websocket connection, scoped
// to a single conversation id. Opening a channel for a new conversation
// closes the previous connection first; Close is safe on every exit path.
//
// Failures are generic at this layer: no retry, no backoff, no replay of
// messages missed while disconnected.
type ConversationChannel struct {
	endpoint string
	dialer   *websocket.Dialer
	logger   *slog.Logger

	mu             sync.Mutex
	conn           *websocket.Conn
	conversationID string
	handler        Handler
}

// New builds a channel that dials the given websocket endpoint,
// e.g. "ws://host:8080/ws".
func New(endpoint string, logger *slog.Logger) *ConversationChannel {
	return &ConversationChannel{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
	}
}

// OnMessage registers the single delivery handler. It must be called
// before Open; later calls replace the handler for subsequent messages.
func (c *ConversationChannel) OnMessage(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Open establishes the connection and joins the conversation room. An
// empty conversation id means "no conversation started yet" and is a
// successful no-op. Opening while already open tears down the previous
// connection so exactly one is live at a time.
func (c *ConversationChannel) Open(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("channel: dial %s: %w", c.endpoint, err)
	}

	join, err := dto.NewEvent(dto.EventJoinRoom, dto.JoinRoom{ConversationID: conversationID})
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return fmt.Errorf("channel: join room %s: %w", conversationID, err)
	}

	c.conn = conn
	c.conversationID = conversationID
	go c.readLoop(conn)

	if c.logger != nil {
		c.logger.Info("channel opened", "conversation_id", conversationID)
	}
	return nil
}

// Send emits a message to the room, fire-and-forget. The caller appends
// its optimistic echo independently of delivery confirmation.
func (c *ConversationChannel) Send(msg chat.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotOpen
	}
	event, err := dto.NewEvent(dto.EventSendMessage, dto.ChatMessageFromDomain(msg))
	if err != nil {
		return err
	}
	if err := c.conn.WriteJSON(event); err != nil {
		return fmt.Errorf("channel: send: %w", err)
	}
	return nil
}

// Close tears down the connection. Calling it when not open is a no-op.
func (c *ConversationChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *ConversationChannel) closeLocked() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	if c.logger != nil {
		c.logger.Info("channel closed", "conversation_id", c.conversationID)
	}
	c.conversationID = ""
}

func (c *ConversationChannel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Either Close() was called or the peer went away. Messages
			// sent by others while disconnected are lost to this client.
			return
		}
		var event dto.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			if c.logger != nil {
				c.logger.Warn("channel: dropping malformed frame", "error", err)
			}
			continue
		}
		if event.Event != dto.EventNewMessage {
			continue
		}
		var wire dto.ChatMessage
		if err := json.Unmarshal(event.Data, &wire); err != nil {
			if c.logger != nil {
				c.logger.Warn("channel: dropping malformed message", "error", err)
			}
			continue
		}

		c.mu.Lock()
		handler := c.handler
		stale := c.conn != conn
		c.mu.Unlock()
		if stale {
			// A newer connection owns delivery now; drop silently.
			return
		}
		if handler != nil {
			handler(wire.ToDomain())
		}
	}
}
