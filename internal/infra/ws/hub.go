package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

// EventPublisher fans a confirmed message out beyond this node, e.g. to a
// Kafka topic consumed by sibling nodes and notification workers.
type EventPublisher interface {
	PublishMessage(ctx context.Context, msg *chat.Message) error
}

// Hub owns every live session and the room index keyed by conversation
// id. All maps are touched only by the Run goroutine; sessions talk to it
// through channels.
type Hub struct {
	logger   *slog.Logger
	messages chat.MessageRepository
	pub      EventPublisher

	register   chan *session
	unregister chan *session
	inbound    chan inboundEvent
	relayed    chan *chat.Message
	stopped    chan struct{}

	rooms    map[string]map[*session]struct{}
	sessions map[*session]string
}

type inboundEvent struct {
	from  *session
	event dto.Event
}

// NewHub builds a hub persisting through the given repository. pub may be
// nil when no broker is configured.
func NewHub(messages chat.MessageRepository, pub EventPublisher, logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		messages:   messages,
		pub:        pub,
		register:   make(chan *session),
		unregister: make(chan *session),
		inbound:    make(chan inboundEvent, 64),
		relayed:    make(chan *chat.Message, 64),
		stopped:    make(chan struct{}),
		rooms:      make(map[string]map[*session]struct{}),
		sessions:   make(map[*session]string),
	}
}

// Run processes registrations, room joins and message traffic until the
// context is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			for s := range h.sessions {
				s.close()
			}
			h.rooms = make(map[string]map[*session]struct{})
			h.sessions = make(map[*session]string)
			return
		case s := <-h.register:
			h.sessions[s] = ""
			h.logger.Info("session registered", "remote", s.remote, "sessions", len(h.sessions))
		case s := <-h.unregister:
			h.drop(s)
		case ev := <-h.inbound:
			h.dispatch(ctx, ev)
		case msg := <-h.relayed:
			// Message confirmed on another node; local append only.
			h.broadcast(msg)
		}
	}
}

// Broadcast injects an externally confirmed message into the owning room.
// Used by the broker relay for cross-node fan-out.
func (h *Hub) Broadcast(msg *chat.Message) {
	select {
	case h.relayed <- msg:
	case <-h.stopped:
	}
}

func (h *Hub) dispatch(ctx context.Context, ev inboundEvent) {
	switch ev.event.Event {
	case dto.EventJoinRoom:
		var join dto.JoinRoom
		if err := json.Unmarshal(ev.event.Data, &join); err != nil || join.ConversationID == "" {
			h.logger.Warn("dropping malformed join_room", "remote", ev.from.remote)
			return
		}
		h.join(ev.from, join.ConversationID)
	case dto.EventSendMessage:
		var wire dto.ChatMessage
		if err := json.Unmarshal(ev.event.Data, &wire); err != nil {
			h.logger.Warn("dropping malformed send_message", "remote", ev.from.remote)
			return
		}
		h.handleSend(ctx, ev.from, wire)
	default:
		h.logger.Warn("ignoring unknown event", "event", ev.event.Event, "remote", ev.from.remote)
	}
}

func (h *Hub) join(s *session, conversationID string) {
	if current, ok := h.sessions[s]; ok && current != "" {
		delete(h.rooms[current], s)
		if len(h.rooms[current]) == 0 {
			delete(h.rooms, current)
		}
	}
	room, ok := h.rooms[conversationID]
	if !ok {
		room = make(map[*session]struct{})
		h.rooms[conversationID] = room
	}
	room[s] = struct{}{}
	h.sessions[s] = conversationID
	h.logger.Info("session joined room", "conversation_id", conversationID, "members", len(room))
}

// handleSend confirms a client message: server id and timestamp are
// assigned here, the client-generated id is not preserved.
func (h *Hub) handleSend(ctx context.Context, s *session, wire dto.ChatMessage) {
	msg := wire.ToDomain()
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now().UTC()
	if msg.ConversationID == "" {
		msg.ConversationID = h.sessions[s]
	}
	if err := msg.Validate(); err != nil {
		h.logger.Warn("rejecting invalid message", "remote", s.remote, "error", err)
		return
	}
	if err := h.messages.Append(ctx, &msg); err != nil {
		h.logger.Error("message append failed", "conversation_id", msg.ConversationID, "error", err)
		return
	}
	h.broadcast(&msg)
	if h.pub != nil {
		if err := h.pub.PublishMessage(ctx, &msg); err != nil {
			h.logger.Error("message publish failed", "conversation_id", msg.ConversationID, "error", err)
		}
	}
}

// broadcast delivers new_message to every member of the owning room,
// including the sender. The rebroadcast-to-originator duplicate is the
// contract clients are written against.
func (h *Hub) broadcast(msg *chat.Message) {
	room := h.rooms[msg.ConversationID]
	if len(room) == 0 {
		return
	}
	event, err := dto.NewEvent(dto.EventNewMessage, dto.ChatMessageFromDomain(*msg))
	if err != nil {
		h.logger.Error("encode new_message failed", "error", err)
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode new_message failed", "error", err)
		return
	}
	for s := range room {
		select {
		case s.send <- frame:
		default:
			// Slow consumer: evict rather than block the hub.
			h.logger.Warn("evicting slow session", "remote", s.remote)
			h.drop(s)
		}
	}
}

func (h *Hub) drop(s *session) {
	roomID, ok := h.sessions[s]
	if !ok {
		return
	}
	if roomID != "" {
		delete(h.rooms[roomID], s)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.sessions, s)
	s.close()
	h.logger.Info("session unregistered", "remote", s.remote, "sessions", len(h.sessions))
}
