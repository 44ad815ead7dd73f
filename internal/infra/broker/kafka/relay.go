package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

// Broadcaster re-injects messages confirmed elsewhere into local rooms.
type Broadcaster interface {
	Broadcast(msg *chat.Message)
}

// SeenStore answers whether a message id was already processed by this
// consumer group. Guards against offset replay after a rebalance.
type SeenStore interface {
	Seen(ctx context.Context, messageID string) (bool, error)
}

// Relay consumes the chat topic and forwards messages from other nodes to
// the local hub, so a room spread over several nodes stays in sync.
type Relay struct {
	group  sarama.ConsumerGroup
	hub    Broadcaster
	seen   SeenStore
	nodeID string
	logger *slog.Logger
}

// NewRelay joins the consumer group for the chat topic. seen may be nil,
// in which case replayed offsets are rebroadcast as-is.
func NewRelay(brokers []string, groupID, nodeID string, cfg *sarama.Config, hub Broadcaster, seen SeenStore, logger *slog.Logger) (*Relay, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Relay{group: group, hub: hub, seen: seen, nodeID: nodeID, logger: logger}, nil
}

// Run consumes until the context is cancelled.
func (r *Relay) Run(ctx context.Context, topics []string) error {
	for {
		if err := r.group.Consume(ctx, topics, relayHandler{relay: r}); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the consumer group.
func (r *Relay) Close() error {
	return r.group.Close()
}

type relayHandler struct {
	relay *Relay
}

func (relayHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (relayHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h relayHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		if h.relay.originatedHere(record) {
			sess.MarkMessage(record, "")
			continue
		}
		var wire dto.ChatMessage
		if err := json.Unmarshal(record.Value, &wire); err != nil {
			h.relay.logger.Warn("skipping undecodable broker message", "topic", record.Topic, "offset", record.Offset, "error", err)
			sess.MarkMessage(record, "")
			continue
		}
		msg := wire.ToDomain()
		if h.relay.seen != nil && msg.ID != "" {
			dup, err := h.relay.seen.Seen(sess.Context(), msg.ID)
			if err != nil {
				h.relay.logger.Error("inbox check failed, relaying anyway", "message_id", msg.ID, "error", err)
			} else if dup {
				sess.MarkMessage(record, "")
				continue
			}
		}
		h.relay.hub.Broadcast(&msg)
		sess.MarkMessage(record, "")
	}
	return nil
}

func (r *Relay) originatedHere(record *sarama.ConsumerMessage) bool {
	for _, header := range record.Headers {
		if string(header.Key) == originHeader {
			return string(header.Value) == r.nodeID
		}
	}
	return false
}
