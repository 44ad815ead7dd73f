package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

const originHeader = "origin-node"

// Producer publishes confirmed chat messages to the broker so sibling
// nodes and notification workers see them. Keyed by conversation id to
// keep per-conversation ordering.
type Producer struct {
	sync   sarama.SyncProducer
	topic  string
	nodeID string
}

// NewProducer connects a synchronous, idempotent producer.
func NewProducer(brokers []string, topic, nodeID string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}
	return &Producer{sync: sync, topic: topic, nodeID: nodeID}, nil
}

// PublishMessage emits one confirmed message, tagged with the origin node
// so the relay on this node can skip its own traffic.
func (p *Producer) PublishMessage(ctx context.Context, msg *chat.Message) error {
	payload, err := json.Marshal(dto.ChatMessageFromDomain(*msg))
	if err != nil {
		return fmt.Errorf("kafka: encode message: %w", err)
	}
	record := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.ConversationID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(originHeader), Value: []byte(p.nodeID)},
		},
	}
	if _, _, err := p.sync.SendMessage(record); err != nil {
		return fmt.Errorf("kafka: publish message: %w", err)
	}
	return nil
}

// Close releases the producer.
func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
