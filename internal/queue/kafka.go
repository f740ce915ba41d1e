package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// LaunchProducer defines interface for producing launch events
type LaunchProducer interface {
	PublishLaunch(ctx context.Context, launch *models.LaunchEvent) error
	Close() error
}

// KafkaProducer implements LaunchProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

var _ LaunchProducer = (*KafkaProducer)(nil)

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Hash-based partitioning for per-mint ordering
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

// PublishLaunch sends a launch event to Kafka
func (p *KafkaProducer) PublishLaunch(ctx context.Context, launch *models.LaunchEvent) error {
	data, err := json.Marshal(launch)
	if err != nil {
		return err
	}

	// Use mint as key so events for the same token land on the same partition
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(launch.Mint),
		Value: data,
		Time:  time.Now(),
	})
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
