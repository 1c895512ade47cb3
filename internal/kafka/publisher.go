package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

func NewPublisher(brokers []string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.ClientID = "telemetry-simulator"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return NewPublisherWithProducer(producer), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) Name() string {
	return "kafka"
}

// Publish sends one record per reading, keyed by sensor id so a sensor's
// readings stay ordered within its partition.
func (p *Publisher) Publish(ctx context.Context, readings []types.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batchID := uuid.NewString()
	msgs := make([]*sarama.ProducerMessage, 0, len(readings))
	for _, r := range readings {
		topic, err := TopicFor(r)
		if err != nil {
			return err
		}

		b, err := json.Marshal(message{
			BatchID:    batchID,
			SensorID:   r.SensorID,
			SensorType: string(r.SensorType),
			BucketDate: r.Timestamp.UTC().Format(time.DateOnly),
			Timestamp:  r.Timestamp.UTC().Format(time.RFC3339Nano),
			Value:      r.Value,
			Unit:       r.Unit,
		})
		if err != nil {
			return fmt.Errorf("failed to encode reading: %w", err)
		}

		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(strconv.Itoa(r.SensorID)),
			Value: sarama.ByteEncoder(b),
		})
	}

	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to publish batch %s: %w", batchID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
