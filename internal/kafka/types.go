// Package kafka exports flushed readings to per-sensor Kafka topics.
package kafka

import (
	"github.com/IBM/sarama"
)

type Publisher struct {
	producer sarama.SyncProducer
}

// message is the JSON value of every published record.
type message struct {
	BatchID    string  `json:"batch_id"`
	SensorID   int     `json:"sensor_id"`
	SensorType string  `json:"sensor_type"`
	BucketDate string  `json:"bucket_date"`
	Timestamp  string  `json:"timestamp"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}
