package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Kafka publishes signals to a single topic, keyed by deal id so all
// notifications of one deal land on the same partition in order.
type Kafka struct {
	producer *kafka.Producer
	topic    string
}

func NewKafka(brokers, clientID, topic string) (*Kafka, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         clientID,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	go func() {
		for e := range producer.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				log.Printf("notification kafka: delivery failed: %v", m.TopicPartition.Error)
			}
		}
	}()

	return &Kafka{producer: producer, topic: topic}, nil
}

func (k *Kafka) Dispatch(_ context.Context, n Notification) {
	value, err := json.Marshal(n)
	if err != nil {
		log.Printf("notification kafka: marshal: %v", err)
		return
	}
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatUint(uint64(n.DealID), 10)),
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("notification kafka: produce: %v", err)
	}
}

// Close flushes pending messages and releases the producer.
func (k *Kafka) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}
