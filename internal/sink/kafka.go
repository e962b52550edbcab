package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"call-insights-go/internal/types"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each record as one JSON message keyed by record source.
type Kafka struct {
	topic  string
	writer messageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	return &Kafka{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    &kafka.Transport{Dial: dialer.DialFunc},
		},
	}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Persist(ctx context.Context, rec types.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Source),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(rec.RunID)},
			{Key: "template", Value: []byte(rec.Template)},
		},
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
