// Package activity публикует записи журнала аудита во внешний поток (Kafka).
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic — топик по умолчанию.
const DefaultTopic = "vault.activity"

// Event — сообщение потока активности.
type Event struct {
	ID        string          `json:"id"`
	VaultID   string          `json:"vault_id"`
	ActorID   string          `json:"actor_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher — контракт публикации.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop — публикатор-заглушка, когда брокеры не настроены.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka — публикатор поверх kafka-go Writer. Ключ сообщения — id хранилища,
// поэтому события одного хранилища попадают в одну партицию по порядку.
type Kafka struct {
	writer messageWriter
}

// NewKafka создаёт Writer для топика.
func NewKafka(brokers []string, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           5 * time.Second,
		ReadTimeout:            5 * time.Second,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func toMessage(e Event) (kafka.Message, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.VaultID),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(e.Action)},
		},
	}, nil
}
